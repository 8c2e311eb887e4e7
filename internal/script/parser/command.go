package parser

// CommandType identifies one script statement kind. The set is closed:
// new kinds are added here and in commandTable, never registered at runtime.
type CommandType int

const (
	CommandSay CommandType = iota
	CommandChangeBackground
	CommandChangeFigure
	CommandPlayBgm
	CommandPlaySoundEffect
	CommandPlayVideo
	CommandWait
	CommandChoose
	CommandLabel
	CommandJump
	CommandChangeScene
	CommandCallScene
	CommandSetVar
	CommandEnd
	CommandComment
)

var commandNames = map[CommandType]string{
	CommandSay:              "say",
	CommandChangeBackground: "changeBackground",
	CommandChangeFigure:     "changeFigure",
	CommandPlayBgm:          "playBgm",
	CommandPlaySoundEffect:  "playSoundEffect",
	CommandPlayVideo:        "playVideo",
	CommandWait:             "wait",
	CommandChoose:           "choose",
	CommandLabel:            "label",
	CommandJump:             "jump",
	CommandChangeScene:      "changeScene",
	CommandCallScene:        "callScene",
	CommandSetVar:           "setVar",
	CommandEnd:              "end",
	CommandComment:          "comment",
}

// commandTable maps command tokens to their type. Lookup is case-sensitive.
var commandTable = map[string]CommandType{
	"say":              CommandSay,
	"changeBackground": CommandChangeBackground,
	"changeFigure":     CommandChangeFigure,
	"playBgm":          CommandPlayBgm,
	"bgm":              CommandPlayBgm,
	"playSoundEffect":  CommandPlaySoundEffect,
	"playEffect":       CommandPlaySoundEffect,
	"playVideo":        CommandPlayVideo,
	"wait":             CommandWait,
	"choose":           CommandChoose,
	"label":            CommandLabel,
	"jump":             CommandJump,
	"jumpLabel":        CommandJump,
	"changeScene":      CommandChangeScene,
	"callScene":        CommandCallScene,
	"setVar":           CommandSetVar,
	"end":              CommandEnd,
}

func (c CommandType) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "say"
}

// lookupCommand resolves a command token. Unknown tokens resolve to say:
// a leading token before ':' is a command attempt, and tolerating it beats
// crashing playback on one odd line.
func lookupCommand(token string) (CommandType, bool) {
	cmd, ok := commandTable[token]
	if !ok {
		return CommandSay, false
	}
	return cmd, true
}

// AssetKind classifies a referenced asset.
type AssetKind int

const (
	AssetBackground AssetKind = iota
	AssetFigure
	AssetAudio
	AssetVideo
	AssetScene
)

func (k AssetKind) String() string {
	switch k {
	case AssetBackground:
		return "background"
	case AssetFigure:
		return "figure"
	case AssetAudio:
		return "audio"
	case AssetVideo:
		return "video"
	case AssetScene:
		return "scene"
	}
	return "unknown"
}

// contentAssetKind reports the asset kind a command's content names, if any.
func contentAssetKind(cmd CommandType) (AssetKind, bool) {
	switch cmd {
	case CommandChangeBackground:
		return AssetBackground, true
	case CommandChangeFigure:
		return AssetFigure, true
	case CommandPlayBgm, CommandPlaySoundEffect:
		return AssetAudio, true
	case CommandPlayVideo:
		return AssetVideo, true
	case CommandChangeScene, CommandCallScene:
		return AssetScene, true
	}
	return 0, false
}

// embedsSubScene reports whether a command may reference another script file.
func embedsSubScene(cmd CommandType) bool {
	switch cmd {
	case CommandChangeScene, CommandCallScene, CommandChoose, CommandJump:
		return true
	}
	return false
}
