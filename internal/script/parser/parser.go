package parser

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Sentence is one parsed, immutable unit of script execution.
type Sentence struct {
	Command    CommandType `json:"command"`
	CommandRaw string      `json:"commandRaw"`
	Content    string      `json:"content"`
	Args       []Flag      `json:"args"`
	Assets     []Asset     `json:"sentenceAssets"`
	SubScenes  []string    `json:"subScene"`
}

// Asset is one referenced resource scanned out of content or args.
type Asset struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

// ArgString returns the last value for key, string-typed args only.
// Duplicate keys follow last-one-wins.
func (s *Sentence) ArgString(key string) (string, bool) {
	var out string
	var found bool
	for _, a := range s.Args {
		if a.Key != key {
			continue
		}
		if v, ok := a.Value.(string); ok {
			out, found = v, true
		}
	}
	return out, found
}

// ArgBool returns the last boolean value for key.
func (s *Sentence) ArgBool(key string) bool {
	var out bool
	for _, a := range s.Args {
		if a.Key == key {
			if v, ok := a.Value.(bool); ok {
				out = v
			}
		}
	}
	return out
}

// Config tunes parsing per deployment. Script styles vary, so the auto-next
// command list is data, not code.
type Config struct {
	// AutoNextCommands names commands that auto-advance to the next line.
	AutoNextCommands []string
	// AssetBase prefixes every rewritten asset URL, e.g. "game/".
	AssetBase string
	// SceneExtension marks embedded sub-script references, default ".txt".
	SceneExtension string
}

// Parser compiles raw script lines into Sentences.
type Parser struct {
	cfg      Config
	autoNext map[CommandType]bool
	log      *logrus.Entry
}

func New(cfg Config) *Parser {
	if cfg.SceneExtension == "" {
		cfg.SceneExtension = ".txt"
	}
	autoNext := make(map[CommandType]bool, len(cfg.AutoNextCommands))
	for _, name := range cfg.AutoNextCommands {
		if cmd, ok := commandTable[name]; ok {
			autoNext[cmd] = true
		}
	}
	return &Parser{
		cfg:      cfg,
		autoNext: autoNext,
		log:      logrus.WithField("component", "parser"),
	}
}

// ParseLine compiles one raw line. It never returns an error: a visual-novel
// runtime must not crash mid-playback on a malformed line, so every input
// degrades into some valid Sentence.
func (p *Parser) ParseLine(line string) Sentence {
	raw := tokenize(line)

	if raw.empty {
		return Sentence{
			Command: CommandComment,
			Content: raw.comment,
			Args:    []Flag{{Key: "next", Value: true}},
		}
	}

	cmd := CommandSay
	if raw.hasCommand {
		known := false
		cmd, known = lookupCommand(raw.commandToken)
		if !known {
			p.log.WithField("token", raw.commandToken).Debug("unknown command token, compiling as say")
		}
	}

	s := Sentence{
		Command:    cmd,
		CommandRaw: raw.commandToken,
		Content:    p.rewriteContent(cmd, raw.content),
		Args:       raw.flags,
	}

	if p.autoNext[cmd] && !hasArg(s.Args, "next") {
		s.Args = append(s.Args, Flag{Key: "next", Value: true})
	}

	s.Assets = p.scanAssets(cmd, s.Content, s.Args)
	s.SubScenes = p.scanSubScenes(cmd, s.Content, s.Args)
	return s
}

// ParseScript compiles a whole script, one Sentence per line.
func (p *Parser) ParseScript(script string) []Sentence {
	lines := strings.Split(strings.ReplaceAll(script, "\r\n", "\n"), "\n")
	sentences := make([]Sentence, 0, len(lines))
	for _, line := range lines {
		sentences = append(sentences, p.ParseLine(line))
	}
	return sentences
}

// Speaker returns the speaking character for a dialogue sentence. An
// unknown command token compiled as say IS the speaker name; an explicit
// say command may carry one in -speaker; a bare continuation line has none
// and inherits the previous speaker at a higher layer.
func (s *Sentence) Speaker() (string, bool) {
	if s.Command != CommandSay {
		return "", false
	}
	if s.CommandRaw != "" {
		if _, known := commandTable[s.CommandRaw]; !known {
			return s.CommandRaw, true
		}
	}
	if sp, ok := s.ArgString("speaker"); ok && sp != "" {
		return sp, true
	}
	return "", false
}

func hasArg(args []Flag, key string) bool {
	for _, a := range args {
		if a.Key == key {
			return true
		}
	}
	return false
}
