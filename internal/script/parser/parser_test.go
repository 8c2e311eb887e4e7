package parser

import (
	"testing"
)

func testParser() *Parser {
	return New(Config{
		AutoNextCommands: []string{"changeBackground", "bgm", "setVar"},
		AssetBase:        "game/",
	})
}

func TestParseLineDialogue(t *testing.T) {
	p := testParser()

	tests := []struct {
		name        string
		line        string
		wantCmd     CommandType
		wantRaw     string
		wantContent string
		wantSpeaker string
		wantHasSpkr bool
	}{
		{
			name:        "unknown token is the speaker",
			line:        "玲:你好，欢迎来到实验室。",
			wantCmd:     CommandSay,
			wantRaw:     "玲",
			wantContent: "你好，欢迎来到实验室。",
			wantSpeaker: "玲",
			wantHasSpkr: true,
		},
		{
			name:        "explicit say with speaker flag",
			line:        "say:hello there -speaker=rin",
			wantCmd:     CommandSay,
			wantRaw:     "say",
			wantContent: "hello there",
			wantSpeaker: "rin",
			wantHasSpkr: true,
		},
		{
			name:        "continuation line has no speaker",
			line:        "然后故事继续下去",
			wantCmd:     CommandSay,
			wantContent: "然后故事继续下去",
		},
		{
			name:        "command alias resolves",
			line:        "jumpLabel:chapter2",
			wantCmd:     CommandJump,
			wantRaw:     "jumpLabel",
			wantContent: "chapter2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := p.ParseLine(tt.line)
			if s.Command != tt.wantCmd {
				t.Fatalf("command got=%v want=%v", s.Command, tt.wantCmd)
			}
			if s.CommandRaw != tt.wantRaw {
				t.Fatalf("commandRaw got=%q want=%q", s.CommandRaw, tt.wantRaw)
			}
			if s.Content != tt.wantContent {
				t.Fatalf("content got=%q want=%q", s.Content, tt.wantContent)
			}
			speaker, ok := s.Speaker()
			if ok != tt.wantHasSpkr || speaker != tt.wantSpeaker {
				t.Fatalf("speaker got=(%q,%v) want=(%q,%v)", speaker, ok, tt.wantSpeaker, tt.wantHasSpkr)
			}
		})
	}
}

func TestParseLineEmpty(t *testing.T) {
	p := testParser()
	s := p.ParseLine(";just a note")
	if s.Command != CommandComment {
		t.Fatalf("command got=%v want=%v", s.Command, CommandComment)
	}
	if s.Content != "just a note" {
		t.Fatalf("content got=%q", s.Content)
	}
	if !s.ArgBool("next") {
		t.Fatalf("expected comment sentence to auto-advance")
	}
}

func TestParseLineAutoNext(t *testing.T) {
	p := testParser()

	if s := p.ParseLine("changeBackground:bg.png"); !s.ArgBool("next") {
		t.Fatalf("expected auto-next arg on configured command")
	}
	// explicit flag is not duplicated
	s := p.ParseLine("changeBackground:bg.png -next")
	count := 0
	for _, a := range s.Args {
		if a.Key == "next" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("next arg count got=%d want=1", count)
	}
	if s := p.ParseLine("wait:2000"); s.ArgBool("next") {
		t.Fatalf("unexpected auto-next on wait")
	}
}

func TestParseLineAssets(t *testing.T) {
	p := testParser()

	tests := []struct {
		name        string
		line        string
		wantContent string
		wantAssets  []Asset
	}{
		{
			name:        "background content rewritten",
			line:        "changeBackground:lab.png",
			wantContent: "game/background/lab.png",
			wantAssets:  []Asset{{URL: "game/background/lab.png", Kind: "background"}},
		},
		{
			name:        "bgm goes to its own directory",
			line:        "bgm:theme.mp3",
			wantContent: "game/bgm/theme.mp3",
			wantAssets:  []Asset{{URL: "game/bgm/theme.mp3", Kind: "audio"}},
		},
		{
			name:        "absolute url untouched",
			line:        "changeBackground:https://cdn.example.com/lab.png",
			wantContent: "https://cdn.example.com/lab.png",
			wantAssets:  []Asset{{URL: "https://cdn.example.com/lab.png", Kind: "background"}},
		},
		{
			name:        "none clears without an asset",
			line:        "changeFigure:none",
			wantContent: "none",
		},
		{
			name:        "vocal arg on dialogue",
			line:        "玲:你好 -vocal=hello.ogg",
			wantContent: "你好",
			wantAssets:  []Asset{{URL: "game/vocal/hello.ogg", Kind: "audio"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := p.ParseLine(tt.line)
			if s.Content != tt.wantContent {
				t.Fatalf("content got=%q want=%q", s.Content, tt.wantContent)
			}
			if len(s.Assets) != len(tt.wantAssets) {
				t.Fatalf("assets got=%+v want=%+v", s.Assets, tt.wantAssets)
			}
			for i := range s.Assets {
				if s.Assets[i] != tt.wantAssets[i] {
					t.Fatalf("asset %d got=%+v want=%+v", i, s.Assets[i], tt.wantAssets[i])
				}
			}
		})
	}
}

func TestParseLineSubScenes(t *testing.T) {
	p := testParser()

	s := p.ParseLine("choose:去实验室:lab.txt|回家:home.txt")
	want := []string{"lab.txt", "home.txt"}
	if len(s.SubScenes) != len(want) {
		t.Fatalf("subScenes got=%v want=%v", s.SubScenes, want)
	}
	for i := range want {
		if s.SubScenes[i] != want[i] {
			t.Fatalf("subScene %d got=%q want=%q", i, s.SubScenes[i], want[i])
		}
	}

	s = p.ParseLine("changeScene:chapter2.txt")
	if len(s.SubScenes) != 1 || s.SubScenes[0] != "game/scene/chapter2.txt" {
		t.Fatalf("subScenes got=%v", s.SubScenes)
	}

	if s := p.ParseLine("玲:这不是 scene.txt 的引用"); len(s.SubScenes) != 0 {
		t.Fatalf("dialogue should not embed sub scenes, got %v", s.SubScenes)
	}
}

func TestParseScript(t *testing.T) {
	p := testParser()
	script := "玲:第一句;\r\nchangeBackground:bg.png;\n\n玲:第二句;"
	sentences := p.ParseScript(script)
	if len(sentences) != 4 {
		t.Fatalf("sentence count got=%d want=4", len(sentences))
	}
	if sentences[0].Content != "第一句" {
		t.Fatalf("first content got=%q", sentences[0].Content)
	}
	if sentences[2].Command != CommandComment {
		t.Fatalf("blank line should compile to comment, got %v", sentences[2].Command)
	}
}

func TestArgLastOneWins(t *testing.T) {
	p := testParser()
	s := p.ParseLine("changeFigure:miyu.png -id=a -id=b")
	if v, ok := s.ArgString("id"); !ok || v != "b" {
		t.Fatalf("id got=(%q,%v) want=(b,true)", v, ok)
	}
}
