package parser

import "testing"

func TestTokenize(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantToken  string
		wantHasCmd bool
		wantText   string
		wantCmt    string
		wantEmpty  bool
	}{
		{
			name:      "comment only line",
			line:      "   ;some comment",
			wantCmt:   "some comment",
			wantEmpty: true,
		},
		{
			name:      "blank line",
			line:      "   ",
			wantEmpty: true,
		},
		{
			name:       "command with content and trailing comment",
			line:       "changeBackground:bg.png;switch to the lab",
			wantToken:  "changeBackground",
			wantHasCmd: true,
			wantText:   "bg.png",
			wantCmt:    "switch to the lab",
		},
		{
			name:       "escaped semicolon stays in content",
			line:       `say:Hello\; World;trailing`,
			wantToken:  "say",
			wantHasCmd: true,
			wantText:   "Hello; World",
			wantCmt:    "trailing",
		},
		{
			name:       "escaped colon stays in content",
			line:       `say:ratio is 1\:2`,
			wantToken:  "say",
			wantHasCmd: true,
			wantText:   "ratio is 1:2",
		},
		{
			name:     "no colon is continuous dialogue",
			line:     "and the story goes on",
			wantText: "and the story goes on",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tokenize(tt.line)
			if raw.empty != tt.wantEmpty {
				t.Fatalf("empty got=%v want=%v", raw.empty, tt.wantEmpty)
			}
			if raw.commandToken != tt.wantToken {
				t.Fatalf("token got=%q want=%q", raw.commandToken, tt.wantToken)
			}
			if raw.hasCommand != tt.wantHasCmd {
				t.Fatalf("hasCommand got=%v want=%v", raw.hasCommand, tt.wantHasCmd)
			}
			if raw.content != tt.wantText {
				t.Fatalf("content got=%q want=%q", raw.content, tt.wantText)
			}
			if raw.comment != tt.wantCmt {
				t.Fatalf("comment got=%q want=%q", raw.comment, tt.wantCmt)
			}
		})
	}
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name string
		tail string
		want []Flag
	}{
		{
			name: "bare flag is boolean true",
			tail: " -next",
			want: []Flag{{Key: "next", Value: true}},
		},
		{
			name: "typed values",
			tail: " -scale=0.8 -left=true -vocal=hello.ogg",
			want: []Flag{
				{Key: "scale", Value: 0.8},
				{Key: "left", Value: true},
				{Key: "vocal", Value: "hello.ogg"},
			},
		},
		{
			name: "empty tail",
			tail: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFlags(tt.tail)
			if len(got) != len(tt.want) {
				t.Fatalf("flag count got=%d want=%d (%+v)", len(got), len(tt.want), got)
			}
			for i := range got {
				if got[i].Key != tt.want[i].Key || got[i].Value != tt.want[i].Value {
					t.Fatalf("flag %d got=%+v want=%+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
