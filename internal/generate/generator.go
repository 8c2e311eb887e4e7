package generate

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"paperstage/internal/script/parser"
)

// Config for the script generator's chat backend.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

const systemPrompt = `You turn an academic paper into a dialogue script for a stage play
between these characters:
- 玲 (Ling): gentle senior student, explains concepts patiently
- 凛 (Rin): energetic junior, asks the questions a newcomer would
- 先生 (Sensei): stern professor, corrects and summarizes
- 旁白 (Narrator): scene setting and transitions

Output ONLY script lines, one statement per line, in this form:

旁白:实验室的夜晚，屏幕的光映在三个人脸上。;
玲:今天我们来读这篇论文。;
凛:等等，这个公式是什么意思？;

Rules:
- Every line ends with a semicolon.
- Speaker name, colon, dialogue. No other commands.
- Keep mathematical notation out of spoken lines; describe formulas in words.
- Cover the paper's motivation, method and findings in order.`

// Generator turns paper text into playable script lines through a chat
// model, then parses its own output so callers get sentences, not prose.
type Generator struct {
	model  *openai.ChatModel
	parser *parser.Parser
	log    *logrus.Entry
}

func New(ctx context.Context, cfg Config, p *parser.Parser) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generate: api key not configured")
	}
	model, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return &Generator{
		model:  model,
		parser: p,
		log:    logrus.WithField("component", "generate"),
	}, nil
}

// GenerateScript produces a script from paper text. The raw model output is
// returned alongside the parsed sentences so callers can persist the script
// file as written.
func (g *Generator) GenerateScript(ctx context.Context, paper string) (string, []parser.Sentence, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: paper},
	}

	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate script: %w", err)
	}

	script := cleanScript(resp.Content)
	if script == "" {
		return "", nil, fmt.Errorf("generate: model returned no script lines")
	}

	sentences := g.parser.ParseScript(script)
	g.log.WithFields(logrus.Fields{
		"paper_chars": len(paper),
		"lines":       len(sentences),
	}).Info("script generated")
	return script, sentences, nil
}

// cleanScript strips markdown fences and blank padding a chat model tends
// to wrap its answer in.
func cleanScript(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "```") {
			continue
		}
		lines = append(lines, trimmed)
	}
	return strings.Join(lines, "\n")
}
