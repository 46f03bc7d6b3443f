package script

import (
	"context"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var claudeModels = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

const (
	temperature = 0.7
	maxTokens   = 4096
)

type ClaudeGenerator struct {
	model  string
	client anthropic.Client
}

// NewClaudeGenerator builds a generator with SDK retries disabled: a failed
// call surfaces to the user, who decides whether to resubmit.
func NewClaudeGenerator(model, apiKey string, opts ...option.RequestOption) *ClaudeGenerator {
	reqOpts := []option.RequestOption{
		option.WithMaxRetries(0),
		option.WithRequestTimeout(120 * time.Second),
	}
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	reqOpts = append(reqOpts, opts...)
	return &ClaudeGenerator{
		model:  model,
		client: anthropic.NewClient(reqOpts...),
	}
}

func (g *ClaudeGenerator) Generate(ctx context.Context, topic string) (string, error) {
	modelID := claudeModels[g.model]
	if modelID == "" {
		modelID = claudeModels["haiku"]
	}

	return observe(ctx, ProviderAnthropic, modelID, topic, func(ctx context.Context) (string, error) {
		message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(modelID),
			MaxTokens:   maxTokens,
			Temperature: anthropic.Float(temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(BuildPrompt(topic))),
			},
		})
		if err != nil {
			return "", err
		}
		return extractText(message), nil
	})
}

func extractText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "")
}
