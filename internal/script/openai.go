package script

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

var openAIModels = map[string]string{
	"gpt":      "gpt-4o-mini",
	"gpt-full": "gpt-4o",
}

// OpenAIGenerator talks to the OpenAI chat completion API or any
// OpenAI-compatible endpoint (OpenRouter, local gateways).
type OpenAIGenerator struct {
	model  string
	client *openai.Client
}

func NewOpenAIGenerator(model, apiKey, baseURL string) *OpenAIGenerator {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{Timeout: 120 * time.Second}

	return &OpenAIGenerator{
		model:  model,
		client: openai.NewClientWithConfig(config),
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, topic string) (string, error) {
	modelID := openAIModels[g.model]
	if modelID == "" {
		modelID = openAIModels["gpt"]
	}

	return observe(ctx, ProviderOpenAI, modelID, topic, func(ctx context.Context) (string, error) {
		resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       modelID,
			Temperature: temperature,
			MaxTokens:   maxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(topic)},
			},
		})
		if err != nil {
			return "", fmt.Errorf("openai chat completion failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("response contained no choices")
		}
		return resp.Choices[0].Message.Content, nil
	})
}
