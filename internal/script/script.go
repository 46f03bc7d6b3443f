package script

import (
	"context"
	"fmt"
	"sort"
)

// FailureMessage is the only error text callers ever show to the user.
const FailureMessage = "Failed to generate the conversation script. Please try again."

// Generator turns a topic into a practice script. Implementations issue
// exactly one provider request and return the provider text verbatim.
type Generator interface {
	Generate(ctx context.Context, topic string) (string, error)
}

// GenerationError hides the provider-level cause behind FailureMessage.
// The cause stays reachable through errors.Unwrap for operator logs.
type GenerationError struct {
	Provider string
	Cause    error
}

func (e *GenerationError) Error() string {
	return FailureMessage
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

func newGenerationError(provider string, cause error) *GenerationError {
	return &GenerationError{Provider: provider, Cause: cause}
}

// Options configures provider selection and credentials.
type Options struct {
	Model           string
	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AWSRegion       string
}

// Provider names.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderBedrock   = "bedrock"
)

// DefaultModel matches the model the hosted app was built around.
const DefaultModel = "gemini-flash"

// ProviderFor returns the provider behind a model alias.
func ProviderFor(model string) (string, bool) {
	switch {
	case geminiModels[model] != "":
		return ProviderGemini, true
	case claudeModels[model] != "":
		return ProviderAnthropic, true
	case openAIModels[model] != "":
		return ProviderOpenAI, true
	case novaModels[model] != "":
		return ProviderBedrock, true
	}
	return "", false
}

// ModelNames lists every accepted model alias, sorted.
func ModelNames() []string {
	var names []string
	for _, m := range []map[string]string{geminiModels, claudeModels, openAIModels, novaModels} {
		for alias := range m {
			names = append(names, alias)
		}
	}
	sort.Strings(names)
	return names
}

// NewGenerator builds the generator for opts.Model.
func NewGenerator(ctx context.Context, opts Options) (Generator, error) {
	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	provider, ok := ProviderFor(model)
	if !ok {
		return nil, fmt.Errorf("unknown model %q", model)
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiGenerator(model, opts.GeminiAPIKey), nil
	case ProviderAnthropic:
		return NewClaudeGenerator(model, opts.AnthropicAPIKey), nil
	case ProviderOpenAI:
		return NewOpenAIGenerator(model, opts.OpenAIAPIKey, opts.OpenAIBaseURL), nil
	default:
		return NewNovaGenerator(ctx, model, opts.AWSRegion)
	}
}
