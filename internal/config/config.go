// Package config resolves runtime settings from .env files, the environment
// and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/apresai/convoconnect/internal/mailto"
	"github.com/apresai/convoconnect/internal/script"
)

// Config holds everything the CLI and screen need at startup.
type Config struct {
	Model           string
	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AWSRegion       string
	ShareURL        string
	LogFile         string
	Verbose         bool
}

// ConfigError is a fatal startup problem. The application refuses to
// start while one is present.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Msg)
}

// Load reads the given .env files (".env" when none are named) and then the
// environment. Missing files are not an error; variables already set in the
// environment win over file values.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() Config {
	return Config{
		Model:           envOr("CONVOCONNECT_MODEL", script.DefaultModel),
		GeminiAPIKey:    envOr("GEMINI_API_KEY", os.Getenv("API_KEY")),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
		AWSRegion:       envOr("AWS_REGION", "us-east-1"),
		ShareURL:        envOr("CONVOCONNECT_SHARE_URL", mailto.DefaultShareURL),
		LogFile:         os.Getenv("CONVOCONNECT_LOG_FILE"),
		Verbose:         envBool("CONVOCONNECT_VERBOSE"),
	}
}

// BindFlags registers flags that override c. Current field values become
// the flag defaults, so call it after Load.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.Model, "model", "m", c.Model, "Script generation model: "+joinModels())
	fs.StringVar(&c.GeminiAPIKey, "gemini-api-key", c.GeminiAPIKey, "Gemini API key (overrides GEMINI_API_KEY env var)")
	fs.StringVar(&c.AnthropicAPIKey, "anthropic-api-key", c.AnthropicAPIKey, "Anthropic API key (overrides ANTHROPIC_API_KEY env var)")
	fs.StringVar(&c.OpenAIAPIKey, "openai-api-key", c.OpenAIAPIKey, "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.StringVar(&c.OpenAIBaseURL, "openai-base-url", c.OpenAIBaseURL, "Base URL for an OpenAI-compatible endpoint")
	fs.StringVar(&c.AWSRegion, "aws-region", c.AWSRegion, "AWS region for Bedrock models")
	fs.StringVar(&c.ShareURL, "share-url", c.ShareURL, "Public URL included in the email footer")
	fs.StringVar(&c.LogFile, "log-file", c.LogFile, "Write JSON logs to this file (interactive mode discards logs otherwise)")
	fs.BoolVarP(&c.Verbose, "verbose", "v", c.Verbose, "Enable debug logging")
}

// Validate checks that the selected model is known and that its credential
// is present.
func (c Config) Validate() error {
	provider, ok := script.ProviderFor(c.Model)
	if !ok {
		return &ConfigError{Field: "model", Msg: fmt.Sprintf("unknown model %q (want one of %s)", c.Model, joinModels())}
	}

	switch provider {
	case script.ProviderGemini:
		if c.GeminiAPIKey == "" {
			return &ConfigError{Field: "GEMINI_API_KEY", Msg: "required for model " + c.Model}
		}
	case script.ProviderAnthropic:
		if c.AnthropicAPIKey == "" {
			return &ConfigError{Field: "ANTHROPIC_API_KEY", Msg: "required for model " + c.Model}
		}
	case script.ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return &ConfigError{Field: "OPENAI_API_KEY", Msg: "required for model " + c.Model}
		}
	case script.ProviderBedrock:
		if c.AWSRegion == "" {
			return &ConfigError{Field: "AWS_REGION", Msg: "required for model " + c.Model}
		}
	}
	return nil
}

// ScriptOptions converts c into generator options.
func (c Config) ScriptOptions() script.Options {
	return script.Options{
		Model:           c.Model,
		GeminiAPIKey:    c.GeminiAPIKey,
		AnthropicAPIKey: c.AnthropicAPIKey,
		OpenAIAPIKey:    c.OpenAIAPIKey,
		OpenAIBaseURL:   c.OpenAIBaseURL,
		AWSRegion:       c.AWSRegion,
	}
}

func joinModels() string {
	return strings.Join(script.ModelNames(), ", ")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
