package script

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleScript = "Partner A (Speaker): I feel stretched thin.\nPartner B (Listener): So what I'm hearing is..."

func assertGenerationFailure(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)

	var genErr *GenerationError
	require.True(t, errors.As(err, &genErr), "want *GenerationError, got %T", err)
	assert.Equal(t, FailureMessage, err.Error())
	assert.NotNil(t, errors.Unwrap(err))
}

func TestGeminiGenerate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var body geminiTextRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if assert.Len(t, body.Contents, 1) && assert.Len(t, body.Contents[0].Parts, 1) {
			assert.Equal(t, BuildPrompt("chores"), body.Contents[0].Parts[0].Text)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Partner A (Speaker): I feel stretched thin.\n"},{"text":"Partner B (Listener): So what I'm hearing is..."}]}}]}`)
	}))
	defer srv.Close()

	g := NewGeminiGenerator("gemini-flash", "test-key").WithBaseURL(srv.URL)
	text, err := g.Generate(context.Background(), "chores")

	require.NoError(t, err)
	assert.Equal(t, sampleScript, text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeminiGenerateEmptySuccessIsValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[{"content":{"parts":[]}}]}`)
	}))
	defer srv.Close()

	text, err := NewGeminiGenerator("gemini-pro", "k").WithBaseURL(srv.URL).Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGeminiGenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, `{"error":{"message":"boom"}}`)
		}},
		{"quota", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"auth", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `not json`)
		}},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"candidates":[]}`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			_, err := NewGeminiGenerator("gemini-flash", "k").WithBaseURL(srv.URL).Generate(context.Background(), "x")
			assertGenerationFailure(t, err)
			assert.Equal(t, int32(1), calls.Load(), "no retries")
		})
	}
}

func TestGeminiGenerateNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewGeminiGenerator("gemini-flash", "k").WithBaseURL(url).Generate(context.Background(), "x")
	assertGenerationFailure(t, err)
}

func TestClaudeGenerate(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/messages", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-haiku-4-5-20251001", body["model"])

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":          "msg_01",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"content":     []map[string]any{{"type": "text", "text": sampleScript}},
			"usage":       map[string]any{"input_tokens": 10, "output_tokens": 20},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewClaudeGenerator("haiku", "test-key", option.WithBaseURL(srv.URL+"/"))
	text, err := g.Generate(context.Background(), "chores")

	require.NoError(t, err)
	assert.Equal(t, sampleScript, text)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClaudeGenerateFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"type":"error","error":{"type":"api_error","message":"overloaded"}}`)
	}))
	defer srv.Close()

	g := NewClaudeGenerator("sonnet", "test-key", option.WithBaseURL(srv.URL+"/"))
	_, err := g.Generate(context.Background(), "chores")

	assertGenerationFailure(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o-mini", body["model"])

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": sampleScript},
				"finish_reason": "stop",
			}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("gpt", "test-key", srv.URL+"/v1")
	text, err := g.Generate(context.Background(), "chores")

	require.NoError(t, err)
	assert.Equal(t, sampleScript, text)
}

func TestOpenAIGenerateFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := NewOpenAIGenerator("gpt", "bad", srv.URL+"/v1").Generate(context.Background(), "chores")
	assertGenerationFailure(t, err)
}

func TestExtractNovaText(t *testing.T) {
	out := &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Role: types.ConversationRoleAssistant,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: "Partner A (Speaker): one\n"},
					&types.ContentBlockMemberText{Value: "Partner B (Listener): two"},
				},
			},
		},
	}
	assert.Equal(t, "Partner A (Speaker): one\nPartner B (Listener): two", extractNovaText(out))
	assert.Empty(t, extractNovaText(&bedrockruntime.ConverseOutput{}))
	assert.Empty(t, extractNovaText(nil))
}

func TestProviderFor(t *testing.T) {
	tests := []struct {
		model string
		want  string
		ok    bool
	}{
		{"gemini-flash", ProviderGemini, true},
		{"gemini-pro", ProviderGemini, true},
		{"haiku", ProviderAnthropic, true},
		{"sonnet", ProviderAnthropic, true},
		{"gpt", ProviderOpenAI, true},
		{"nova-lite", ProviderBedrock, true},
		{"llama", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, ok := ProviderFor(tt.model)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewGenerator(t *testing.T) {
	ctx := context.Background()

	g, err := NewGenerator(ctx, Options{GeminiAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &GeminiGenerator{}, g)

	g, err = NewGenerator(ctx, Options{Model: "sonnet", AnthropicAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &ClaudeGenerator{}, g)

	g, err = NewGenerator(ctx, Options{Model: "gpt", OpenAIAPIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &OpenAIGenerator{}, g)

	_, err = NewGenerator(ctx, Options{Model: "llama"})
	assert.Error(t, err)
}

func TestModelNames(t *testing.T) {
	names := ModelNames()
	assert.Contains(t, names, DefaultModel)
	assert.Contains(t, names, "haiku")
	assert.Contains(t, names, "nova-lite")
	assert.IsIncreasing(t, names)
}
