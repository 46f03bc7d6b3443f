package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.5-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type GeminiGenerator struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewGeminiGenerator(model, apiKey string) *GeminiGenerator {
	return &GeminiGenerator{
		model:      model,
		apiKey:     apiKey,
		baseURL:    geminiBaseURL,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// WithBaseURL points the generator at another endpoint (tests, proxies).
func (g *GeminiGenerator) WithBaseURL(baseURL string) *GeminiGenerator {
	g.baseURL = baseURL
	return g
}

// geminiTextRequest is the request body for Gemini text generation.
type geminiTextRequest struct {
	Contents []geminiTextContent `json:"contents"`
}

type geminiTextContent struct {
	Role  string           `json:"role,omitempty"`
	Parts []geminiTextPart `json:"parts"`
}

type geminiTextPart struct {
	Text string `json:"text"`
}

// geminiTextResponse is the response from Gemini generateContent (text mode).
type geminiTextResponse struct {
	Candidates []struct {
		Content geminiTextContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiGenerator) modelID() string {
	if id := geminiModels[g.model]; id != "" {
		return id
	}
	return geminiModels[DefaultModel]
}

func (g *GeminiGenerator) Generate(ctx context.Context, topic string) (string, error) {
	modelID := g.modelID()
	return observe(ctx, ProviderGemini, modelID, topic, func(ctx context.Context) (string, error) {
		return g.doRequest(ctx, modelID, geminiTextRequest{
			Contents: []geminiTextContent{
				{Role: "user", Parts: []geminiTextPart{{Text: BuildPrompt(topic)}}},
			},
		})
	})
}

func (g *GeminiGenerator) doRequest(ctx context.Context, modelID string, reqBody geminiTextRequest) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, modelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("Gemini API error (status %d): %s", res.StatusCode, string(errBody))
	}

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var resp geminiTextResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("response contained no candidates")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return text, nil
}
