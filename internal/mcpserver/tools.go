package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/apresai/convoconnect/internal/config"
	"github.com/apresai/convoconnect/internal/mailto"
	"github.com/apresai/convoconnect/internal/script"
	"github.com/apresai/convoconnect/internal/workflow"
)

var tracer = otel.Tracer("convoconnect-mcp")

// ToolDefs returns the MCP tool definitions.
func ToolDefs() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "random_topic",
			Description: "Pick a random discussion topic for a couple's speaker-listener practice session.",
			InputSchema: mcp.ToolInputSchema{
				Type:       "object",
				Properties: map[string]any{},
			},
		},
		{
			Name:        "generate_practice_script",
			Description: "Generate a two-round speaker-listener practice script for a couple. Returns the script text, its labeled turns and the index where roles switch.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"topic": map[string]any{
						"type":        "string",
						"description": "What the couple wants to talk about",
					},
					"random": map[string]any{
						"type":        "boolean",
						"description": "Use a random built-in topic instead of 'topic'",
						"default":     false,
					},
					"model": map[string]any{
						"type":        "string",
						"description": "Script generation model: gemini-flash, gemini-pro, haiku, sonnet, gpt, gpt-full, nova-lite",
						"default":     script.DefaultModel,
					},
					"partner_email": map[string]any{
						"type":        "string",
						"description": "If set, the result includes a mailto link that sends the script to this address",
					},
					"gemini_api_key": map[string]any{
						"type":        "string",
						"description": "Your Gemini API key (required for gemini models if server has no default key)",
					},
					"anthropic_api_key": map[string]any{
						"type":        "string",
						"description": "Your Anthropic API key (required for haiku/sonnet if server has no default key)",
					},
					"openai_api_key": map[string]any{
						"type":        "string",
						"description": "Your OpenAI API key (required for gpt models if server has no default key)",
					},
				},
			},
		},
		{
			Name:        "build_mailto_link",
			Description: "Build a mailto: link that emails a practice script to a partner, with the standard subject and footer.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"email": map[string]any{
						"type":        "string",
						"description": "Partner's email address",
					},
					"topic": map[string]any{
						"type":        "string",
						"description": "Topic used for the subject line",
					},
					"script": map[string]any{
						"type":        "string",
						"description": "Practice script text",
					},
				},
				Required: []string{"email", "topic", "script"},
			},
		},
	}
}

// GeneratorFactory builds a generator for one request.
type GeneratorFactory func(ctx context.Context, opts script.Options) (script.Generator, error)

// Handlers contains tool handler implementations.
type Handlers struct {
	defaults     config.Config
	catalog      *workflow.Catalog
	newGenerator GeneratorFactory
	log          *slog.Logger
}

// NewHandlers creates tool handlers. defaults supplies the model, keys and
// share URL used when a request does not override them.
func NewHandlers(defaults config.Config, catalog *workflow.Catalog, logger *slog.Logger) *Handlers {
	return &Handlers{
		defaults:     defaults,
		catalog:      catalog,
		newGenerator: script.NewGenerator,
		log:          logger,
	}
}

// HandleRandomTopic returns one catalog topic.
func (h *Handlers) HandleRandomTopic(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.random_topic")
	defer span.End()

	topic := h.catalog.Random()
	span.SetAttributes(attribute.String("topic", topic))
	return jsonResult(map[string]any{"topic": topic})
}

// turnResult is one labeled turn in a generate_practice_script result.
type turnResult struct {
	Index   int    `json:"index"`
	Partner string `json:"partner"`
	Role    string `json:"role"`
	Label   string `json:"label"`
	Text    string `json:"text"`
}

// HandleGenerateScript runs one generation through a fresh workflow
// controller, so concurrent calls never share state.
func (h *Handlers) HandleGenerateScript(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.generate_practice_script")
	defer span.End()

	opts := h.defaults
	opts.Model = mcp.ParseString(req, "model", opts.Model)
	opts.GeminiAPIKey = mcp.ParseString(req, "gemini_api_key", opts.GeminiAPIKey)
	opts.AnthropicAPIKey = mcp.ParseString(req, "anthropic_api_key", opts.AnthropicAPIKey)
	opts.OpenAIAPIKey = mcp.ParseString(req, "openai_api_key", opts.OpenAIAPIKey)

	topic := mcp.ParseString(req, "topic", "")
	random := mcp.ParseBoolean(req, "random", false)
	email := mcp.ParseString(req, "partner_email", "")

	span.SetAttributes(
		attribute.String("model", opts.Model),
		attribute.Bool("random", random),
	)

	if topic == "" && !random {
		span.SetStatus(codes.Error, "missing topic")
		return mcp.NewToolResultError("either topic or random=true is required"), nil
	}
	if err := opts.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid configuration")
		return mcp.NewToolResultError(err.Error()), nil
	}

	gen, err := h.newGenerator(ctx, opts.ScriptOptions())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create generator failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to create generator: %v", err)), nil
	}

	ctrl := workflow.NewController(h.catalog, gen)
	picked, err := ctrl.RequestTopic()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !random {
		picked = topic
		if err := ctrl.EditTopic(topic); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	if !ctrl.CanSubmit() {
		span.SetStatus(codes.Error, "blank topic")
		return mcp.NewToolResultError("topic must not be blank"), nil
	}
	span.SetAttributes(attribute.String("topic", picked))

	text, err := ctrl.Generate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		var genErr *script.GenerationError
		if errors.As(err, &genErr) {
			return mcp.NewToolResultError(genErr.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}

	tr := script.Parse(text)
	turns := make([]turnResult, 0, len(tr.Lines))
	for i, l := range tr.Lines {
		if !l.IsTurn() {
			continue
		}
		turns = append(turns, turnResult{
			Index:   i,
			Partner: string(l.Partner),
			Role:    string(l.Role),
			Label:   l.Label,
			Text:    l.Text,
		})
	}
	span.SetAttributes(attribute.Int("turns", len(turns)))
	h.log.InfoContext(ctx, "Practice script generated", "model", opts.Model, "turns", len(turns))

	result := map[string]any{
		"topic":        picked,
		"script":       text,
		"turns":        turns,
		"switch_index": tr.SwitchIndex,
		"line_count":   len(tr.Lines),
	}
	if email != "" {
		if err := ctrl.SetPartnerEmail(email); err == nil {
			if link, err := ctrl.Mailto(opts.ShareURL); err == nil {
				result["mailto"] = link
			}
		}
	}
	return jsonResult(result)
}

// HandleBuildMailto returns a share link for an existing script.
func (h *Handlers) HandleBuildMailto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.build_mailto_link")
	defer span.End()

	email := mcp.ParseString(req, "email", "")
	topic := mcp.ParseString(req, "topic", "")
	text := mcp.ParseString(req, "script", "")

	if email == "" {
		span.SetStatus(codes.Error, "missing email")
		return mcp.NewToolResultError("email is required"), nil
	}

	link := mailto.Build(email, mailto.Subject(topic), mailto.Body(text, h.defaults.ShareURL))
	return jsonResult(map[string]any{"mailto": link})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
