package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/apresai/convoconnect/internal/config"
	"github.com/apresai/convoconnect/internal/workflow"
)

// Config holds server configuration.
type Config struct {
	Port         int
	AWSRegion    string
	SecretPrefix string // e.g. "/convoconnect/mcp/"; empty skips Secrets Manager
	App          config.Config
}

// DefaultConfig returns a Config populated from .env and environment
// variables.
func DefaultConfig() Config {
	port, err := strconv.Atoi(envOr("PORT", "8000"))
	if err != nil {
		port = 8000
	}
	return Config{
		Port:         port,
		AWSRegion:    envOr("AWS_REGION", "us-east-1"),
		SecretPrefix: os.Getenv("SECRET_PREFIX"),
		App:          config.Load(),
	}
}

// Server is the MCP server for practice script generation.
type Server struct {
	cfg      Config
	mcp      *server.MCPServer
	http     *server.StreamableHTTPServer
	handlers *Handlers
	log      *slog.Logger
}

// New creates and configures the MCP server.
func New(ctx context.Context, cfg Config, version string, logger *slog.Logger) (*Server, error) {
	if cfg.SecretPrefix != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.AWSRegion),
		)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		otelaws.AppendMiddlewares(&awsCfg.APIOptions)

		if err := loadSecrets(ctx, awsCfg, cfg.SecretPrefix, logger); err != nil {
			logger.Warn("Failed to load secrets from Secrets Manager, falling back to env vars",
				"error", err)
		}
		// Secrets land in the environment; pick them up.
		reloaded := config.FromEnv()
		cfg.App.GeminiAPIKey = firstNonEmpty(cfg.App.GeminiAPIKey, reloaded.GeminiAPIKey)
		cfg.App.AnthropicAPIKey = firstNonEmpty(cfg.App.AnthropicAPIKey, reloaded.AnthropicAPIKey)
		cfg.App.OpenAIAPIKey = firstNonEmpty(cfg.App.OpenAIAPIKey, reloaded.OpenAIAPIKey)
	}

	// Callers may bring their own key per request, so a missing server
	// credential is only a warning here.
	if err := cfg.App.Validate(); err != nil {
		logger.Warn("Server has no default credential for its model", "error", err)
	}

	handlers := NewHandlers(cfg.App, workflow.DefaultCatalog(), logger)

	mcpServer := server.NewMCPServer(
		"convoconnect",
		version,
		server.WithToolCapabilities(true),
	)

	tools := ToolDefs()
	mcpServer.AddTool(tools[0], handlers.HandleRandomTopic)
	mcpServer.AddTool(tools[1], handlers.HandleGenerateScript)
	mcpServer.AddTool(tools[2], handlers.HandleBuildMailto)

	return &Server{
		cfg:      cfg,
		mcp:      mcpServer,
		http:     server.NewStreamableHTTPServer(mcpServer, server.WithStateLess(true)),
		handlers: handlers,
		log:      logger,
	}, nil
}

// Start runs the HTTP MCP server. It blocks until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info("Starting MCP server", "addr", addr)
	return s.http.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight tool calls.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// loadSecrets fetches API keys from Secrets Manager and sets them as env vars.
func loadSecrets(ctx context.Context, cfg aws.Config, prefix string, logger *slog.Logger) error {
	client := secretsmanager.NewFromConfig(cfg)

	secrets := map[string]string{
		"GEMINI_API_KEY":    prefix + "GEMINI_API_KEY",
		"ANTHROPIC_API_KEY": prefix + "ANTHROPIC_API_KEY",
		"OPENAI_API_KEY":    prefix + "OPENAI_API_KEY",
	}

	for envVar, secretID := range secrets {
		if os.Getenv(envVar) != "" {
			continue
		}

		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: aws.String(secretID),
		})
		if err != nil {
			logger.Info("Secret not found", "secret_id", secretID, "error", err)
			continue
		}
		if result.SecretString != nil {
			os.Setenv(envVar, *result.SecretString)
			logger.Info("Loaded secret", "secret_id", secretID)
		}
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
