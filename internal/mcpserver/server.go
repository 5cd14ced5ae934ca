package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lumenworks/sage/internal/artifact"
	"github.com/lumenworks/sage/internal/genai"
	"github.com/lumenworks/sage/internal/job"
	"github.com/lumenworks/sage/internal/router"
	"github.com/lumenworks/sage/internal/session"
)

// Config holds server configuration.
type Config struct {
	Port         int
	S3Bucket     string
	CDNBaseURL   string
	AWSRegion    string
	TextModel    string
	RouterModel  string
	VideoModel   string
	MaxJobs      int
	SecretPrefix string // e.g. "/sage/mcp/"
}

// DefaultConfig returns a Config populated from environment variables.
func DefaultConfig() Config {
	return Config{
		Port:         8000,
		S3Bucket:     envOr("S3_BUCKET", ""),
		CDNBaseURL:   envOr("CDN_BASE_URL", "https://videos.lumenworks.dev"),
		AWSRegion:    envOr("AWS_REGION", "us-east-1"),
		TextModel:    envOr("SAGE_TEXT_MODEL", "gemini-flash"),
		RouterModel:  envOr("SAGE_ROUTER_MODEL", "gemini-flash"),
		VideoModel:   envOr("SAGE_VIDEO_MODEL", ""),
		MaxJobs:      5,
		SecretPrefix: envOr("SECRET_PREFIX", "/sage/mcp/"),
	}
}

// Server is the MCP server for persona conversations.
type Server struct {
	cfg      Config
	mcp      *server.MCPServer
	handlers *Handlers
	log      *slog.Logger
}

// New creates and configures the MCP server. baseCtx bounds the
// lifetime of background video jobs.
func New(baseCtx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(baseCtx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	// Fetch secrets if running in AWS
	if cfg.SecretPrefix != "" {
		if err := loadSecrets(baseCtx, awsCfg, cfg.SecretPrefix, logger); err != nil {
			logger.Warn("Failed to load secrets from Secrets Manager, falling back to env vars",
				"error", err)
		}
	}

	gemini, err := genai.NewGeminiClient(os.Getenv("GEMINI_API_KEY"), cfg.TextModel, cfg.VideoModel)
	if err != nil {
		return nil, err
	}

	sink, err := buildSink(cfg, awsCfg, gemini)
	if err != nil {
		return nil, err
	}

	convs := NewConvStore(session.GeminiProvider{Client: gemini}, logger)
	jobs := NewJobStore()
	taskMgr := NewTaskManager(jobs, gemini, sink, cfg.MaxJobs, logger, baseCtx)

	routerGen, err := routerGenerator(baseCtx, cfg.RouterModel, gemini)
	if err != nil {
		return nil, err
	}
	rtr := router.New(routerGen, logger)

	handlers := NewHandlers(convs, taskMgr, jobs, rtr, logger)

	mcpServer := server.NewMCPServer(
		"sage",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	tools := ToolDefs()
	mcpServer.AddTool(tools[0], handlers.HandleListPersonas)
	mcpServer.AddTool(tools[1], handlers.HandleRouteQuestion)
	mcpServer.AddTool(tools[2], handlers.HandleAskPersona)
	mcpServer.AddTool(tools[3], handlers.HandleGetVideoJob)
	mcpServer.AddTool(tools[4], handlers.HandleListVideoJobs)
	mcpServer.AddTool(tools[5], handlers.HandleCancelVideoJob)

	return &Server{
		cfg:      cfg,
		mcp:      mcpServer,
		handlers: handlers,
		log:      logger,
	}, nil
}

// buildSink picks where finished videos land: S3 behind a CDN when a
// bucket is configured, local disk otherwise.
func buildSink(cfg Config, awsCfg aws.Config, gemini *genai.GeminiClient) (job.Materializer, error) {
	if cfg.S3Bucket != "" {
		return NewStorage(s3.NewFromConfig(awsCfg), gemini, cfg.S3Bucket, cfg.CDNBaseURL), nil
	}
	dir := envOr("SAGE_VIDEOS_DIR", filepath.Join(os.TempDir(), "sage-videos"))
	store, err := artifact.NewStore(dir, gemini)
	if err != nil {
		return nil, fmt.Errorf("create video dir: %w", err)
	}
	return store, nil
}

// routerGenerator builds the text generator used for persona routing.
// Claude and Nova models are available alongside the Gemini default.
func routerGenerator(ctx context.Context, model string, gemini *genai.GeminiClient) (genai.TextGenerator, error) {
	switch model {
	case "haiku", "sonnet":
		return genai.NewClaudeGenerator(model), nil
	case "nova-lite":
		return genai.NewNovaGenerator(ctx, model)
	default:
		return gemini, nil
	}
}

// Start runs the HTTP MCP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.log.Info("Starting MCP server", "addr", addr)

	httpServer := server.NewStreamableHTTPServer(s.mcp,
		server.WithStateLess(true),
	)
	return httpServer.Start(addr)
}

// loadSecrets fetches API keys from Secrets Manager and sets them as env vars.
func loadSecrets(ctx context.Context, cfg aws.Config, prefix string, logger *slog.Logger) error {
	client := secretsmanager.NewFromConfig(cfg)

	secrets := map[string]string{
		"GEMINI_API_KEY":    prefix + "GEMINI_API_KEY",
		"ANTHROPIC_API_KEY": prefix + "ANTHROPIC_API_KEY",
	}

	for envVar, secretID := range secrets {
		// Skip if already set in environment
		if os.Getenv(envVar) != "" {
			continue
		}

		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: &secretID,
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
