package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlpilot/internal/api"
	"github.com/leapstack-labs/sqlpilot/internal/auth"
	"github.com/leapstack-labs/sqlpilot/internal/cli/config"
	"github.com/leapstack-labs/sqlpilot/internal/cli/output"
	"github.com/leapstack-labs/sqlpilot/internal/session"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
	Store    *session.Store
	Client   *api.Client
	Source   *auth.Source
}

// NewCommandContext opens the session store and builds the API client.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	store, err := session.Open(cfg.SessionPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	source := auth.NewSource(store)
	client := api.New(cfg.ServerURL, source, api.WithLogger(logger))

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = store.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
		Store:    store,
		Client:   client,
		Source:   source,
	}, cleanup, nil
}

// RequestContext derives a context honoring the configured request timeout.
func (c *CommandContext) RequestContext(parent context.Context) (context.Context, context.CancelFunc) {
	if c.Cfg.TimeoutSeconds <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, time.Duration(c.Cfg.TimeoutSeconds)*time.Second)
}

// RequireSession returns the active session or an error telling the user
// to log in first.
func (c *CommandContext) RequireSession() (session.Session, error) {
	sess, ok := c.Store.Current()
	if !ok {
		return session.Session{}, fmt.Errorf("not logged in (run 'sqlpilot login' first)")
	}
	return sess, nil
}

// Helper functions shared across commands

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	serverURL := getEnvOrDefault("SQLPILOT_SERVER_URL", config.DefaultServerURL)
	sessionPath := getEnvOrDefault("SQLPILOT_SESSION_PATH", config.DefaultSessionPath())
	limit := config.DefaultHistoryLimit
	if v, err := strconv.Atoi(os.Getenv("SQLPILOT_HISTORY_LIMIT")); err == nil && v > 0 {
		limit = v
	}

	return &config.Config{
		ServerURL:      serverURL,
		SessionPath:    sessionPath,
		HistoryLimit:   limit,
		OutputFormat:   getEnvOrDefault("SQLPILOT_OUTPUT", config.DefaultOutput),
		Verbose:        os.Getenv("SQLPILOT_VERBOSE") == "true",
		TimeoutSeconds: config.DefaultTimeout,
	}
}

func errLoadFailed(what string) error {
	return fmt.Errorf("failed to load %s from server", what)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
