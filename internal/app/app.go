package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/flowdbg/internal/ctxlog"
	"github.com/vk/flowdbg/internal/graphdef"
	"github.com/vk/flowdbg/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logW    io.Writer
	logger  *slog.Logger
	config  *Config
	session *session.Session

	httpServer *http.Server
}

// New is the constructor for the main application. It configures an isolated
// logger, loads the graph definition, and installs it into a fresh session.
func New(outW, logW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	def, err := graphdef.Load(ctx, cfg.GraphPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph definition: %w", err)
	}
	logger.Debug("Graph definition loaded.", "nodes", len(def.Nodes))

	sess := session.New()
	if err := sess.Create(ctx, def); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &App{
		outW:    outW,
		logW:    logW,
		logger:  logger,
		config:  cfg,
		session: sess,
	}, nil
}

// Session returns the application's session. This is primarily for testing.
func (a *App) Session() *session.Session {
	return a.session
}
