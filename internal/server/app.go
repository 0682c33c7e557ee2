package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/philly/devtools-relay/internal/platform/logger"
)

const shutdownTimeout = 10 * time.Second

// Version is reported by the health endpoints. Overridden at build time with
// -ldflags "-X github.com/philly/devtools-relay/internal/server.Version=...".
var Version = "dev"

type App struct {
	server *http.Server
	config Config
	logger logger.Logger
}

func NewApp(server *http.Server, config Config, log logger.Logger) *App {
	return &App{
		server: server,
		config: config,
		logger: log,
	}
}

// Run starts the application and handles graceful shutdown
func (a *App) Run() error {
	ctx := context.Background()

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrors := make(chan error, 1)
	go func() {
		a.logger.Info(ctx, "starting server",
			"address", a.server.Addr,
			"environment", a.config.Environment,
		)
		serverErrors <- a.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-sigChan:
		a.logger.Info(ctx, "received signal, shutting down server", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to gracefully shutdown server: %w", err)
		}
	}

	a.logger.Info(ctx, "server stopped")
	return nil
}
