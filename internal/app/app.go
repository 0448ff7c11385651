// Package app wires the content sync server together and runs it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stacklok/content-sync-server/internal/config"
)

// ContentSyncApp is a built server: the API in front of the scheduler, and
// the coordinator driving the task runners and sweeps behind it.
type ContentSyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	ctx context.Context
	// cancelFunc also releases the storage backend and an owned Redis client
	cancelFunc context.CancelFunc
}

// Start binds the listen address, then serves the API while the coordinator
// runs. It blocks until Stop is called or either side fails; a failure of
// one side stops the other.
func (app *ContentSyncApp) Start() error {
	ln, err := net.Listen("tcp", app.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", app.httpServer.Addr, err)
	}
	slog.Info("Server listening", "address", ln.Addr().String())

	runCtx, stopRunners := context.WithCancel(app.ctx)
	defer stopRunners()

	var g errgroup.Group
	g.Go(func() error {
		if err := app.components.SyncCoordinator.Start(runCtx); err != nil {
			_ = app.httpServer.Close()
			return fmt.Errorf("sync coordinator failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		err := app.httpServer.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		stopRunners()
		return fmt.Errorf("HTTP server failed: %w", err)
	})
	return g.Wait()
}

// Stop shuts the API down first so no new events arrive, then drains the
// coordinator and releases the backends. In-flight requests get timeout.
func (app *ContentSyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server", "timeout", timeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	shutdownErr := app.httpServer.Shutdown(shutdownCtx)

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if shutdownErr != nil {
		return fmt.Errorf("server forced to shutdown: %w", shutdownErr)
	}
	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *ContentSyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *ContentSyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetComponents returns the application components
func (app *ContentSyncApp) GetComponents() *AppComponents {
	return app.components
}
