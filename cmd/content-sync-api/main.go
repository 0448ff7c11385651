// Package main is the entry point for the content sync server.
package main

import (
	"log/slog"
	"os"

	"github.com/stacklok/content-sync-server/cmd/content-sync-api/app"
	"github.com/stacklok/content-sync-server/internal/config"
	"github.com/stacklok/content-sync-server/internal/logging"
)

func main() {
	settings, warnings := logging.FromEnv(config.EnvPrefix)
	// stderr keeps stdout clean for commands that print data (version --json)
	slog.SetDefault(logging.New(os.Stderr, settings))
	for _, w := range warnings {
		slog.Warn(w)
	}

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
