// Package main is the entry point for the GoalRaiders API server. It
// loads configuration, sets up logging, and hands off to internal/server;
// all application logic lives in the imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goalraiders/goalraiders/internal/config"
	"github.com/goalraiders/goalraiders/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		// Generate one with: openssl rand -hex 32
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}

	// The SQLite file lives under a directory that may not exist yet on a
	// fresh deployment.
	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "." {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
