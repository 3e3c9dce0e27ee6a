package main

import (
	"context"
	"flag"
	"log"
	"net/http"

	"graft/internal/api"
	"graft/internal/logging"
	"graft/internal/middleware"
	"graft/internal/repo"
	"graft/internal/settings"

	"go.uber.org/zap"
)

func main() {
	var (
		addr = flag.String("addr", "127.0.0.1:8844", "listen address")
		dir  = flag.String("dir", ".", "workspace directory to serve")
	)
	flag.Parse()

	// Load configuration
	cfg, err := settings.LoadUser()
	if err != nil {
		log.Fatal("failed to load settings:", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Open the workspace; the watcher keeps snapshots cheap while serving.
	r, err := repo.Open(context.Background(), *dir,
		repo.WithSettings(cfg),
		repo.WithLogger(logger),
		repo.WithWatcher(),
	)
	if err != nil {
		logger.Fatal("failed to open repository", zap.Error(err))
	}
	defer r.Close()

	server := api.NewServer(r, logger)

	// Apply middleware
	handler := middleware.Chain(
		server.Routes(),
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recover(logger),
	)

	// Start server
	logger.Info("starting server",
		zap.String("address", *addr),
		zap.String("workspace", r.CurrentWorkspace()),
		zap.String("root", r.Root()),
	)

	if err := http.ListenAndServe(*addr, handler); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
