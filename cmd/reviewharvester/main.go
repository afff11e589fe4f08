package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"ReviewHarvester/internal/app"
	"ReviewHarvester/internal/config"
	"ReviewHarvester/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("application setup failed", "error", err)
		os.Exit(1)
	}

	err = application.Run(ctx)
	if cerr := application.Close(); cerr != nil {
		logger.Warn("close database", "error", cerr)
	}
	if err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}
