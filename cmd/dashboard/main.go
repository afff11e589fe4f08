package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"ReviewHarvester/internal/config"
	"ReviewHarvester/internal/infrastructure/storage"
	"ReviewHarvester/internal/logging"
	"ReviewHarvester/internal/metrics"
	"ReviewHarvester/internal/viewer"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := logging.New(cfg.Logging)

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	gin.SetMode(gin.ReleaseMode)
	repo := storage.NewRepository(db, cfg.Database.Driver)
	router := viewer.NewRouter(
		viewer.NewHandler(repo, logger.With("component", "viewer")),
		metrics.New(),
	)

	srv := &http.Server{
		Addr:              cfg.Dashboard.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("dashboard listening", "addr", cfg.Dashboard.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("dashboard stopped", "error", err)
		os.Exit(1)
	}
}
