package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"ReviewHarvester/internal/config"
	"ReviewHarvester/internal/infrastructure/feed"
	"ReviewHarvester/internal/infrastructure/llm"
	"ReviewHarvester/internal/infrastructure/scheduler"
	"ReviewHarvester/internal/infrastructure/storage"
	"ReviewHarvester/internal/infrastructure/telegram"
	"ReviewHarvester/internal/ingest"
	"ReviewHarvester/internal/logging"
	"ReviewHarvester/internal/metrics"
	"ReviewHarvester/internal/ports"
	"ReviewHarvester/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	metrics  *metrics.Metrics
	pipeline *usecase.Pipeline
}

// New opens the store and builds the pipeline. The caller must Close the
// application.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging)
	}

	policy, err := ingest.NewRegistry().Resolve(cfg.Ingest.ReviewPolicy)
	if err != nil {
		return nil, err
	}

	if cfg.Database.Migrate {
		if err := storage.MigrateUp(cfg.Database); err != nil {
			return nil, err
		}
	}

	db, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	repo := storage.NewRepository(db, cfg.Database.Driver)

	source := feed.NewOhouFeed(nil, cfg.Feed, baseLogger.With("component", "feed"))
	harvester := usecase.NewHarvester(source, cfg.Feed.Pages, cfg.Feed.Workers, baseLogger.With("component", "harvester"))
	ingestor := usecase.NewIngestor(harvester, repo, policy, baseLogger.With("component", "ingest"))

	var analyzer *usecase.Analyzer
	if cfg.ChatGPT.APIKey != "" {
		classifier := usecase.NewClassificationPipeline(
			llm.NewChatGPTClient(cfg.ChatGPT),
			cfg.Analysis.Workers,
			baseLogger.With("component", "classifier"),
		)
		analyzer = usecase.NewAnalyzer(
			repo,
			classifier,
			cfg.Analysis.Exclude,
			cfg.Analysis.SkipAnalyzedReviews(),
			cfg.Analysis.BatchSize,
			baseLogger.With("component", "analyze"),
		)
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID)
	}

	m := metrics.New()

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Ingestor:   ingestor,
		Normalizer: repo,
		Analyzer:   analyzer,
		Notifier:   notifier,
		Observer:   m,
		Stages:     cfg.Pipeline.StageEnabled,
		Timeout:    cfg.Pipeline.Timeout,
		Logger:     baseLogger.With("component", "pipeline"),
	})

	return &Application{cfg: cfg, logger: baseLogger, db: db, metrics: m, pipeline: pipeline}, nil
}

// Run performs a single pipeline execution, or in daemon mode repeats it on
// the configured interval until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if a.cfg.Metrics.Addr != "" {
		a.metrics.Serve(ctx, a.cfg.Metrics.Addr, a.logger.With("component", "metrics"))
	}

	if !a.cfg.Scheduler.Daemon {
		report, err := a.pipeline.Run(ctx)
		if err != nil {
			return fmt.Errorf("run %s: %w", report.RunID, err)
		}
		return nil
	}

	driver := scheduler.NewIntervalScheduler(a.cfg.Scheduler.Interval)
	sched := usecase.NewScheduler(driver, a.pipeline, a.logger.With("component", "scheduler"))
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info("daemon started",
		"interval", a.cfg.Scheduler.Interval,
		"timezone", a.cfg.Scheduler.Location().String())

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info("daemon stopped")
	return nil
}

// Close releases the database handle.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
