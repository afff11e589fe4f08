package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
)

// Stage names accepted in pipeline configuration.
const (
	StageIngest    = "ingest"
	StageNormalize = "normalize"
	StageAnalyze   = "analyze"
)

// RunObserver receives the report of every finished run.
type RunObserver interface {
	ObserveRun(report domain.RunReport, err error)
}

// PipelineDeps wires all driven adapters into the orchestration pipeline.
// A nil Ingestor or Analyzer disables that stage.
type PipelineDeps struct {
	Ingestor   *Ingestor
	Normalizer ports.IngestRepository
	Analyzer   *Analyzer
	Notifier   ports.Notifier
	Observer   RunObserver
	Stages     func(name string) bool
	Timeout    time.Duration
	Logger     *slog.Logger
}

// Pipeline runs ingest, normalize and analyze in order, one run at a time.
type Pipeline struct {
	ingestor   *Ingestor
	normalizer ports.IngestRepository
	analyzer   *Analyzer
	notifier   ports.Notifier
	observer   RunObserver
	stages     func(name string) bool
	timeout    time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	stages := deps.Stages
	if stages == nil {
		stages = func(string) bool { return true }
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		ingestor:   deps.Ingestor,
		normalizer: deps.Normalizer,
		analyzer:   deps.Analyzer,
		notifier:   deps.Notifier,
		observer:   deps.Observer,
		stages:     stages,
		timeout:    deps.Timeout,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one pass of every enabled stage. A stage error stops the
// run; work committed by earlier stages stays committed.
func (p *Pipeline) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     uuid.NewString(),
		StartedAt: p.now(),
	}
	logger := p.logger.With("run_id", report.RunID)

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	logger.Info("run started")
	err := p.runStages(ctx, &report, logger)
	report.Duration = p.now().Sub(report.StartedAt)

	if err != nil {
		logger.Error("run failed", "error", err, "duration", report.Duration)
	} else {
		logger.Info("run finished", "duration", report.Duration)
	}

	if p.observer != nil {
		p.observer.ObserveRun(report, err)
	}

	if p.notifier != nil && err == nil {
		// the run context may be spent; give the notification its own budget
		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		if nErr := p.notifier.PublishReport(notifyCtx, report); nErr != nil {
			logger.Warn("run report not delivered", "error", nErr)
		}
		cancel()
	}

	return report, err
}

func (p *Pipeline) runStages(ctx context.Context, report *domain.RunReport, logger *slog.Logger) error {
	if p.stages(StageIngest) {
		if p.ingestor == nil {
			logger.Warn("ingest stage not configured")
		} else if err := p.ingestor.Run(ctx, report); err != nil {
			return fmt.Errorf("%s: %w", StageIngest, err)
		}
	}

	if p.stages(StageNormalize) && p.normalizer != nil {
		n, err := p.normalizer.NormalizeProductNames(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", StageNormalize, err)
		}
		report.NormalizedProducts = n
		logger.Info("product names normalized", "products", n)
	}

	if p.stages(StageAnalyze) {
		if p.analyzer == nil {
			logger.Warn("analyze stage skipped: no classifier configured")
		} else if err := p.analyzer.Run(ctx, report); err != nil {
			return fmt.Errorf("%s: %w", StageAnalyze, err)
		}
	}

	return nil
}
