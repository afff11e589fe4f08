package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
	"ReviewHarvester/internal/textproc"
)

// DefaultAnalysisBatch is the number of reviews classified before their
// results are committed.
const DefaultAnalysisBatch = 20

// Analyzer selects stored reviews, classifies them and persists the results.
type Analyzer struct {
	repo         ports.AnalysisRepository
	pipeline     *ClassificationPipeline
	exclude      []string
	skipAnalyzed bool
	batchSize    int
	logger       *slog.Logger
}

// NewAnalyzer builds the analyze stage. A nil exclude list falls back to the
// storefront's canned review texts. Results are committed every batchSize
// reviews, so an interrupted run keeps the batches it finished.
func NewAnalyzer(repo ports.AnalysisRepository, pipeline *ClassificationPipeline, exclude []string, skipAnalyzed bool, batchSize int, logger *slog.Logger) *Analyzer {
	if exclude == nil {
		exclude = textproc.DefaultBoilerplate
	}
	if batchSize <= 0 {
		batchSize = DefaultAnalysisBatch
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{
		repo:         repo,
		pipeline:     pipeline,
		exclude:      exclude,
		skipAnalyzed: skipAnalyzed,
		batchSize:    batchSize,
		logger:       logger,
	}
}

// Run performs one analyze pass and records its counters on report.
func (a *Analyzer) Run(ctx context.Context, report *domain.RunReport) error {
	reviews, err := a.repo.SelectAnalyzableReviews(ctx, a.exclude)
	if err != nil {
		return fmt.Errorf("select reviews: %w", err)
	}
	report.ReviewsSelected = len(reviews)

	if a.skipAnalyzed && len(reviews) > 0 {
		analyzed, err := a.repo.AnalyzedReviewIDs(ctx)
		if err != nil {
			return fmt.Errorf("load analyzed reviews: %w", err)
		}
		pending := reviews[:0:0]
		for _, r := range reviews {
			if !analyzed[r.ReviewID] {
				pending = append(pending, r)
			}
		}
		a.logger.Debug("analyzed reviews filtered", "selected", len(reviews), "pending", len(pending))
		reviews = pending
	}

	for start := 0; start < len(reviews); start += a.batchSize {
		end := min(start+a.batchSize, len(reviews))
		if err := a.runBatch(ctx, reviews[start:end], report); err != nil {
			a.logger.Warn("analysis interrupted",
				"committed_reviews", start,
				"pending_reviews", len(reviews)-start,
				"error", err)
			return err
		}
	}

	a.logger.Info("analysis finished",
		"reviews", len(reviews),
		"sentences", report.Analysis.Sentences,
		"keywords", report.Analysis.Keywords,
		"already_analyzed", report.Analysis.AlreadyAnalyzed,
		"unknown_categories", report.Analysis.UnknownCategories,
		"classifier_failures", report.ClassifierFailures)
	return nil
}

func (a *Analyzer) runBatch(ctx context.Context, batch []domain.AnalyzableReview, report *domain.RunReport) error {
	results, failures, err := a.pipeline.Classify(ctx, batch)
	report.ClassifierFailures += failures
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	stats, err := a.repo.PersistAnalysis(ctx, results)
	report.Analysis.Sentences += stats.Sentences
	report.Analysis.Keywords += stats.Keywords
	report.Analysis.AlreadyAnalyzed += stats.AlreadyAnalyzed
	report.Analysis.UnknownCategories += stats.UnknownCategories
	if err != nil {
		return fmt.Errorf("persist analysis: %w", err)
	}
	return nil
}
