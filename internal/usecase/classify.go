package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
	"ReviewHarvester/internal/textproc"
)

// ClassificationPipeline splits reviews into sentences and runs the
// category, keyword and sentiment stages on each.
type ClassificationPipeline struct {
	classifier ports.Classifier
	workers    int
	logger     *slog.Logger
}

// NewClassificationPipeline allows up to workers sentences in flight.
func NewClassificationPipeline(classifier ports.Classifier, workers int, logger *slog.Logger) *ClassificationPipeline {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ClassificationPipeline{classifier: classifier, workers: workers, logger: logger}
}

type sentence struct {
	review  domain.AnalyzableReview
	ordinal int
	text    string
}

// Classify returns one result per sentence that matched a category, in
// review order then sentence order, and the number of sentences dropped
// because a classifier call failed.
func (p *ClassificationPipeline) Classify(ctx context.Context, reviews []domain.AnalyzableReview) ([]domain.AnalysisResult, int, error) {
	var jobs []sentence
	for _, r := range reviews {
		for i, text := range textproc.SplitSentences(r.Comment) {
			jobs = append(jobs, sentence{review: r, ordinal: i, text: text})
		}
	}

	slots := make([]*domain.AnalysisResult, len(jobs))
	var failures atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := p.classifySentence(gctx, job)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failures.Add(1)
				p.logger.Warn("sentence skipped",
					"review_id", job.review.ReviewID,
					"ordinal", job.ordinal,
					"error", err)
				return nil
			}
			slots[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, int(failures.Load()), err
	}

	results := make([]domain.AnalysisResult, 0, len(slots))
	for _, res := range slots {
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, int(failures.Load()), nil
}

// classifySentence returns nil for a sentence outside every category.
func (p *ClassificationPipeline) classifySentence(ctx context.Context, s sentence) (*domain.AnalysisResult, error) {
	category, err := p.classifier.Category(ctx, s.text)
	if err != nil {
		return nil, fmt.Errorf("category: %w", err)
	}
	if domain.IsNoCategory(category) {
		return nil, nil
	}

	keywords, err := p.classifier.Keywords(ctx, s.text)
	if err != nil {
		return nil, fmt.Errorf("keywords: %w", err)
	}

	sentiment, err := p.classifier.Sentiment(ctx, s.text)
	if err != nil {
		return nil, fmt.Errorf("sentiment: %w", err)
	}

	return &domain.AnalysisResult{
		ProductKey: s.review.ProductKey,
		ReviewID:   s.review.ReviewID,
		Ordinal:    s.ordinal,
		Sentence:   s.text,
		Category:   strings.TrimSpace(category),
		Keywords:   keywords,
		Sentiment:  sentiment,
	}, nil
}
