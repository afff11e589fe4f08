package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
)

// Ingestor stores newly harvested products and reviews.
type Ingestor struct {
	harvester *Harvester
	repo      ports.IngestRepository
	policy    ports.ReviewPolicy
	logger    *slog.Logger
}

// NewIngestor wires the harvester to the store through the given review policy.
func NewIngestor(harvester *Harvester, repo ports.IngestRepository, policy ports.ReviewPolicy, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{harvester: harvester, repo: repo, policy: policy, logger: logger}
}

// Run performs one ingest pass and records its counters on report.
func (in *Ingestor) Run(ctx context.Context, report *domain.RunReport) error {
	watermark, err := in.repo.LatestReviewID(ctx)
	if err != nil {
		return fmt.Errorf("read watermark: %w", err)
	}
	report.WatermarkBefore = watermark
	report.WatermarkAfter = watermark

	harvest, err := in.harvester.Harvest(ctx, watermark)
	if err != nil {
		return fmt.Errorf("harvest: %w", err)
	}
	report.ProductsFetched = len(harvest.Products)
	report.ReviewsFetched = len(harvest.Reviews)
	report.FetchFailures = harvest.FetchFailures

	inserted, err := in.repo.UpsertProducts(ctx, harvest.Products)
	if err != nil {
		return fmt.Errorf("upsert products: %w", err)
	}
	report.ProductsInserted = inserted

	result, err := in.repo.UpsertReviews(ctx, in.policy, watermark, harvest.Reviews)
	if err != nil {
		return fmt.Errorf("upsert reviews: %w", err)
	}
	report.Reviews = result

	after, err := in.repo.LatestReviewID(ctx)
	if err != nil {
		return fmt.Errorf("read watermark: %w", err)
	}
	report.WatermarkAfter = after

	in.logger.Info("ingest finished",
		"policy", in.policy.Name(),
		"products_new", inserted,
		"reviews_new", result.Inserted,
		"duplicates", result.Duplicates,
		"unknown_product", result.UnknownProduct,
		"watermark", after)
	return nil
}
