package usecase

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
)

// HarvestResult is what one pass over the storefront produced.
type HarvestResult struct {
	Products      []domain.Product
	Reviews       []domain.Review
	FetchFailures int
}

// Harvester walks the storefront: the product list, then each product's
// review pages newest first until the watermark is reached.
type Harvester struct {
	feed    ports.Feed
	pages   int
	workers int
	logger  *slog.Logger
}

// NewHarvester builds a harvester reading up to pages review pages per
// product with workers products fetched concurrently.
func NewHarvester(feed ports.Feed, pages, workers int, logger *slog.Logger) *Harvester {
	if pages <= 0 {
		pages = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Harvester{feed: feed, pages: pages, workers: workers, logger: logger}
}

// Harvest fetches products and their reviews newer than watermark.
// Transient fetch failures are logged and counted, never returned; only
// context cancellation aborts the harvest.
func (h *Harvester) Harvest(ctx context.Context, watermark int64) (HarvestResult, error) {
	var result HarvestResult

	products, err := h.feed.Products(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		h.logger.Warn("product list unavailable", "error", err)
		result.FetchFailures++
		return result, nil
	}
	result.Products = products

	perProduct := make([][]domain.Review, len(products))
	failures := make([]int, len(products))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)
	for i, product := range products {
		i, product := i, product
		g.Go(func() error {
			reviews, failed, err := h.productReviews(gctx, product.ProductID, watermark)
			if err != nil {
				return err
			}
			perProduct[i] = reviews
			failures[i] = failed
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for i := range products {
		result.Reviews = append(result.Reviews, perProduct[i]...)
		result.FetchFailures += failures[i]
	}

	h.logger.Info("harvest finished",
		"products", len(result.Products),
		"reviews", len(result.Reviews),
		"fetch_failures", result.FetchFailures)
	return result, nil
}

func (h *Harvester) productReviews(ctx context.Context, productID string, watermark int64) ([]domain.Review, int, error) {
	var (
		collected []domain.Review
		failed    int
	)

	for page := 1; page <= h.pages; page++ {
		reviews, err := h.feed.ReviewPage(ctx, productID, page)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, 0, ctxErr
			}
			h.logger.Warn("review page skipped", "product_id", productID, "page", page, "error", err)
			failed++
			continue
		}
		if len(reviews) == 0 {
			break
		}

		for _, r := range reviews {
			if r.ReviewID == watermark {
				h.logger.Debug("watermark reached", "product_id", productID, "page", page, "review_id", r.ReviewID)
				return collected, failed, nil
			}
			collected = append(collected, r)
		}
	}

	return collected, failed, nil
}
