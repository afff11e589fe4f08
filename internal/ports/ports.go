package ports

import (
	"context"
	"time"

	"ReviewHarvester/internal/domain"
)

// ProductSource lists the storefront products to follow.
type ProductSource interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// ReviewSource returns one page of a product's reviews, newest first.
// A page without reviews yields an empty slice and no error.
type ReviewSource interface {
	ReviewPage(ctx context.Context, productID string, page int) ([]domain.Review, error)
}

// Feed is the complete storefront collaborator.
type Feed interface {
	ProductSource
	ReviewSource
}

// ReviewWriter is the transactional view a ReviewPolicy writes through.
type ReviewWriter interface {
	// ProductKey resolves a natural product ID to its surrogate key or
	// returns domain.ErrProductNotFound.
	ProductKey(ctx context.Context, productID string) (int64, error)
	// InsertReview stores the review unless its ID is already present.
	InsertReview(ctx context.Context, productKey int64, review domain.Review) (bool, error)
}

// ReviewPolicy decides how a fetched review batch is written.
type ReviewPolicy interface {
	Name() string
	Apply(ctx context.Context, w ReviewWriter, watermark int64, reviews []domain.Review) (domain.ReviewUpsertResult, error)
}

// IngestRepository owns products and reviews.
type IngestRepository interface {
	LatestReviewID(ctx context.Context) (int64, error)
	UpsertProducts(ctx context.Context, products []domain.Product) (int, error)
	UpsertReviews(ctx context.Context, policy ReviewPolicy, watermark int64, reviews []domain.Review) (domain.ReviewUpsertResult, error)
	NormalizeProductNames(ctx context.Context) (int, error)
}

// AnalysisRepository owns analyzed sentences and keyword counters.
type AnalysisRepository interface {
	SelectAnalyzableReviews(ctx context.Context, exclude []string) ([]domain.AnalyzableReview, error)
	AnalyzedReviewIDs(ctx context.Context) (map[int64]bool, error)
	PersistAnalysis(ctx context.Context, results []domain.AnalysisResult) (domain.PersistStats, error)
}

// ViewRepository serves the read-only dashboard queries. A categoryID of 0
// means every category.
type ViewRepository interface {
	ViewProducts(ctx context.Context) ([]domain.ProductView, error)
	ProductSummary(ctx context.Context, productKey int64) (domain.ProductSummary, error)
	ProductReviews(ctx context.Context, productKey int64, limit int) ([]domain.ReviewView, error)
	TopKeywords(ctx context.Context, productKey, categoryID int64, limit int) ([]domain.KeywordCount, error)
	CategoryList(ctx context.Context) ([]domain.Category, error)
	SentimentCounts(ctx context.Context, productKey, categoryID int64) ([]domain.SentimentCount, error)
	KeywordSentiments(ctx context.Context, productKey, categoryID int64) ([]domain.KeywordSentiment, error)
	CategoryReviews(ctx context.Context, productKey, categoryID int64, limit int) ([]domain.ReviewView, error)
}

// Classifier runs the three per-sentence language model stages.
type Classifier interface {
	Category(ctx context.Context, sentence string) (string, error)
	Keywords(ctx context.Context, sentence string) ([]string, error)
	Sentiment(ctx context.Context, sentence string) (domain.Sentiment, error)
}

// Notifier publishes run reports to Telegram or other channels.
type Notifier interface {
	PublishReport(ctx context.Context, report domain.RunReport) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
