package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"ReviewHarvester/internal/domain"
)

var errUnavailable = errors.New("unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeFeed serves canned pages; pages[productID][n] is page n+1.
type fakeFeed struct {
	products    []domain.Product
	productsErr error
	pages       map[string][][]domain.Review
	failPages   map[string]map[int]bool

	mu    sync.Mutex
	calls map[string][]int
}

func (f *fakeFeed) Products(context.Context) ([]domain.Product, error) {
	return f.products, f.productsErr
}

func (f *fakeFeed) ReviewPage(_ context.Context, productID string, page int) ([]domain.Review, error) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = map[string][]int{}
	}
	f.calls[productID] = append(f.calls[productID], page)
	f.mu.Unlock()

	if f.failPages[productID][page] {
		return nil, errUnavailable
	}
	pages := f.pages[productID]
	if page > len(pages) {
		return nil, nil
	}
	return pages[page-1], nil
}

func (f *fakeFeed) pagesRequested(productID string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls[productID]...)
}

type verdict struct {
	category     string
	keywords     []string
	sentiment    domain.Sentiment
	categoryErr  error
	keywordErr   error
	sentimentErr error
}

// fakeClassifier answers from a per-sentence table and counts calls.
type fakeClassifier struct {
	verdicts map[string]verdict

	mu             sync.Mutex
	categoryCalls  int
	keywordCalls   int
	sentimentCalls int
}

func (c *fakeClassifier) Category(_ context.Context, s string) (string, error) {
	c.mu.Lock()
	c.categoryCalls++
	c.mu.Unlock()
	v, ok := c.verdicts[s]
	if !ok {
		return domain.CategoryNone, nil
	}
	return v.category, v.categoryErr
}

func (c *fakeClassifier) Keywords(_ context.Context, s string) ([]string, error) {
	c.mu.Lock()
	c.keywordCalls++
	c.mu.Unlock()
	v := c.verdicts[s]
	return v.keywords, v.keywordErr
}

func (c *fakeClassifier) Sentiment(_ context.Context, s string) (domain.Sentiment, error) {
	c.mu.Lock()
	c.sentimentCalls++
	c.mu.Unlock()
	v := c.verdicts[s]
	return v.sentiment, v.sentimentErr
}

type recordingNotifier struct {
	reports []domain.RunReport
	err     error
}

func (n *recordingNotifier) PublishReport(_ context.Context, report domain.RunReport) error {
	n.reports = append(n.reports, report)
	return n.err
}

type recordingObserver struct {
	reports []domain.RunReport
	errs    []error
}

func (o *recordingObserver) ObserveRun(report domain.RunReport, err error) {
	o.reports = append(o.reports, report)
	o.errs = append(o.errs, err)
}

// cancellingClassifier cancels the run after a fixed number of category
// calls and records how often each sentence was categorized.
type cancellingClassifier struct {
	*fakeClassifier
	after  int
	cancel context.CancelFunc

	mu    sync.Mutex
	total int
	seen  map[string]int
}

func (c *cancellingClassifier) arm(after int, cancel context.CancelFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.after, c.cancel, c.total = after, cancel, 0
}

func (c *cancellingClassifier) Category(ctx context.Context, s string) (string, error) {
	c.mu.Lock()
	c.total++
	if c.seen == nil {
		c.seen = map[string]int{}
	}
	c.seen[s]++
	trip := c.after > 0 && c.total == c.after
	c.mu.Unlock()

	if trip {
		c.cancel()
		return "", ctx.Err()
	}
	return c.fakeClassifier.Category(ctx, s)
}

func (c *cancellingClassifier) timesSeen(s string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen[s]
}
