package domain

import (
	"fmt"
	"strings"
	"time"
)

// RunReport summarizes one pipeline execution.
type RunReport struct {
	RunID              string
	StartedAt          time.Time
	Duration           time.Duration
	ProductsFetched    int
	ProductsInserted   int
	ReviewsFetched     int
	FetchFailures      int
	WatermarkBefore    int64
	WatermarkAfter     int64
	Reviews            ReviewUpsertResult
	NormalizedProducts int
	ReviewsSelected    int
	ClassifierFailures int
	Analysis           PersistStats
}

// Summary renders the report as a short plain-text message.
func (r RunReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "run %s finished in %s\n", r.RunID, r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "products: fetched %d, new %d\n", r.ProductsFetched, r.ProductsInserted)
	fmt.Fprintf(&b, "reviews: fetched %d, new %d, duplicates %d, unknown product %d\n",
		r.ReviewsFetched, r.Reviews.Inserted, r.Reviews.Duplicates, r.Reviews.UnknownProduct)
	fmt.Fprintf(&b, "watermark: %d -> %d\n", r.WatermarkBefore, r.WatermarkAfter)
	fmt.Fprintf(&b, "analysis: %d reviews, %d sentences, %d keywords, %d skipped\n",
		r.ReviewsSelected, r.Analysis.Sentences, r.Analysis.Keywords, r.Analysis.AlreadyAnalyzed)
	if r.FetchFailures > 0 || r.ClassifierFailures > 0 {
		fmt.Fprintf(&b, "failures: fetch %d, classifier %d\n", r.FetchFailures, r.ClassifierFailures)
	}
	return b.String()
}
