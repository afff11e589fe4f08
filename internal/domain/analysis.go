package domain

import (
	"fmt"
	"strings"
)

// CategoryNone is returned by the classifier when a sentence matches no tracked category.
const CategoryNone = "None"

// IsNoCategory reports whether the classifier label means "no category".
func IsNoCategory(label string) bool {
	label = strings.TrimSpace(label)
	return label == "" || strings.EqualFold(label, CategoryNone)
}

// Sentiment is the two-valued polarity of a sentence.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps English or Korean labels onto the fixed domain.
func ParseSentiment(label string) (Sentiment, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "긍정":
		return SentimentPositive, nil
	case "negative", "부정":
		return SentimentNegative, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSentiment, label)
	}
}

// Category is a static lookup row seeded out-of-band.
type Category struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

// AnalysisResult is the classifier output for one surviving sentence.
type AnalysisResult struct {
	ProductKey int64
	ReviewID   int64
	Ordinal    int
	Sentence   string
	Category   string
	Keywords   []string
	Sentiment  Sentiment
}

// PersistStats counts what the analysis persister wrote or skipped.
type PersistStats struct {
	Sentences         int
	Keywords          int
	AlreadyAnalyzed   int
	UnknownCategories int
}
