package domain

import "time"

// ProductView is a product as the dashboard lists it.
type ProductView struct {
	ProductKey int64  `json:"productKey"`
	ProductID  string `json:"productId"`
	CleanName  string `json:"cleanName"`
}

// ProductSummary aggregates the ratings of one product.
type ProductSummary struct {
	ProductKey   int64   `json:"productKey"`
	AverageGrade float64 `json:"averageGrade"`
	ReviewCount  int     `json:"reviewCount"`
}

// ReviewView is a stored review, optionally with the keywords it matched.
type ReviewView struct {
	ReviewID  int64     `json:"reviewId"`
	Nickname  string    `json:"nickname"`
	Grade     float64   `json:"grade"`
	Comment   string    `json:"comment"`
	EventDate time.Time `json:"eventDate"`
	Keywords  []string  `json:"keywords,omitempty"`
}

// KeywordCount is a keyword with its summed counter.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// SentimentCount is the number of distinct reviews with a sentence of this
// polarity in the category.
type SentimentCount struct {
	Sentiment Sentiment `json:"sentiment"`
	Count     int       `json:"count"`
}

// KeywordSentiment counts sentences mentioning a keyword per polarity.
type KeywordSentiment struct {
	Keyword   string    `json:"keyword"`
	Sentiment Sentiment `json:"sentiment"`
	Hits      int       `json:"hits"`
}
