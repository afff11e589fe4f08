package domain

import "time"

// Review is a customer review as delivered by the source feed.
// ReviewID grows monotonically over time on the source side.
type Review struct {
	ReviewID   int64
	ProductID  string
	CustomerID int64
	Nickname   string
	Options    string
	Grade      float64
	Comment    string
	EventDate  time.Time
}

// AnalyzableReview is a stored review joined with its owning product.
type AnalyzableReview struct {
	ReviewID   int64
	Comment    string
	ProductKey int64
}

// ReviewUpsertResult summarizes a single review ingestion batch.
type ReviewUpsertResult struct {
	Inserted       int
	Duplicates     int
	UnknownProduct int
	Stopped        bool
}
