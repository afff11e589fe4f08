package domain

import "time"

// Product is a storefront item identified by its source-assigned ProductID.
type Product struct {
	ID          int64
	ProductID   string
	BrandName   string
	ProductName string
	CreatedAt   time.Time
}

// NormalizedProduct holds the display name derived for the analysis schema.
type NormalizedProduct struct {
	ProductKey int64
	CleanName  string
}
