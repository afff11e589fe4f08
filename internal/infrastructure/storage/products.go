package storage

import (
	"context"
	"database/sql"
	"fmt"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/textproc"
)

// LatestReviewID returns the highest stored review ID, or 0 when none exist.
func (r *Repository) LatestReviewID(ctx context.Context) (int64, error) {
	query, args, err := r.sb.Select("COALESCE(MAX(review_id), 0)").From("reviews").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build watermark query: %w", err)
	}

	var id int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("query watermark: %w", err)
	}
	return id, nil
}

// UpsertProducts inserts products that are not stored yet. Existing rows
// are never updated.
func (r *Repository) UpsertProducts(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	var inserted int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, p := range products {
			stmt := r.sb.Insert("products").
				Columns("product_id", "brand_name", "product_name").
				Values(p.ProductID, p.BrandName, p.ProductName).
				Suffix("ON CONFLICT (product_id) DO NOTHING")

			n, err := exec(ctx, tx, stmt)
			if err != nil {
				return fmt.Errorf("insert product %s: %w", p.ProductID, err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// Products lists every stored product ordered by surrogate key.
func (r *Repository) Products(ctx context.Context) ([]domain.Product, error) {
	q := r.sb.Select("id", "product_id", "brand_name", "product_name").
		From("products").
		OrderBy("id")

	products, err := queryMany(ctx, r.db, q, func(s scanner) (domain.Product, error) {
		var p domain.Product
		err := s.Scan(&p.ID, &p.ProductID, &p.BrandName, &p.ProductName)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

// NormalizeProductNames rewrites analyze_products.clean_name for every product.
func (r *Repository) NormalizeProductNames(ctx context.Context) (int, error) {
	products, err := r.Products(ctx)
	if err != nil {
		return 0, err
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, p := range products {
			np := domain.NormalizedProduct{ProductKey: p.ID, CleanName: textproc.CleanProductName(p.ProductName)}
			stmt := r.sb.Insert("analyze_products").
				Columns("product_key", "clean_name").
				Values(np.ProductKey, np.CleanName).
				Suffix("ON CONFLICT (product_key) DO UPDATE SET clean_name = EXCLUDED.clean_name")

			if _, err := exec(ctx, tx, stmt); err != nil {
				return fmt.Errorf("upsert clean name for product %d: %w", np.ProductKey, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(products), nil
}
