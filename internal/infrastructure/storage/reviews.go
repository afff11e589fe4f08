package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
)

// UpsertReviews applies the policy inside a single transaction. A policy
// error rolls the whole batch back.
func (r *Repository) UpsertReviews(ctx context.Context, policy ports.ReviewPolicy, watermark int64, reviews []domain.Review) (domain.ReviewUpsertResult, error) {
	var res domain.ReviewUpsertResult
	if len(reviews) == 0 {
		return res, nil
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		w := &reviewWriter{tx: tx, sb: r.sb, keys: map[string]int64{}}
		var err error
		res, err = policy.Apply(ctx, w, watermark, reviews)
		if err != nil {
			return fmt.Errorf("%s policy: %w", policy.Name(), err)
		}
		return nil
	})
	if err != nil {
		return domain.ReviewUpsertResult{}, err
	}
	return res, nil
}

type reviewWriter struct {
	tx   *sql.Tx
	sb   sq.StatementBuilderType
	keys map[string]int64
}

var _ ports.ReviewWriter = (*reviewWriter)(nil)

func (w *reviewWriter) ProductKey(ctx context.Context, productID string) (int64, error) {
	if key, ok := w.keys[productID]; ok {
		return key, nil
	}

	query, args, err := w.sb.Select("id").From("products").Where(sq.Eq{"product_id": productID}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build product lookup: %w", err)
	}

	var key int64
	err = w.tx.QueryRowContext(ctx, query, args...).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrProductNotFound, productID)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup product %s: %w", productID, err)
	}

	w.keys[productID] = key
	return key, nil
}

func (w *reviewWriter) InsertReview(ctx context.Context, productKey int64, review domain.Review) (bool, error) {
	stmt := w.sb.Insert("reviews").
		Columns("review_id", "product_key", "customer_id", "nickname", "options", "grade", "comment", "event_date").
		Values(
			review.ReviewID,
			productKey,
			review.CustomerID,
			review.Nickname,
			review.Options,
			review.Grade,
			review.Comment,
			review.EventDate.UTC(),
		).
		Suffix("ON CONFLICT (review_id) DO NOTHING")

	n, err := exec(ctx, w.tx, stmt)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SelectAnalyzableReviews joins reviews to products and drops reviews whose
// comment equals one of the excluded texts.
func (r *Repository) SelectAnalyzableReviews(ctx context.Context, exclude []string) ([]domain.AnalyzableReview, error) {
	q := r.sb.Select("r.review_id", "r.comment", "p.id").
		From("reviews r").
		Join("products p ON r.product_key = p.id").
		OrderBy("r.review_id")

	if len(exclude) > 0 {
		q = q.Where(sq.NotEq{"r.comment": exclude})
	}

	reviews, err := queryMany(ctx, r.db, q, func(s scanner) (domain.AnalyzableReview, error) {
		var ar domain.AnalyzableReview
		err := s.Scan(&ar.ReviewID, &ar.Comment, &ar.ProductKey)
		return ar, err
	})
	if err != nil {
		return nil, fmt.Errorf("select analyzable reviews: %w", err)
	}
	return reviews, nil
}
