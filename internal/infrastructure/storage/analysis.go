package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/textproc"
)

// Categories returns the category lookup keyed by label.
func (r *Repository) Categories(ctx context.Context) (map[string]int64, error) {
	rows, err := r.CategoryList(ctx)
	if err != nil {
		return nil, err
	}

	lookup := make(map[string]int64, len(rows))
	for _, c := range rows {
		lookup[c.Label] = c.ID
	}
	return lookup, nil
}

// AnalyzedReviewIDs returns the reviews that already have analysis rows.
func (r *Repository) AnalyzedReviewIDs(ctx context.Context) (map[int64]bool, error) {
	q := r.sb.Select("review_id").Distinct().From("analyzed_sentences")

	ids, err := queryMany(ctx, r.db, q, func(s scanner) (int64, error) {
		var id int64
		err := s.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("query analyzed reviews: %w", err)
	}

	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return seen, nil
}

type reviewKey struct {
	reviewID   int64
	productKey int64
}

// PersistAnalysis writes analysis rows and bumps keyword counters. Each
// review commits in its own transaction; a review that already has rows is
// skipped whole, so re-runs never count a keyword twice.
func (r *Repository) PersistAnalysis(ctx context.Context, results []domain.AnalysisResult) (domain.PersistStats, error) {
	var stats domain.PersistStats
	if len(results) == 0 {
		return stats, nil
	}

	categories, err := r.Categories(ctx)
	if err != nil {
		return stats, err
	}

	var order []reviewKey
	groups := map[reviewKey][]domain.AnalysisResult{}
	for _, res := range results {
		k := reviewKey{reviewID: res.ReviewID, productKey: res.ProductKey}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], res)
	}

	for _, k := range order {
		var local domain.PersistStats
		err := withTx(ctx, r.db, func(tx *sql.Tx) error {
			local = domain.PersistStats{}
			return r.persistReview(ctx, tx, k, groups[k], categories, &local)
		})
		if err != nil {
			return stats, fmt.Errorf("persist review %d: %w", k.reviewID, err)
		}

		stats.Sentences += local.Sentences
		stats.Keywords += local.Keywords
		stats.AlreadyAnalyzed += local.AlreadyAnalyzed
		stats.UnknownCategories += local.UnknownCategories
	}

	return stats, nil
}

func (r *Repository) persistReview(
	ctx context.Context,
	tx *sql.Tx,
	k reviewKey,
	results []domain.AnalysisResult,
	categories map[string]int64,
	stats *domain.PersistStats,
) error {
	analyzed, err := exists(ctx, tx, r.sb.Select("1").
		From("analyzed_sentences").
		Where(sq.Eq{"review_id": k.reviewID, "product_key": k.productKey}))
	if err != nil {
		return fmt.Errorf("check analyzed: %w", err)
	}
	if analyzed {
		stats.AlreadyAnalyzed++
		return nil
	}

	for _, res := range results {
		categoryID, ok := categories[strings.TrimSpace(res.Category)]
		if !ok {
			stats.UnknownCategories++
			continue
		}

		n, err := exec(ctx, tx, r.sb.Insert("analyzed_sentences").
			Columns("product_key", "review_id", "ordinal", "sentence", "category_id", "sentiment").
			Values(res.ProductKey, res.ReviewID, res.Ordinal, res.Sentence, categoryID, string(res.Sentiment)).
			Suffix("ON CONFLICT (product_key, review_id, ordinal) DO NOTHING"))
		if err != nil {
			return fmt.Errorf("insert sentence %d: %w", res.Ordinal, err)
		}
		if n == 0 {
			continue
		}
		stats.Sentences++

		for _, kw := range textproc.NormalizeKeywords(res.Keywords) {
			_, err := exec(ctx, tx, r.sb.Insert("keyword_counts").
				Columns("product_key", "category_id", "keyword", "count").
				Values(res.ProductKey, categoryID, kw, 1).
				Suffix("ON CONFLICT (product_key, category_id, keyword) DO UPDATE SET count = keyword_counts.count + 1"))
			if err != nil {
				return fmt.Errorf("count keyword %q: %w", kw, err)
			}
			stats.Keywords++
		}
	}

	return nil
}
