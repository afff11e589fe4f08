package storage

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
)

var _ ports.ViewRepository = (*Repository)(nil)

// keywordInSentence keeps keyword rows whose keyword occurs in the sentence.
// Both Postgres and SQLite bind || tighter than LIKE.
const keywordInSentence = "s.sentence LIKE '%' || k.keyword || '%'"

// ViewProducts lists normalized products.
func (r *Repository) ViewProducts(ctx context.Context) ([]domain.ProductView, error) {
	q := r.sb.Select("ap.product_key", "p.product_id", "ap.clean_name").
		From("analyze_products ap").
		Join("products p ON p.id = ap.product_key").
		OrderBy("ap.product_key")

	products, err := queryMany(ctx, r.db, q, func(s scanner) (domain.ProductView, error) {
		var p domain.ProductView
		err := s.Scan(&p.ProductKey, &p.ProductID, &p.CleanName)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return products, nil
}

// ProductSummary returns the average grade and review count of a product.
func (r *Repository) ProductSummary(ctx context.Context, productKey int64) (domain.ProductSummary, error) {
	summary := domain.ProductSummary{ProductKey: productKey}

	query, args, err := r.sb.Select("COALESCE(AVG(grade), 0)", "COUNT(*)").
		From("reviews").
		Where(sq.Eq{"product_key": productKey}).
		ToSql()
	if err != nil {
		return summary, fmt.Errorf("build summary query: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&summary.AverageGrade, &summary.ReviewCount); err != nil {
		return summary, fmt.Errorf("query summary: %w", err)
	}
	return summary, nil
}

// ProductReviews returns the newest reviews of a product.
func (r *Repository) ProductReviews(ctx context.Context, productKey int64, limit int) ([]domain.ReviewView, error) {
	q := r.sb.Select("review_id", "nickname", "grade", "comment", "event_date").
		From("reviews").
		Where(sq.Eq{"product_key": productKey}).
		OrderBy("event_date DESC", "review_id DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	reviews, err := queryMany(ctx, r.db, q, func(s scanner) (domain.ReviewView, error) {
		var v domain.ReviewView
		err := s.Scan(&v.ReviewID, &v.Nickname, &v.Grade, &v.Comment, &v.EventDate)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	return reviews, nil
}

// TopKeywords returns the most counted keywords of a product.
func (r *Repository) TopKeywords(ctx context.Context, productKey, categoryID int64, limit int) ([]domain.KeywordCount, error) {
	where := sq.Eq{"product_key": productKey}
	if categoryID != 0 {
		where["category_id"] = categoryID
	}

	q := r.sb.Select("keyword", "SUM(count) AS total").
		From("keyword_counts").
		Where(where).
		GroupBy("keyword").
		OrderBy("total DESC", "keyword")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	keywords, err := queryMany(ctx, r.db, q, func(s scanner) (domain.KeywordCount, error) {
		var k domain.KeywordCount
		err := s.Scan(&k.Keyword, &k.Count)
		return k, err
	})
	if err != nil {
		return nil, fmt.Errorf("query keywords: %w", err)
	}
	return keywords, nil
}

// CategoryList returns all categories ordered by ID.
func (r *Repository) CategoryList(ctx context.Context) ([]domain.Category, error) {
	q := r.sb.Select("id", "label").From("categories").OrderBy("id")

	categories, err := queryMany(ctx, r.db, q, func(s scanner) (domain.Category, error) {
		var c domain.Category
		err := s.Scan(&c.ID, &c.Label)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	return categories, nil
}

// SentimentCounts counts distinct reviews per polarity among the product's
// sentences in the category.
func (r *Repository) SentimentCounts(ctx context.Context, productKey, categoryID int64) ([]domain.SentimentCount, error) {
	q := r.sb.Select("sentiment", "COUNT(DISTINCT review_id)").
		From("analyzed_sentences").
		Where(sq.Eq{"product_key": productKey, "category_id": categoryID}).
		GroupBy("sentiment").
		OrderBy("sentiment")

	counts, err := queryMany(ctx, r.db, q, func(s scanner) (domain.SentimentCount, error) {
		var c domain.SentimentCount
		err := s.Scan(&c.Sentiment, &c.Count)
		return c, err
	})
	if err != nil {
		return nil, fmt.Errorf("query sentiment counts: %w", err)
	}
	return counts, nil
}

// KeywordSentiments counts, per keyword of the category, the sentences of
// each polarity that mention it.
func (r *Repository) KeywordSentiments(ctx context.Context, productKey, categoryID int64) ([]domain.KeywordSentiment, error) {
	q := r.sb.Select("k.keyword", "s.sentiment", "COUNT(*) AS hits").
		From("analyzed_sentences s").
		Join("keyword_counts k ON k.product_key = s.product_key AND k.category_id = s.category_id").
		Where(sq.Eq{"s.product_key": productKey, "s.category_id": categoryID}).
		Where(keywordInSentence).
		GroupBy("k.keyword", "s.sentiment").
		OrderBy("hits DESC", "k.keyword", "s.sentiment")

	hits, err := queryMany(ctx, r.db, q, func(s scanner) (domain.KeywordSentiment, error) {
		var k domain.KeywordSentiment
		err := s.Scan(&k.Keyword, &k.Sentiment, &k.Hits)
		return k, err
	})
	if err != nil {
		return nil, fmt.Errorf("query keyword sentiments: %w", err)
	}
	return hits, nil
}

// CategoryReviews returns the newest reviews with a sentence in the
// category, each with the category keywords its sentences mention.
func (r *Repository) CategoryReviews(ctx context.Context, productKey, categoryID int64, limit int) ([]domain.ReviewView, error) {
	q := r.sb.Select("r.review_id", "r.nickname", "r.grade", "r.comment", "r.event_date", "k.keyword").
		Distinct().
		From("reviews r").
		Join("analyzed_sentences s ON s.review_id = r.review_id AND s.product_key = r.product_key").
		Join("keyword_counts k ON k.product_key = s.product_key AND k.category_id = s.category_id").
		Where(sq.Eq{"s.product_key": productKey, "s.category_id": categoryID}).
		Where(keywordInSentence).
		OrderBy("r.event_date DESC", "r.review_id DESC", "k.keyword")

	type row struct {
		review  domain.ReviewView
		keyword string
	}
	rows, err := queryMany(ctx, r.db, q, func(s scanner) (row, error) {
		var rw row
		err := s.Scan(&rw.review.ReviewID, &rw.review.Nickname, &rw.review.Grade,
			&rw.review.Comment, &rw.review.EventDate, &rw.keyword)
		return rw, err
	})
	if err != nil {
		return nil, fmt.Errorf("query category reviews: %w", err)
	}

	var reviews []domain.ReviewView
	for _, rw := range rows {
		n := len(reviews)
		if n > 0 && reviews[n-1].ReviewID == rw.review.ReviewID {
			reviews[n-1].Keywords = append(reviews[n-1].Keywords, rw.keyword)
			continue
		}
		if limit > 0 && n == limit {
			break
		}
		rw.review.Keywords = []string{rw.keyword}
		reviews = append(reviews, rw.review)
	}
	return reviews, nil
}
