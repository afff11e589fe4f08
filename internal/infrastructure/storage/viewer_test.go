package storage

import (
	"context"
	"reflect"
	"testing"
	"time"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ingest"
)

type viewFixture struct {
	repo     *Repository
	key      int64
	delivery int64
}

func newViewFixture(t *testing.T) viewFixture {
	t.Helper()

	repo, _ := newTestRepository(t)
	ctx := context.Background()
	key := seedProduct(t, repo, "P1", "Nice [Limited] Sofa")

	older := review(100, "P1", "편해요. 배송이 늦었어요.")
	older.Grade = 4
	newer := review(101, "P1", "배송 빨라요.")
	newer.Grade = 5
	newer.EventDate = older.EventDate.Add(24 * time.Hour)
	if _, err := repo.UpsertReviews(ctx, ingest.PerRecord{}, 0, []domain.Review{newer, older}); err != nil {
		t.Fatalf("seed reviews: %v", err)
	}
	if _, err := repo.NormalizeProductNames(ctx); err != nil {
		t.Fatalf("normalize: %v", err)
	}

	_, err := repo.PersistAnalysis(ctx, []domain.AnalysisResult{
		{ProductKey: key, ReviewID: 100, Ordinal: 0, Sentence: "편해요.", Category: "사용감", Keywords: []string{"편안함"}, Sentiment: domain.SentimentPositive},
		{ProductKey: key, ReviewID: 100, Ordinal: 1, Sentence: "배송이 늦었어요.", Category: "배송", Keywords: []string{"배송"}, Sentiment: domain.SentimentNegative},
		{ProductKey: key, ReviewID: 101, Ordinal: 0, Sentence: "배송 빨라요.", Category: "배송", Keywords: []string{"배송", "속도"}, Sentiment: domain.SentimentPositive},
	})
	if err != nil {
		t.Fatalf("persist: %v", err)
	}

	categories, err := repo.Categories(ctx)
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	return viewFixture{repo: repo, key: key, delivery: categories["배송"]}
}

func TestViewProductsAndSummary(t *testing.T) {
	f := newViewFixture(t)
	ctx := context.Background()

	products, err := f.repo.ViewProducts(ctx)
	if err != nil {
		t.Fatalf("ViewProducts: %v", err)
	}
	want := []domain.ProductView{{ProductKey: f.key, ProductID: "P1", CleanName: "Nice  Sofa"}}
	if !reflect.DeepEqual(products, want) {
		t.Fatalf("products = %+v, want %+v", products, want)
	}

	summary, err := f.repo.ProductSummary(ctx, f.key)
	if err != nil {
		t.Fatalf("ProductSummary: %v", err)
	}
	if summary.ReviewCount != 2 || summary.AverageGrade != 4.5 {
		t.Fatalf("summary = %+v", summary)
	}

	empty, err := f.repo.ProductSummary(ctx, f.key+100)
	if err != nil {
		t.Fatalf("ProductSummary unknown: %v", err)
	}
	if empty.ReviewCount != 0 || empty.AverageGrade != 0 {
		t.Fatalf("unknown product summary = %+v", empty)
	}

	reviews, err := f.repo.ProductReviews(ctx, f.key, 0)
	if err != nil {
		t.Fatalf("ProductReviews: %v", err)
	}
	if len(reviews) != 2 || reviews[0].ReviewID != 101 || reviews[1].ReviewID != 100 {
		t.Fatalf("reviews not newest first: %+v", reviews)
	}
}

func TestTopKeywords(t *testing.T) {
	f := newViewFixture(t)
	ctx := context.Background()

	all, err := f.repo.TopKeywords(ctx, f.key, 0, 10)
	if err != nil {
		t.Fatalf("TopKeywords: %v", err)
	}
	want := []domain.KeywordCount{{Keyword: "배송", Count: 2}, {Keyword: "속도", Count: 1}, {Keyword: "편안함", Count: 1}}
	if !reflect.DeepEqual(all, want) {
		t.Fatalf("keywords = %+v, want %+v", all, want)
	}

	delivery, err := f.repo.TopKeywords(ctx, f.key, f.delivery, 1)
	if err != nil {
		t.Fatalf("TopKeywords by category: %v", err)
	}
	if len(delivery) != 1 || delivery[0].Keyword != "배송" {
		t.Fatalf("category keywords = %+v", delivery)
	}
}

func TestSentimentViews(t *testing.T) {
	f := newViewFixture(t)
	ctx := context.Background()

	counts, err := f.repo.SentimentCounts(ctx, f.key, f.delivery)
	if err != nil {
		t.Fatalf("SentimentCounts: %v", err)
	}
	wantCounts := []domain.SentimentCount{
		{Sentiment: domain.SentimentNegative, Count: 1},
		{Sentiment: domain.SentimentPositive, Count: 1},
	}
	if !reflect.DeepEqual(counts, wantCounts) {
		t.Fatalf("sentiment counts = %+v, want %+v", counts, wantCounts)
	}

	hits, err := f.repo.KeywordSentiments(ctx, f.key, f.delivery)
	if err != nil {
		t.Fatalf("KeywordSentiments: %v", err)
	}
	wantHits := []domain.KeywordSentiment{
		{Keyword: "배송", Sentiment: domain.SentimentNegative, Hits: 1},
		{Keyword: "배송", Sentiment: domain.SentimentPositive, Hits: 1},
	}
	if !reflect.DeepEqual(hits, wantHits) {
		t.Fatalf("keyword sentiments = %+v, want %+v", hits, wantHits)
	}
}

func TestCategoryReviews(t *testing.T) {
	f := newViewFixture(t)
	ctx := context.Background()

	reviews, err := f.repo.CategoryReviews(ctx, f.key, f.delivery, 5)
	if err != nil {
		t.Fatalf("CategoryReviews: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %+v", reviews)
	}
	if reviews[0].ReviewID != 101 || !reflect.DeepEqual(reviews[0].Keywords, []string{"배송"}) {
		t.Fatalf("first review = %+v", reviews[0])
	}

	limited, err := f.repo.CategoryReviews(ctx, f.key, f.delivery, 1)
	if err != nil {
		t.Fatalf("CategoryReviews limited: %v", err)
	}
	if len(limited) != 1 || limited[0].ReviewID != 101 {
		t.Fatalf("limited = %+v", limited)
	}

	categories, err := f.repo.CategoryList(ctx)
	if err != nil {
		t.Fatalf("CategoryList: %v", err)
	}
	if len(categories) != 5 || categories[0].Label != "배송" {
		t.Fatalf("categories = %+v", categories)
	}
}
