package viewer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeViews struct {
	err        error
	gotProduct int64
	gotCat     int64
	gotLimit   int
}

func (f *fakeViews) ViewProducts(context.Context) ([]domain.ProductView, error) {
	return []domain.ProductView{{ProductKey: 1, ProductID: "P1", CleanName: "Nice  Sofa"}}, f.err
}

func (f *fakeViews) ProductSummary(_ context.Context, product int64) (domain.ProductSummary, error) {
	f.gotProduct = product
	return domain.ProductSummary{ProductKey: product, AverageGrade: 4.5, ReviewCount: 2}, f.err
}

func (f *fakeViews) ProductReviews(_ context.Context, product int64, limit int) ([]domain.ReviewView, error) {
	f.gotProduct, f.gotLimit = product, limit
	return []domain.ReviewView{{ReviewID: 100}}, f.err
}

func (f *fakeViews) TopKeywords(_ context.Context, product, category int64, limit int) ([]domain.KeywordCount, error) {
	f.gotProduct, f.gotCat, f.gotLimit = product, category, limit
	return []domain.KeywordCount{{Keyword: "배송", Count: 2}}, f.err
}

func (f *fakeViews) CategoryList(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: 1, Label: "배송"}}, f.err
}

func (f *fakeViews) SentimentCounts(_ context.Context, product, category int64) ([]domain.SentimentCount, error) {
	f.gotProduct, f.gotCat = product, category
	return []domain.SentimentCount{{Sentiment: domain.SentimentPositive, Count: 1}}, f.err
}

func (f *fakeViews) KeywordSentiments(_ context.Context, product, category int64) ([]domain.KeywordSentiment, error) {
	f.gotProduct, f.gotCat = product, category
	return nil, f.err
}

func (f *fakeViews) CategoryReviews(_ context.Context, product, category int64, limit int) ([]domain.ReviewView, error) {
	f.gotProduct, f.gotCat, f.gotLimit = product, category, limit
	return []domain.ReviewView{{ReviewID: 101, Keywords: []string{"배송"}}}, f.err
}

func serve(t *testing.T, views *fakeViews, target string) *httptest.ResponseRecorder {
	t.Helper()

	return serveWith(t, newRouter(views, nil), target)
}

func newRouter(views *fakeViews, m *metrics.Metrics) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(NewHandler(views, logger), m)
}

func serveWith(t *testing.T, router *gin.Engine, target string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRoutes(t *testing.T) {
	cases := []struct {
		target      string
		wantProduct int64
		wantCat     int64
		wantLimit   int
	}{
		{"/api/products/7/summary", 7, 0, 0},
		{"/api/products/7/reviews", 7, 0, defaultReviewLimit},
		{"/api/products/7/reviews?limit=3", 7, 0, 3},
		{"/api/products/7/keywords", 7, 0, defaultTopKeywords},
		{"/api/products/7/categories/2/keywords", 7, 2, defaultCategoryKeywords},
		{"/api/products/7/categories/2/sentiments", 7, 2, 0},
		{"/api/products/7/categories/2/keyword-sentiments", 7, 2, 0},
		{"/api/products/7/categories/2/reviews", 7, 2, defaultCategoryReviewLimit},
	}

	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			views := &fakeViews{}
			rec := serve(t, views, tc.target)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if views.gotProduct != tc.wantProduct || views.gotCat != tc.wantCat || views.gotLimit != tc.wantLimit {
				t.Fatalf("got product=%d category=%d limit=%d", views.gotProduct, views.gotCat, views.gotLimit)
			}
		})
	}
}

func TestProductsJSON(t *testing.T) {
	rec := serve(t, &fakeViews{}, "/api/products")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var products []domain.ProductView
	if err := json.Unmarshal(rec.Body.Bytes(), &products); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(products) != 1 || products[0].CleanName != "Nice  Sofa" {
		t.Fatalf("products = %+v", products)
	}
}

func TestBadRequests(t *testing.T) {
	for _, target := range []string{
		"/api/products/abc/summary",
		"/api/products/0/summary",
		"/api/products/1/categories/x/sentiments",
		"/api/products/1/reviews?limit=-1",
		"/api/products/1/reviews?limit=many",
	} {
		if rec := serve(t, &fakeViews{}, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}

func TestQueryFailure(t *testing.T) {
	rec := serve(t, &fakeViews{err: errors.New("db down")}, "/api/categories")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	if rec := serve(t, &fakeViews{}, "/healthz"); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := serve(t, &fakeViews{}, "/metrics"); rec.Code != http.StatusNotFound {
		t.Fatalf("metrics route without a registry: %d", rec.Code)
	}
}

func TestRequestsAreCounted(t *testing.T) {
	m := metrics.New()
	router := newRouter(&fakeViews{}, m)

	serveWith(t, router, "/api/categories")
	serveWith(t, router, "/api/products/7/summary")
	serveWith(t, router, "/api/products/abc/summary")

	rec := serveWith(t, router, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		`harvester_http_requests_total{method="GET",route="/api/categories",status="200"} 1`,
		`harvester_http_requests_total{method="GET",route="/api/products/:product/summary",status="200"} 1`,
		`harvester_http_requests_total{method="GET",route="/api/products/:product/summary",status="400"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %s in exposition:\n%s", want, body)
		}
	}
}
