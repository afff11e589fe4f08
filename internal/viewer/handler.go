// Package viewer serves the read-only dashboard API.
package viewer

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"ReviewHarvester/internal/metrics"
	"ReviewHarvester/internal/ports"
)

const (
	defaultReviewLimit         = 20
	defaultTopKeywords         = 10
	defaultCategoryKeywords    = 3
	defaultCategoryReviewLimit = 5
)

// Handler exposes the view queries as JSON endpoints.
type Handler struct {
	repo   ports.ViewRepository
	logger *slog.Logger
}

// NewHandler builds the HTTP handlers.
func NewHandler(repo ports.ViewRepository, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// NewRouter mounts the API under /api. When m is not nil every request is
// counted and the registry is served on /metrics.
func NewRouter(h *Handler, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	if m != nil {
		r.Use(requestMetrics(m))
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/products", h.Products)
		api.GET("/categories", h.Categories)

		product := api.Group("/products/:product")
		product.GET("/summary", h.Summary)
		product.GET("/reviews", h.Reviews)
		product.GET("/keywords", h.Keywords)

		category := product.Group("/categories/:category")
		category.GET("/sentiments", h.Sentiments)
		category.GET("/keywords", h.CategoryKeywords)
		category.GET("/keyword-sentiments", h.KeywordSentiments)
		category.GET("/reviews", h.CategoryReviews)
	}

	return r
}

// Products lists normalized products.
func (h *Handler) Products(c *gin.Context) {
	products, err := h.repo.ViewProducts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// Categories lists the tracked categories.
func (h *Handler) Categories(c *gin.Context) {
	categories, err := h.repo.CategoryList(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// Summary returns the rating summary of a product.
func (h *Handler) Summary(c *gin.Context) {
	product, ok := idParam(c, "product")
	if !ok {
		return
	}

	summary, err := h.repo.ProductSummary(c.Request.Context(), product)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Reviews returns the newest reviews of a product.
func (h *Handler) Reviews(c *gin.Context) {
	product, ok := idParam(c, "product")
	if !ok {
		return
	}
	limit, ok := limitQuery(c, defaultReviewLimit)
	if !ok {
		return
	}

	reviews, err := h.repo.ProductReviews(c.Request.Context(), product, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

// Keywords returns the top keywords of a product across categories.
func (h *Handler) Keywords(c *gin.Context) {
	product, ok := idParam(c, "product")
	if !ok {
		return
	}
	limit, ok := limitQuery(c, defaultTopKeywords)
	if !ok {
		return
	}

	keywords, err := h.repo.TopKeywords(c.Request.Context(), product, 0, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, keywords)
}

// Sentiments returns per-polarity review counts for a category.
func (h *Handler) Sentiments(c *gin.Context) {
	product, category, ok := productCategory(c)
	if !ok {
		return
	}

	counts, err := h.repo.SentimentCounts(c.Request.Context(), product, category)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// CategoryKeywords returns the top keywords of a category.
func (h *Handler) CategoryKeywords(c *gin.Context) {
	product, category, ok := productCategory(c)
	if !ok {
		return
	}
	limit, ok := limitQuery(c, defaultCategoryKeywords)
	if !ok {
		return
	}

	keywords, err := h.repo.TopKeywords(c.Request.Context(), product, category, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, keywords)
}

// KeywordSentiments returns keyword hits split by polarity.
func (h *Handler) KeywordSentiments(c *gin.Context) {
	product, category, ok := productCategory(c)
	if !ok {
		return
	}

	hits, err := h.repo.KeywordSentiments(c.Request.Context(), product, category)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, hits)
}

// CategoryReviews returns recent reviews mentioning the category.
func (h *Handler) CategoryReviews(c *gin.Context) {
	product, category, ok := productCategory(c)
	if !ok {
		return
	}
	limit, ok := limitQuery(c, defaultCategoryReviewLimit)
	if !ok {
		return
	}

	reviews, err := h.repo.CategoryReviews(c.Request.Context(), product, category, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func requestMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.logger.Error("view query failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
}

func productCategory(c *gin.Context) (int64, int64, bool) {
	product, ok := idParam(c, "product")
	if !ok {
		return 0, 0, false
	}
	category, ok := idParam(c, "category")
	if !ok {
		return 0, 0, false
	}
	return product, category, true
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " id"})
		return 0, false
	}
	return id, true
}

func limitQuery(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return 0, false
	}
	return limit, true
}
