package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ReviewHarvester/internal/config"
	"ReviewHarvester/internal/domain"
	"ReviewHarvester/internal/ports"
)

var buildTokenExpr = regexp.MustCompile(`/_next/static/([^/]+)/_(?:buildManifest|ssgManifest)\.js`)

// OhouFeed reads the storefront ranking and review JSON endpoints.
type OhouFeed struct {
	client *http.Client
	cfg    config.FeedConfig
	logger *slog.Logger
}

var _ ports.Feed = (*OhouFeed)(nil)

// NewOhouFeed wires an HTTP client; a nil client gets the configured timeout.
func NewOhouFeed(client *http.Client, cfg config.FeedConfig, log *slog.Logger) *OhouFeed {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &OhouFeed{client: client, cfg: cfg, logger: log}
}

type ranksPayload struct {
	PageProps struct {
		DehydratedState struct {
			Queries []struct {
				State struct {
					Data struct {
						Products []productRecord `json:"products"`
					} `json:"data"`
				} `json:"state"`
			} `json:"queries"`
		} `json:"dehydratedState"`
	} `json:"pageProps"`
}

type productRecord struct {
	ID        flexibleID `json:"id"`
	BrandName string     `json:"brandName"`
	Name      string     `json:"name"`
}

type reviewsPayload struct {
	Reviews []reviewRecord `json:"reviews"`
}

type reviewRecord struct {
	ID             int64  `json:"id"`
	WriterID       int64  `json:"writer_id"`
	WriterNickname string `json:"writer_nickname"`
	Production     struct {
		ID      flexibleID `json:"id"`
		Explain string     `json:"explain"`
	} `json:"production_information"`
	Review struct {
		StarAvg float64 `json:"star_avg"`
		Comment string  `json:"comment"`
	} `json:"review"`
	CreatedAt string `json:"created_at"`
}

// flexibleID accepts identifiers encoded as JSON strings or numbers.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id %s: %w", data, err)
	}
	*f = flexibleID(n.String())
	return nil
}

// Products discovers the current build token and reads the best-seller list.
func (f *OhouFeed) Products(ctx context.Context) ([]domain.Product, error) {
	token, err := f.buildToken(ctx)
	if err != nil {
		return nil, err
	}
	f.debug("build token resolved", "token", token)

	dataURL, err := f.ranksDataURL(token)
	if err != nil {
		return nil, err
	}

	var payload ranksPayload
	if err := f.getJSON(ctx, dataURL, &payload); err != nil {
		return nil, fmt.Errorf("ranks data: %w", err)
	}

	var products []domain.Product
	for _, q := range payload.PageProps.DehydratedState.Queries {
		for _, rec := range q.State.Data.Products {
			if rec.ID == "" {
				continue
			}
			products = append(products, domain.Product{
				ProductID:   string(rec.ID),
				BrandName:   rec.BrandName,
				ProductName: rec.Name,
			})
		}
		if len(products) > 0 {
			break
		}
	}

	if limit := f.cfg.ProductLimit; limit > 0 && len(products) > limit {
		products = products[:limit]
	}

	f.debug("products fetched", "count", len(products))
	return products, nil
}

// ReviewPage reads one page of a product's reviews ordered newest first.
func (f *OhouFeed) ReviewPage(ctx context.Context, productID string, page int) ([]domain.Review, error) {
	pageURL, err := f.reviewPageURL(productID, page)
	if err != nil {
		return nil, err
	}

	var payload reviewsPayload
	if err := f.getJSON(ctx, pageURL, &payload); err != nil {
		return nil, fmt.Errorf("product %s page %d: %w", productID, page, err)
	}

	reviews := make([]domain.Review, 0, len(payload.Reviews))
	for _, rec := range payload.Reviews {
		reviews = append(reviews, toReview(rec))
	}
	return reviews, nil
}

func (f *OhouFeed) buildToken(ctx context.Context) (string, error) {
	pageURL, err := url.Parse(strings.TrimSuffix(f.cfg.StoreURL, "/") + "/ranks")
	if err != nil {
		return "", fmt.Errorf("invalid store url %s: %w", f.cfg.StoreURL, err)
	}
	query := pageURL.Query()
	query.Set("type", "best")
	query.Set("category_id", f.cfg.CategoryID)
	pageURL.RawQuery = query.Encode()

	resp, err := f.get(ctx, pageURL.String())
	if err != nil {
		return "", fmt.Errorf("ranks page: %w", err)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse ranks page: %w", err)
	}

	return extractBuildToken(doc)
}

func extractBuildToken(doc *goquery.Document) (string, error) {
	var token string
	doc.Find("script[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if m := buildTokenExpr.FindStringSubmatch(src); len(m) == 2 {
			token = m[1]
			return false
		}
		return true
	})
	if token != "" {
		return token, nil
	}

	raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if raw != "" {
		var next struct {
			BuildID string `json:"buildId"`
		}
		if err := json.Unmarshal([]byte(raw), &next); err == nil && next.BuildID != "" {
			return next.BuildID, nil
		}
	}

	return "", fmt.Errorf("build token not found on ranks page")
}

func (f *OhouFeed) ranksDataURL(token string) (string, error) {
	parsed, err := url.Parse(strings.TrimSuffix(f.cfg.StoreURL, "/") + "/_next/data/" + url.PathEscape(token) + "/ko-KR/ranks.json")
	if err != nil {
		return "", fmt.Errorf("invalid store url %s: %w", f.cfg.StoreURL, err)
	}
	query := parsed.Query()
	query.Set("type", "best")
	query.Set("category_id", f.cfg.CategoryID)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (f *OhouFeed) reviewPageURL(productID string, page int) (string, error) {
	parsed, err := url.Parse(strings.TrimSuffix(f.cfg.ReviewURL, "/") + "/production_reviews.json")
	if err != nil {
		return "", fmt.Errorf("invalid review url %s: %w", f.cfg.ReviewURL, err)
	}
	query := parsed.Query()
	query.Set("production_id", productID)
	query.Set("page", strconv.Itoa(page))
	query.Set("order", "recent")
	query.Set("photo_review_only", "")
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (f *OhouFeed) getJSON(ctx context.Context, target string, v any) error {
	resp, err := f.get(ctx, target)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (f *OhouFeed) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-origin")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("storefront returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseCreatedAt(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func toReview(rec reviewRecord) domain.Review {
	return domain.Review{
		ReviewID:   rec.ID,
		ProductID:  string(rec.Production.ID),
		CustomerID: rec.WriterID,
		Nickname:   rec.WriterNickname,
		Options:    rec.Production.Explain,
		Grade:      rec.Review.StarAvg,
		Comment:    rec.Review.Comment,
		EventDate:  parseCreatedAt(rec.CreatedAt),
	}
}

func (f *OhouFeed) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
