// file: internal/dlsite/client.go
// version: 1.0.0
// guid: 6b1f0e84-9a3c-4d27-b5e8-c2d7f9a41e06

// Package dlsite fetches work metadata from the DLsite storefront.
package dlsite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"

	"github.com/hvtag/hvtag/internal/cache"
	"github.com/hvtag/hvtag/internal/logging"
	"github.com/hvtag/hvtag/internal/models"
)

// ErrRemovedWork is returned when DLsite no longer lists a work.
var ErrRemovedWork = errors.New("work not found on DLsite (removed or unlisted)")

const maxImageBytes = 20 * 1024 * 1024

// Config holds client settings.
type Config struct {
	BaseURL           string
	Locale            string
	RequestsPerSecond float64
	Timeout           time.Duration
	CacheTTL          time.Duration
	UserAgent         string
}

// DefaultConfig returns settings for the public storefront.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://www.dlsite.com",
		Locale:            "en_US",
		RequestsPerSecond: 1,
		Timeout:           30 * time.Second,
		CacheTTL:          time.Hour,
		UserAgent:         "hvtag/1.0",
	}
}

// Client talks to the DLsite product API and product pages. Every request
// goes through one shared rate limiter.
type Client struct {
	cfg        Config
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	works      *cache.Cache[*models.WorkDetails]
}

// NewClient creates a client with locale and age-check cookies preset.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	if cfg.Locale == "" {
		cfg.Locale = DefaultConfig().Locale
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid DLsite base URL: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	jar.SetCookies(base, []*http.Cookie{
		{Name: "locale", Value: cfg.Locale, Path: "/"},
		{Name: "adultchecked", Value: "1", Path: "/"},
	})

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		cfg:        cfg,
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout, Jar: jar},
		limiter:    rate.NewLimiter(limit, 1),
		works:      cache.New[*models.WorkDetails](cfg.CacheTTL),
	}, nil
}

// ProductInfo is the subset of the product info API the tagger uses.
type ProductInfo struct {
	WorkName    string  `json:"work_name"`
	MakerID     string  `json:"maker_id"`
	MakerName   string  `json:"maker_name"`
	AgeCategory int     `json:"age_category"`
	RateAverage float64 `json:"rate_average_2dp"`
	WorkImage   string  `json:"work_image"`
	RegistDate  string  `json:"regist_date"`
}

// AgeCategoryName maps the numeric API value to a label.
func AgeCategoryName(n int) string {
	switch n {
	case 1:
		return "All Ages"
	case 2:
		return "R15"
	case 3:
		return "R18"
	default:
		return "Other"
	}
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept-Language", "en-US")
	return c.httpClient.Do(req)
}

// ProductInfo queries the product info API for one work.
func (c *Client) ProductInfo(ctx context.Context, code models.RJCode) (*ProductInfo, error) {
	endpoint := c.endpoint("/maniax/product/info/ajax", url.Values{"product_id": {string(code)}})
	logging.L().Debug("querying product info", zap.String("url", endpoint))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to query product info for %s: %w", code, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", code, ErrRemovedWork)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("product info for %s returned status %d", code, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read product info for %s: %w", code, err)
	}
	// Unknown products come back as an empty JSON array.
	if trimmed := bytes.TrimSpace(body); bytes.Equal(trimmed, []byte("[]")) || len(trimmed) == 0 {
		return nil, fmt.Errorf("%s: %w", code, ErrRemovedWork)
	}

	var results map[string]ProductInfo
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode product info for %s: %w", code, err)
	}
	info, ok := results[string(code)]
	if !ok {
		return nil, fmt.Errorf("%s: %w", code, ErrRemovedWork)
	}
	return &info, nil
}

// FetchWork combines the product API with the product page. Results are
// cached per RJ code.
func (c *Client) FetchWork(ctx context.Context, code models.RJCode) (*models.WorkDetails, error) {
	return c.works.GetOrLoad(string(code), func() (*models.WorkDetails, error) {
		info, err := c.ProductInfo(ctx, code)
		if err != nil {
			return nil, err
		}
		page, err := c.ScrapeProductPage(ctx, code)
		if err != nil {
			return nil, err
		}

		details := &models.WorkDetails{
			RJCode:      code,
			Name:        info.WorkName,
			CircleCode:  info.MakerID,
			CircleName:  info.MakerName,
			AgeCategory: AgeCategoryName(info.AgeCategory),
			Rating:      info.RateAverage,
			ImageLink:   absoluteImageURL(info.WorkImage),
			ReleaseDate: info.RegistDate,
			Tags:        page.Tags,
			VoiceActors: page.VoiceActors,
		}
		if details.CircleName == "" {
			details.CircleName = page.CircleName
		}
		return details, nil
	})
}

// absoluteImageURL fixes the protocol-relative links the API returns.
func absoluteImageURL(link string) string {
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	return link
}

// DownloadImage fetches an image through the shared limiter.
func (c *Client) DownloadImage(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := c.get(ctx, imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, fmt.Errorf("unexpected content type: %s", ct)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", maxImageBytes)
	}
	return data, nil
}
