// file: internal/dlsite/scrape.go
// version: 1.0.0
// guid: d48a2c7e-15f9-4b30-8e6d-a9c3b0f15e72

package dlsite

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/hvtag/hvtag/internal/logging"
	"github.com/hvtag/hvtag/internal/models"
)

// voiceActorLabels are the table headers naming the cast, by locale.
var voiceActorLabels = map[string]bool{
	"Voice Actor": true,
	"声優":          true,
}

// PageInfo is what the product page adds to the API response.
type PageInfo struct {
	Tags        []string
	VoiceActors []string
	CircleName  string
}

// ScrapeProductPage reads genre tags, the cast and the circle name from the
// HTML product page.
func (c *Client) ScrapeProductPage(ctx context.Context, code models.RJCode) (*PageInfo, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pageURL := c.endpoint(fmt.Sprintf("/maniax/work/=/product_id/%s.html", code), nil)
	logging.L().Debug("scraping product page", zap.String("url", pageURL))

	info := &PageInfo{}
	var scrapeErr error

	collector := colly.NewCollector(colly.UserAgent(c.cfg.UserAgent))
	collector.SetClient(c.httpClient)
	collector.SetRequestTimeout(c.cfg.Timeout)

	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		r.Headers.Set("Accept-Language", "en-US")
	})

	collector.OnHTML(".main_genre", func(e *colly.HTMLElement) {
		e.ForEach("a", func(_ int, a *colly.HTMLElement) {
			if tag := strings.TrimSpace(a.Text); tag != "" {
				info.Tags = append(info.Tags, tag)
			}
		})
	})

	collector.OnHTML("th", func(e *colly.HTMLElement) {
		if len(info.VoiceActors) > 0 || !voiceActorLabels[strings.TrimSpace(e.Text)] {
			return
		}
		cell := e.DOM.Parent().Find("td").First().Text()
		info.VoiceActors = splitCast(cell)
	})

	collector.OnHTML(".maker_name a", func(e *colly.HTMLElement) {
		if info.CircleName == "" {
			info.CircleName = strings.TrimSpace(e.Text)
		}
	})

	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode == http.StatusNotFound {
			scrapeErr = fmt.Errorf("%s: %w", code, ErrRemovedWork)
			return
		}
		scrapeErr = fmt.Errorf("failed to scrape %s: %w", code, err)
	})

	if err := collector.Visit(pageURL); err != nil && scrapeErr == nil {
		scrapeErr = fmt.Errorf("failed to scrape %s: %w", code, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scrapeErr != nil {
		return nil, scrapeErr
	}
	return info, nil
}

// splitCast splits "A / B/C" into trimmed names.
func splitCast(cell string) []string {
	var names []string
	for _, part := range strings.Split(cell, "/") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}
