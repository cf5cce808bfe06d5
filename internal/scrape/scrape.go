// Package scrape recovers product title and image from the public product
// page when the affiliate API has no data for an id. Price is never scraped;
// the page renders it client-side.
package scrape

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/net/html"

	"github.com/p4udeals/aliexpress-deals-bot/internal/config"
	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
	"github.com/p4udeals/aliexpress-deals-bot/internal/metrics"
)

const defaultPageURL = "https://www.aliexpress.com/item/"

// Scraper fetches product pages with a browser user agent. AliExpress serves
// a stripped bot page to default Go clients, so the UA matters.
type Scraper struct {
	pageURL   string
	userAgent string
	client    *http.Client
}

func New(cfg *config.Config) *Scraper {
	return &Scraper{
		pageURL:   defaultPageURL,
		userAgent: cfg.UserAgent,
		client: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
	}
}

// ProductPage fetches the product page for an id and pulls title and image
// from its Open Graph meta tags. Returns ok=false on any failure; callers
// degrade to a placeholder.
func (s *Scraper) ProductPage(ctx context.Context, productID string) (title, imageURL string, ok bool) {
	pageURL := s.pageURL + productID + ".html"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", false
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		logger.Warn("Product page fetch failed", "product_id", productID, "error", err)
		metrics.ScrapeFallbacks.WithLabelValues("error").Inc()
		return "", "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warn("Product page returned non-200", "product_id", productID, "status", resp.StatusCode)
		metrics.ScrapeFallbacks.WithLabelValues("error").Inc()
		return "", "", false
	}

	title, imageURL = extractOpenGraph(resp.Body)
	if title == "" {
		logger.Warn("No og:title on product page", "product_id", productID)
		metrics.ScrapeFallbacks.WithLabelValues("missing").Inc()
		return "", "", false
	}

	logger.Info("Scraped product page", "product_id", productID, "duration", time.Since(start))
	metrics.ScrapeFallbacks.WithLabelValues("success").Inc()
	return title, imageURL, true
}

// extractOpenGraph tokenizes the document looking for og:title and og:image
// meta tags. Tokenizing instead of parsing keeps memory flat on the very
// large product pages.
func extractOpenGraph(r io.Reader) (title, imageURL string) {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return title, imageURL
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "meta" || !hasAttr {
				continue
			}
			var property, content string
			for {
				key, val, more := z.TagAttr()
				switch string(key) {
				case "property", "name":
					property = string(val)
				case "content":
					content = string(val)
				}
				if !more {
					break
				}
			}
			switch property {
			case "og:title":
				if title == "" {
					title = content
				}
			case "og:image":
				if imageURL == "" {
					imageURL = content
				}
			}
			if title != "" && imageURL != "" {
				return title, imageURL
			}
		}
	}
}
