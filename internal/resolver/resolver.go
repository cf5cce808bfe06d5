package resolver

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/p4udeals/aliexpress-deals-bot/internal/cache"
	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
	"github.com/p4udeals/aliexpress-deals-bot/internal/metrics"
	"github.com/p4udeals/aliexpress-deals-bot/internal/utils"
)

const regionalTLDs = `com|ru|es|fr|pt|it|pl|nl|co\.kr|co\.jp|com\.br|com\.tr|com\.vn|us|id|th|ar`

var (
	// urlPattern picks URL-like tokens out of free text: scheme-prefixed URLs,
	// www-prefixed hosts, and bare AliExpress domains with a path.
	urlPattern = regexp.MustCompile(`(?i)https?://[^\s<>"]+|www\.[^\s<>"]+|\b(?:s\.click\.|a\.)?aliexpress\.(?:` + regionalTLDs + `)(?:\.[\w-]+)?/[^\s<>"]*`)

	// bareDomainPattern decides whether a schemeless token is worth prepending
	// https:// to; anything else is discarded.
	bareDomainPattern = regexp.MustCompile(`(?i)^(?:www\.|s\.click\.|a\.)?[\w-]*aliexpress\.(?:` + regionalTLDs + `)`)

	// standardHostPattern matches (regional subdomains of) the product site.
	// Short link hosts are excluded separately since RE2 has no lookahead.
	standardHostPattern = regexp.MustCompile(`(?i)^(?:[\w-]+\.)*aliexpress\.(?:` + regionalTLDs + `)(?:\.[\w-]+)?$`)

	// shortLinkPattern matches the two known redirect shorteners.
	shortLinkPattern = regexp.MustCompile(`(?i)^https?://(?:s\.click\.aliexpress\.com/e/|a\.aliexpress\.com/_)[a-zA-Z0-9_-]+/?`)

	itemPathPattern = regexp.MustCompile(`/item/(\d+)\.html`)
	altPathPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/p/[^/]+/([0-9]+)\.html`),
		regexp.MustCompile(`product/([0-9]+)`),
	}

	shipToPattern = regexp.MustCompile(`_randl_shipto=([^&]+)`)
)

// ProductRef is a resolved product: its numeric id and canonical base URL.
type ProductRef struct {
	ID      string
	BaseURL string
}

// Resolver turns heterogeneous, possibly-shortened AliExpress URLs found in
// chat messages into product ids and canonical base URLs. It is stateless
// apart from the shared resolved-URL cache.
type Resolver struct {
	queryCountry string
	resolved     *cache.Expiring[string]
	client       *http.Client
}

// New creates a resolver. The client follows redirects and is bounded by
// timeout; this is the only timeout applied to short link resolution.
func New(queryCountry string, resolved *cache.Expiring[string], timeout time.Duration) *Resolver {
	return &Resolver{
		queryCountry: queryCountry,
		resolved:     resolved,
		client:       &http.Client{Timeout: timeout},
	}
}

// ExtractCandidateURLs finds potential AliExpress URLs (standard and short)
// in text, first occurrence of each kept.
func (r *Resolver) ExtractCandidateURLs(text string) []string {
	return utils.UniqueStrings(urlPattern.FindAllString(text, -1))
}

// IsStandardProductURL reports whether rawURL's host is (a regional subdomain
// of) the product site and not one of the short link hosts.
func IsStandardProductURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "a.aliexpress.com" || strings.HasPrefix(host, "s.click.") {
		return false
	}
	return standardHostPattern.MatchString(host)
}

// IsShortLinkURL reports whether rawURL is one of the two known shortener forms.
func IsShortLinkURL(rawURL string) bool {
	return shortLinkPattern.MatchString(rawURL)
}

// ExtractProductID extracts the numeric product id from an AliExpress URL.
// Extraction order: productIds query parameter, /item/<id>.html path, then
// the alternate path shapes. First match wins.
func (r *Resolver) ExtractProductID(rawURL string) (string, bool) {
	// The .us storefront uses the same path shapes; normalize before matching.
	rawURL = strings.ReplaceAll(rawURL, ".aliexpress.us", ".aliexpress.com")

	if u, err := url.Parse(rawURL); err == nil {
		if id := u.Query().Get("productIds"); id != "" && isAllDigits(id) {
			return id, true
		}
	}

	if m := itemPathPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1], true
	}

	for _, pattern := range altPathPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			logger.Debug("Extracted product id via alternate pattern", "url", rawURL, "id", m[1])
			return m[1], true
		}
	}

	logger.Debug("Could not extract product id", "url", rawURL)
	return "", false
}

// CleanBaseURL reconstructs the canonical base URL (scheme + host +
// /item/<id>.html) for a product id, discarding path, query and fragment.
func (r *Resolver) CleanBaseURL(rawURL, productID string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		logger.Warn("Could not parse URL for canonicalization", "url", rawURL)
		return "", false
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	clean := url.URL{Scheme: scheme, Host: u.Host, Path: "/item/" + productID + ".html"}
	return clean.String(), true
}

// ResolveShortLink follows redirects for a short URL to find the final
// product page URL. Results are cached by the original short URL text;
// failures are not cached.
func (r *Resolver) ResolveShortLink(ctx context.Context, shortURL string) (string, bool) {
	if cached, ok := r.resolved.Get(shortURL); ok {
		metrics.ShortLinksResolved.WithLabelValues("cached").Inc()
		return cached, true
	}

	finalURL, ok := r.fetchFinalURL(ctx, shortURL)
	if !ok {
		metrics.ShortLinksResolved.WithLabelValues("failed").Inc()
		return "", false
	}

	finalURL = strings.ReplaceAll(finalURL, ".aliexpress.us", ".aliexpress.com")

	// The redirect chain sometimes lands on a storefront for the wrong
	// country. Rewrite the ship-to parameter and refetch once; if the second
	// fetch fails the first result stands.
	if m := shipToPattern.FindStringSubmatch(finalURL); m != nil && m[1] != r.queryCountry {
		corrected := shipToPattern.ReplaceAllString(finalURL, "_randl_shipto="+r.queryCountry)
		logger.Debug("Rewriting ship-to country", "url", corrected, "country", r.queryCountry)
		if refetched, ok := r.fetchFinalURL(ctx, corrected); ok {
			finalURL = strings.ReplaceAll(refetched, ".aliexpress.us", ".aliexpress.com")
		} else {
			logger.Warn("Country-corrected refetch failed, keeping first result", "url", corrected)
		}
	}

	if _, ok := r.ExtractProductID(finalURL); !ok || !IsStandardProductURL(finalURL) {
		logger.Warn("Resolved URL is not a valid product page", "short_url", shortURL, "final_url", finalURL)
		metrics.ShortLinksResolved.WithLabelValues("failed").Inc()
		return "", false
	}

	r.resolved.Set(shortURL, finalURL)
	metrics.ShortLinksResolved.WithLabelValues("resolved").Inc()
	logger.Info("Resolved short link", "short_url", shortURL, "final_url", finalURL)
	return finalURL, true
}

// fetchFinalURL issues a single redirect-following GET and returns the URL
// the chain ended on. Timeouts, transport errors and non-200 final statuses
// all yield false; resolution is never retried.
func (r *Resolver) fetchFinalURL(ctx context.Context, rawURL string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		logger.Error("Failed to build short link request", "url", rawURL, "error", err)
		return "", false
	}

	resp, err := r.client.Do(req)
	if err != nil {
		logger.Error("Failed to resolve short link", "url", rawURL, "error", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("Short link resolution ended on non-200", "url", rawURL, "status", resp.StatusCode)
		return "", false
	}
	return resp.Request.URL.String(), true
}

// ResolveProducts runs the full pipeline over a message text: candidate
// extraction, scheme repair, short link resolution, id extraction and
// canonicalization. Products are deduplicated by id in order of first
// appearance; URLs that fail any step are skipped silently.
func (r *Resolver) ResolveProducts(ctx context.Context, text string) []ProductRef {
	var refs []ProductRef
	seen := make(map[string]bool)

	for _, candidate := range r.ExtractCandidateURLs(text) {
		rawURL := candidate
		if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
			if !bareDomainPattern.MatchString(rawURL) {
				logger.Debug("Skipping candidate without scheme or known domain", "candidate", candidate)
				continue
			}
			rawURL = "https://" + rawURL
		}

		var productURL string
		switch {
		case IsStandardProductURL(rawURL):
			productURL = rawURL
		case IsShortLinkURL(rawURL):
			final, ok := r.ResolveShortLink(ctx, rawURL)
			if !ok {
				logger.Warn("Could not resolve short link", "url", candidate)
				continue
			}
			productURL = final
		default:
			continue
		}

		id, ok := r.ExtractProductID(productURL)
		if !ok {
			continue
		}
		base, ok := r.CleanBaseURL(productURL, id)
		if !ok {
			continue
		}
		if seen[id] {
			logger.Debug("Skipping duplicate product id", "id", id)
			continue
		}
		seen[id] = true
		refs = append(refs, ProductRef{ID: id, BaseURL: base})
	}

	metrics.ProductsResolved.Add(float64(len(refs)))
	return refs
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
