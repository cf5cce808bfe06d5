package aliexpress

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
	"github.com/p4udeals/aliexpress-deals-bot/internal/metrics"
	"github.com/p4udeals/aliexpress-deals-bot/internal/tracing"
)

// GenerateAffiliateLinksBatch generates affiliate links for target URLs.
// Cached links are served directly; all uncached URLs go to the vendor in a
// single aliexpress.affiliate.link.generate call, never one call per URL.
//
// The returned map contains every input URL; a URL that could not be
// affiliate-ized maps to the empty string. Links are cached keyed by the
// exact target URL string sent to the vendor, so URL construction upstream
// must stay byte-stable for the cache to hit.
func (c *Client) GenerateAffiliateLinksBatch(ctx context.Context, targetURLs []string) map[string]string {
	results := make(map[string]string, len(targetURLs))
	var uncached []string

	for _, u := range targetURLs {
		if link, ok := c.links.Get(u); ok {
			results[u] = link
			continue
		}
		results[u] = ""
		uncached = append(uncached, u)
	}

	if len(uncached) == 0 {
		logger.Info("All affiliate links served from cache", "count", len(targetURLs))
		return results
	}

	ctx, span := tracing.StartSpan(ctx, "aliexpress.generate_links_batch")
	defer span.End()

	metrics.BatchLinkRequestSize.Observe(float64(len(uncached)))
	logger.Info("Generating affiliate links", "uncached", len(uncached), "cached", len(targetURLs)-len(uncached))

	// URLs are sent exactly as given; offer builders upstream are responsible
	// for producing vendor-ready target URLs.
	body, err := c.execute(ctx, methodLinkGenerate, map[string]string{
		"promotion_link_type": "0",
		"source_values":       strings.Join(uncached, ","),
		"tracking_id":         c.trackingID,
	})

	var pairs []promotionLink
	if err == nil {
		pairs = c.decodePromotionLinks(body)
	}

	requested := make(map[string]bool, len(uncached))
	for _, u := range uncached {
		requested[u] = true
	}

	for _, pair := range pairs {
		if pair.SourceValue == "" || pair.PromotionLink == "" {
			logger.Warn("Incomplete promotion link pair in batch response", "source_value", pair.SourceValue)
			continue
		}
		if !requested[pair.SourceValue] {
			// Vendor noise must not leak into the result map.
			logger.Warn("Unrequested source_value in batch response", "source_value", pair.SourceValue)
			continue
		}
		results[pair.SourceValue] = pair.PromotionLink
		c.links.Set(pair.SourceValue, pair.PromotionLink)
	}

	for _, u := range uncached {
		if results[u] == "" {
			logger.Warn("No affiliate link returned for requested URL", "url", u)
		}
	}

	return results
}

// decodePromotionLinks parses the batch response down to its source/link
// pairs. Any layer failing yields an empty list; callers treat that as
// "every uncached URL failed," not as an error.
func (c *Client) decodePromotionLinks(body []byte) []promotionLink {
	if len(body) == 0 {
		logger.Error("Empty batch link response body")
		return nil
	}

	var envelope linkGenerateEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.Error("Failed to decode batch link response", "error", err, "body", truncateBody(body))
		return nil
	}

	if envelope.ErrorResponse != nil {
		apiErr := classifyErrorResponse(envelope.ErrorResponse)
		logger.Error("API error for batch link generation",
			"code", apiErr.Code, "msg", apiErr.Message, "retryable", apiErr.Retryable)
		return nil
	}

	if envelope.Response == nil {
		logger.Error("Missing link generate response envelope", "body", truncateBody(body))
		return nil
	}
	result := envelope.Response.RespResult
	if result == nil {
		logger.Error("Missing resp_result in batch link response")
		return nil
	}
	if result.RespCode != 200 {
		logger.Error("Non-success resp_code for batch link generation",
			"resp_code", result.RespCode, "resp_msg", result.RespMsg)
		return nil
	}
	if result.Result == nil {
		logger.Error("Missing result in batch link response")
		return nil
	}

	links := result.Result.PromotionLinks.PromotionLink
	if len(links) == 0 {
		logger.Warn("No promotion links in batch response")
		return nil
	}

	logger.Info("Batch API returned links", "count", len(links))
	return links
}
