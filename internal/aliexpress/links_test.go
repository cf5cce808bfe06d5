package aliexpress

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func linkGenerateBody(pairs map[string]string) string {
	type pair struct {
		SourceValue   string `json:"source_value"`
		PromotionLink string `json:"promotion_link"`
	}
	var list []pair
	for source, promo := range pairs {
		list = append(list, pair{SourceValue: source, PromotionLink: promo})
	}
	payload := map[string]any{
		"aliexpress_affiliate_link_generate_response": map[string]any{
			"resp_result": map[string]any{
				"resp_code": 200,
				"result": map[string]any{
					"promotion_links": map[string]any{
						"promotion_link": list,
					},
				},
			},
		},
	}
	body, _ := json.Marshal(payload)
	return string(body)
}

func TestGenerateAffiliateLinksBatch_SingleVendorCall(t *testing.T) {
	urls := []string{
		"https://www.aliexpress.com/item/111.html",
		"https://www.aliexpress.com/item/222.html",
		"https://www.aliexpress.com/item/333.html",
	}
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, linkGenerateBody(map[string]string{
			urls[0]: "https://s.click.aliexpress.com/e/_aaa",
			urls[1]: "https://s.click.aliexpress.com/e/_bbb",
			urls[2]: "https://s.click.aliexpress.com/e/_ccc",
		}))
	})

	results := c.GenerateAffiliateLinksBatch(context.Background(), urls)

	if rec.count() != 1 {
		t.Fatalf("gateway called %d times, want 1", rec.count())
	}
	if len(results) != len(urls) {
		t.Fatalf("result has %d entries, want %d", len(results), len(urls))
	}
	for _, u := range urls {
		if results[u] == "" {
			t.Errorf("no link for %s", u)
		}
	}

	form := rec.last()
	if got := form.Get("method"); got != "aliexpress.affiliate.link.generate" {
		t.Errorf("method = %q", got)
	}
	if got := form.Get("promotion_link_type"); got != "0" {
		t.Errorf("promotion_link_type = %q", got)
	}
	if got := form.Get("tracking_id"); got != "test-tracking" {
		t.Errorf("tracking_id = %q", got)
	}
	sourceValues := form.Get("source_values")
	for _, u := range urls {
		if !strings.Contains(sourceValues, u) {
			t.Errorf("source_values missing %s", u)
		}
	}
	if got := len(strings.Split(sourceValues, ",")); got != 3 {
		t.Errorf("source_values has %d entries, want 3", got)
	}
}

func TestGenerateAffiliateLinksBatch_AllCachedSkipsVendor(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("gateway should not be called")
	})
	c.links.Set("https://www.aliexpress.com/item/111.html", "https://s.click.aliexpress.com/e/_aaa")
	c.links.Set("https://www.aliexpress.com/item/222.html", "https://s.click.aliexpress.com/e/_bbb")

	results := c.GenerateAffiliateLinksBatch(context.Background(), []string{
		"https://www.aliexpress.com/item/111.html",
		"https://www.aliexpress.com/item/222.html",
	})

	if rec.count() != 0 {
		t.Errorf("gateway called %d times, want 0", rec.count())
	}
	if results["https://www.aliexpress.com/item/111.html"] != "https://s.click.aliexpress.com/e/_aaa" {
		t.Errorf("cached link not served: %q", results["https://www.aliexpress.com/item/111.html"])
	}
}

func TestGenerateAffiliateLinksBatch_MixedCacheOnlySendsUncached(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, linkGenerateBody(map[string]string{
			"https://www.aliexpress.com/item/222.html": "https://s.click.aliexpress.com/e/_bbb",
		}))
	})
	c.links.Set("https://www.aliexpress.com/item/111.html", "https://s.click.aliexpress.com/e/_aaa")

	results := c.GenerateAffiliateLinksBatch(context.Background(), []string{
		"https://www.aliexpress.com/item/111.html",
		"https://www.aliexpress.com/item/222.html",
	})

	if rec.count() != 1 {
		t.Fatalf("gateway called %d times, want 1", rec.count())
	}
	if got := rec.last().Get("source_values"); got != "https://www.aliexpress.com/item/222.html" {
		t.Errorf("source_values = %q, want only the uncached URL", got)
	}
	if results["https://www.aliexpress.com/item/111.html"] != "https://s.click.aliexpress.com/e/_aaa" {
		t.Error("cached link missing from results")
	}
	if results["https://www.aliexpress.com/item/222.html"] != "https://s.click.aliexpress.com/e/_bbb" {
		t.Error("fresh link missing from results")
	}
}

func TestGenerateAffiliateLinksBatch_PartialResponse(t *testing.T) {
	urls := []string{
		"https://www.aliexpress.com/item/111.html",
		"https://www.aliexpress.com/item/222.html",
		"https://www.aliexpress.com/item/333.html",
	}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, linkGenerateBody(map[string]string{
			urls[0]: "https://s.click.aliexpress.com/e/_aaa",
			urls[2]: "https://s.click.aliexpress.com/e/_ccc",
		}))
	})

	results := c.GenerateAffiliateLinksBatch(context.Background(), urls)

	if len(results) != 3 {
		t.Fatalf("result has %d entries, want 3", len(results))
	}
	if results[urls[0]] == "" || results[urls[2]] == "" {
		t.Error("returned links missing")
	}
	if results[urls[1]] != "" {
		t.Errorf("unreturned URL should map to empty string, got %q", results[urls[1]])
	}
}

func TestGenerateAffiliateLinksBatch_IgnoresUnrequestedSourceValues(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, linkGenerateBody(map[string]string{
			"https://www.aliexpress.com/item/111.html": "https://s.click.aliexpress.com/e/_aaa",
			"https://www.aliexpress.com/item/999.html": "https://s.click.aliexpress.com/e/_zzz",
		}))
	})

	results := c.GenerateAffiliateLinksBatch(context.Background(), []string{
		"https://www.aliexpress.com/item/111.html",
	})

	if len(results) != 1 {
		t.Fatalf("result has %d entries, want 1", len(results))
	}
	if _, present := results["https://www.aliexpress.com/item/999.html"]; present {
		t.Error("unrequested source_value leaked into results")
	}
}

func TestGenerateAffiliateLinksBatch_ErrorResponse(t *testing.T) {
	urls := []string{"https://www.aliexpress.com/item/111.html"}
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"error_response":{"type":"ISP","code":"ApiCallLimit","msg":"api call limit exceeded"}}`)
	})

	results := c.GenerateAffiliateLinksBatch(context.Background(), urls)

	if results[urls[0]] != "" {
		t.Errorf("expected empty link on API error, got %q", results[urls[0]])
	}
}

func TestGenerateAffiliateLinksBatch_SuccessPopulatesCache(t *testing.T) {
	urls := []string{"https://www.aliexpress.com/item/777.html"}
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, linkGenerateBody(map[string]string{
			urls[0]: "https://s.click.aliexpress.com/e/_ggg",
		}))
	})

	c.GenerateAffiliateLinksBatch(context.Background(), urls)
	second := c.GenerateAffiliateLinksBatch(context.Background(), urls)

	if rec.count() != 1 {
		t.Errorf("gateway called %d times, want 1", rec.count())
	}
	if second[urls[0]] != "https://s.click.aliexpress.com/e/_ggg" {
		t.Errorf("cached link = %q", second[urls[0]])
	}
}
