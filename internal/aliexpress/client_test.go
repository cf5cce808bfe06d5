package aliexpress

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/p4udeals/aliexpress-deals-bot/internal/cache"
	"github.com/p4udeals/aliexpress-deals-bot/internal/config"
)

// gatewayRecorder captures every form-encoded request the fake gateway sees.
type gatewayRecorder struct {
	mu       sync.Mutex
	requests []url.Values
}

func (g *gatewayRecorder) record(r *http.Request) {
	if err := r.ParseForm(); err != nil {
		return
	}
	g.mu.Lock()
	g.requests = append(g.requests, r.PostForm)
	g.mu.Unlock()
}

func (g *gatewayRecorder) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.requests)
}

func (g *gatewayRecorder) last() url.Values {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return nil
	}
	return g.requests[len(g.requests)-1]
}

// newTestClient wires a Client at a fake gateway. The handler receives the
// request after the recorder has captured its form values.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *gatewayRecorder) {
	t.Helper()

	// Keep transport failures fast and deterministic.
	t.Setenv("HTTP_MAX_RETRIES", "0")
	t.Setenv("HTTP_RETRY_BASE_MS", "1")
	config.ResetForTest()
	t.Cleanup(config.ResetForTest)

	rec := &gatewayRecorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.record(r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		AppKey:         "test-app-key",
		AppSecret:      "test-app-secret",
		TrackingID:     "test-tracking",
		TargetCurrency: "USD",
		TargetLanguage: "en",
		QueryCountry:   "IL",
		HTTPTimeout:    5 * time.Second,
		APIRPS:         1000,
		APIBurstSize:   1000,
	}
	products := cache.New[Product]("products_test", time.Hour)
	links := cache.New[string]("links_test", time.Hour)

	c := NewClient(cfg, products, links)
	c.gatewayURL = srv.URL
	return c, rec
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(body))
}
