package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/p4udeals/aliexpress-deals-bot/internal/config"
)

const productPageHTML = `<!DOCTYPE html>
<html>
<head>
<title>page title tag</title>
<meta property="og:title" content="Wireless Earbuds Pro" />
<meta property="og:image" content="https://ae01.alicdn.com/kf/abc.jpg" />
<meta property="og:url" content="https://www.aliexpress.com/item/111.html" />
</head>
<body><h1>irrelevant</h1></body>
</html>`

func newTestScraper(t *testing.T, handler http.HandlerFunc) (*Scraper, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s := New(&config.Config{
		HTTPTimeout: 5 * time.Second,
		UserAgent:   "test-agent/1.0",
	})
	s.pageURL = srv.URL + "/item/"
	return s, srv
}

func TestProductPage_ExtractsOpenGraph(t *testing.T) {
	var gotUA, gotPath string
	s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotPath = r.URL.Path
		w.Write([]byte(productPageHTML))
	})

	title, image, ok := s.ProductPage(context.Background(), "111")
	if !ok {
		t.Fatal("expected scrape to succeed")
	}
	if title != "Wireless Earbuds Pro" {
		t.Errorf("title = %q", title)
	}
	if image != "https://ae01.alicdn.com/kf/abc.jpg" {
		t.Errorf("image = %q", image)
	}
	if gotUA != "test-agent/1.0" {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if gotPath != "/item/111.html" {
		t.Errorf("path = %q", gotPath)
	}
}

func TestProductPage_MissingTitleFails(t *testing.T) {
	s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta property="og:image" content="x.jpg"></head></html>`))
	})
	if _, _, ok := s.ProductPage(context.Background(), "222"); ok {
		t.Error("expected failure without og:title")
	}
}

func TestProductPage_TitleWithoutImage(t *testing.T) {
	s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><meta property="og:title" content="Just a Title"></head></html>`))
	})
	title, image, ok := s.ProductPage(context.Background(), "333")
	if !ok {
		t.Fatal("title alone should be enough")
	}
	if title != "Just a Title" || image != "" {
		t.Errorf("got %q %q", title, image)
	}
}

func TestProductPage_Non200Fails(t *testing.T) {
	s, _ := newTestScraper(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "captcha", http.StatusForbidden)
	})
	if _, _, ok := s.ProductPage(context.Background(), "444"); ok {
		t.Error("expected failure on 403")
	}
}

func TestExtractOpenGraph_FirstValueWins(t *testing.T) {
	doc := `<head>
<meta property="og:title" content="First">
<meta property="og:title" content="Second">
<meta property="og:image" content="first.jpg">
</head>`
	title, image := extractOpenGraph(strings.NewReader(doc))
	if title != "First" {
		t.Errorf("title = %q", title)
	}
	if image != "first.jpg" {
		t.Errorf("image = %q", image)
	}
}

func TestExtractOpenGraph_MalformedDocument(t *testing.T) {
	title, image := extractOpenGraph(strings.NewReader("<<<not html"))
	if title != "" || image != "" {
		t.Errorf("got %q %q from garbage input", title, image)
	}
}
