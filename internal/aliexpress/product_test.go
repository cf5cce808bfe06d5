package aliexpress

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func productDetailBody(title, image, price, currency string) string {
	return fmt.Sprintf(`{
		"aliexpress_affiliate_productdetail_get_response": {
			"resp_result": {
				"resp_code": 200,
				"resp_msg": "success",
				"result": {
					"products": {
						"product": [{
							"product_title": %q,
							"product_main_image_url": %q,
							"target_sale_price": %q,
							"target_sale_price_currency": %q
						}]
					}
				}
			}
		}
	}`, title, image, price, currency)
}

func TestFetchProductDetails_Success(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, productDetailBody("Wireless Earbuds", "https://img.example/p.jpg", "12.34", "USD"))
	})

	product, ok := c.FetchProductDetails(context.Background(), "1005006234567")
	if !ok {
		t.Fatal("expected product details")
	}
	if product.ID != "1005006234567" {
		t.Errorf("ID = %q", product.ID)
	}
	if product.Title != "Wireless Earbuds" {
		t.Errorf("Title = %q", product.Title)
	}
	if product.ImageURL != "https://img.example/p.jpg" {
		t.Errorf("ImageURL = %q", product.ImageURL)
	}
	if product.Price != "12.34" || product.Currency != "USD" {
		t.Errorf("Price/Currency = %q %q", product.Price, product.Currency)
	}
	if product.Source != SourceAPI {
		t.Errorf("Source = %q", product.Source)
	}

	form := rec.last()
	if got := form.Get("method"); got != "aliexpress.affiliate.productdetail.get" {
		t.Errorf("method = %q", got)
	}
	if got := form.Get("product_ids"); got != "1005006234567" {
		t.Errorf("product_ids = %q", got)
	}
	if form.Get("sign") == "" {
		t.Error("request not signed")
	}
	if got := form.Get("country"); got != "IL" {
		t.Errorf("country = %q", got)
	}
}

func TestFetchProductDetails_SecondCallServedFromCache(t *testing.T) {
	c, rec := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, productDetailBody("Cached Product", "", "1.00", "USD"))
	})

	if _, ok := c.FetchProductDetails(context.Background(), "111"); !ok {
		t.Fatal("first fetch failed")
	}
	product, ok := c.FetchProductDetails(context.Background(), "111")
	if !ok {
		t.Fatal("cached fetch failed")
	}
	if product.Title != "Cached Product" {
		t.Errorf("Title = %q", product.Title)
	}
	if rec.count() != 1 {
		t.Errorf("gateway called %d times, want 1", rec.count())
	}
}

func TestFetchProductDetails_Defaults(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, productDetailBody("", "", "9.99", ""))
	})

	product, ok := c.FetchProductDetails(context.Background(), "222")
	if !ok {
		t.Fatal("expected product details")
	}
	if product.Title != "Product 222" {
		t.Errorf("Title = %q, want placeholder", product.Title)
	}
	if product.Currency != "USD" {
		t.Errorf("Currency = %q, want target currency", product.Currency)
	}
}

func TestFetchProductDetails_Failures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"invalid json", "<html>nope</html>"},
		{"error response", `{"error_response":{"type":"ISV","code":"InvalidSignature","msg":"Invalid signature"}}`},
		{"missing envelope", `{}`},
		{"missing resp_result", `{"aliexpress_affiliate_productdetail_get_response":{}}`},
		{"non-success resp_code", `{"aliexpress_affiliate_productdetail_get_response":{"resp_result":{"resp_code":405,"resp_msg":"denied"}}}`},
		{"empty product list", `{"aliexpress_affiliate_productdetail_get_response":{"resp_result":{"resp_code":200,"result":{"products":{"product":[]}}}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.body)
			})
			if _, ok := c.FetchProductDetails(context.Background(), "333"); ok {
				t.Error("expected absence")
			}
		})
	}
}

func TestFetchProductDetails_GatewayError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if _, ok := c.FetchProductDetails(context.Background(), "444"); ok {
		t.Error("expected absence on gateway 500")
	}
}

func TestFetchProductDetails_FailureNotCached(t *testing.T) {
	calls := 0
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			writeJSON(w, `{}`)
			return
		}
		writeJSON(w, productDetailBody("Recovered", "", "5.00", "USD"))
	})

	if _, ok := c.FetchProductDetails(context.Background(), "555"); ok {
		t.Fatal("expected first fetch to fail")
	}
	product, ok := c.FetchProductDetails(context.Background(), "555")
	if !ok {
		t.Fatal("expected second fetch to succeed")
	}
	if product.Title != "Recovered" {
		t.Errorf("Title = %q", product.Title)
	}
}
