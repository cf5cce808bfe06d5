package aliexpress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/p4udeals/aliexpress-deals-bot/internal/cache"
	"github.com/p4udeals/aliexpress-deals-bot/internal/circuitbreaker"
	"github.com/p4udeals/aliexpress-deals-bot/internal/config"
	"github.com/p4udeals/aliexpress-deals-bot/internal/httpx"
	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
	"github.com/p4udeals/aliexpress-deals-bot/internal/metrics"
)

const (
	defaultGatewayURL = "https://api-sg.aliexpress.com/sync"

	methodProductDetail = "aliexpress.affiliate.productdetail.get"
	methodLinkGenerate  = "aliexpress.affiliate.link.generate"

	// queryFields limits the product detail response to what the bot renders.
	queryFields = "product_main_image_url,target_sale_price,product_title,target_sale_price_currency"
)

// Client speaks the AliExpress affiliate open API. Both of its operations
// degrade to "absent" on any failure; errors never cross the client boundary.
type Client struct {
	appKey         string
	appSecret      string
	trackingID     string
	targetCurrency string
	targetLanguage string
	queryCountry   string

	gatewayURL string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *circuitbreaker.CircuitBreaker

	products *cache.Expiring[Product]
	links    *cache.Expiring[string]
}

// NewClient creates a client using the process config and the shared caches.
func NewClient(cfg *config.Config, products *cache.Expiring[Product], links *cache.Expiring[string]) *Client {
	rps := cfg.APIRPS
	if rps <= 0 {
		rps = 5
	}
	burst := cfg.APIBurstSize
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		appKey:         cfg.AppKey,
		appSecret:      cfg.AppSecret,
		trackingID:     cfg.TrackingID,
		targetCurrency: cfg.TargetCurrency,
		targetLanguage: cfg.TargetLanguage,
		queryCountry:   cfg.QueryCountry,
		gatewayURL:     defaultGatewayURL,
		httpClient:     &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:        rate.NewLimiter(rate.Limit(rps), burst),
		breaker: circuitbreaker.New(circuitbreaker.Config{
			Name:             "aliexpress_api",
			FailureThreshold: 5,
			Timeout:          time.Minute,
		}),
		products: products,
		links:    links,
	}
}

// execute signs and issues one gateway call, returning the raw response body.
// The circuit breaker wraps the transport; an open breaker fails fast.
func (c *Client) execute(ctx context.Context, method string, apiParams map[string]string) ([]byte, error) {
	params := map[string]string{
		"method":      method,
		"app_key":     c.appKey,
		"sign_method": "sha256",
		"timestamp":   strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	for k, v := range apiParams {
		params[k] = v
	}
	params["sign"] = signRequest(params, c.appSecret)

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	encoded := form.Encode()

	build := func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}
	pre := func(ctx context.Context, attempt int) error {
		metrics.APIRateLimitWaits.Inc()
		return c.limiter.Wait(ctx)
	}

	start := time.Now()
	var body []byte
	err := c.breaker.Call(func() error {
		resp, err := httpx.DoWithRetryFactory(c.httpClient, build, pre)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway returned status %d", resp.StatusCode)
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	metrics.APIRequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequests.WithLabelValues(method, "error").Inc()
		logger.Error("AliExpress API call failed", "method", method, "error", err)
		return nil, err
	}
	metrics.APIRequests.WithLabelValues(method, "success").Inc()
	return body, nil
}
