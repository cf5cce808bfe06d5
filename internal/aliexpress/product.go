package aliexpress

import (
	"context"
	"encoding/json"

	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
	"github.com/p4udeals/aliexpress-deals-bot/internal/tracing"
)

// FetchProductDetails returns metadata for a product id, from cache or via
// one aliexpress.affiliate.productdetail.get call. Any network or response
// shape failure yields (zero, false); callers fall back to scraping.
func (c *Client) FetchProductDetails(ctx context.Context, productID string) (Product, bool) {
	if cached, ok := c.products.Get(productID); ok {
		return cached, true
	}

	ctx, span := tracing.StartSpan(ctx, "aliexpress.fetch_product_details")
	defer span.End()

	logger.Info("Fetching product details", "product_id", productID)

	body, err := c.execute(ctx, methodProductDetail, map[string]string{
		"fields":          queryFields,
		"product_ids":     productID,
		"target_currency": c.targetCurrency,
		"target_language": c.targetLanguage,
		"tracking_id":     c.trackingID,
		"country":         c.queryCountry,
	})
	if err != nil {
		return Product{}, false
	}

	data, ok := c.decodeProductDetail(body, productID)
	if !ok {
		return Product{}, false
	}

	product := Product{
		ID:       productID,
		Title:    data.Title,
		ImageURL: data.MainImageURL,
		Price:    data.SalePrice,
		Currency: data.Currency,
		Source:   SourceAPI,
	}
	if product.Title == "" {
		product.Title = "Product " + productID
	}
	if product.Currency == "" {
		product.Currency = c.targetCurrency
	}

	c.products.Set(productID, product)
	logger.Info("Cached product details", "product_id", productID)
	return product, true
}

// decodeProductDetail walks the nested response envelope layer by layer,
// logging exactly which layer broke. Every failure is absent, never an error.
func (c *Client) decodeProductDetail(body []byte, productID string) (productData, bool) {
	if len(body) == 0 {
		logger.Error("Empty product detail response body", "product_id", productID)
		return productData{}, false
	}

	var envelope productDetailEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		logger.Error("Failed to decode product detail response",
			"product_id", productID, "error", err, "body", truncateBody(body))
		return productData{}, false
	}

	if envelope.ErrorResponse != nil {
		apiErr := classifyErrorResponse(envelope.ErrorResponse)
		logger.Error("API error for product detail",
			"product_id", productID, "code", apiErr.Code, "msg", apiErr.Message, "retryable", apiErr.Retryable)
		return productData{}, false
	}

	if envelope.Response == nil {
		logger.Error("Missing productdetail response envelope", "product_id", productID, "body", truncateBody(body))
		return productData{}, false
	}
	result := envelope.Response.RespResult
	if result == nil {
		logger.Error("Missing resp_result in product detail response", "product_id", productID)
		return productData{}, false
	}
	if result.RespCode != 200 {
		logger.Error("Non-success resp_code for product detail",
			"product_id", productID, "resp_code", result.RespCode, "resp_msg", result.RespMsg)
		return productData{}, false
	}
	if result.Result == nil || len(result.Result.Products.Product) == 0 {
		logger.Warn("No products in API response", "product_id", productID)
		return productData{}, false
	}

	return result.Result.Products.Product[0], true
}

// truncateBody bounds response bodies in log output.
func truncateBody(body []byte) string {
	const max = 500
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
