package aliexpress

import "encoding/json"

// DetailsSource records where product metadata came from.
type DetailsSource string

const (
	SourceAPI     DetailsSource = "API"
	SourceScraped DetailsSource = "Scraped"
	SourceNone    DetailsSource = "None"
)

// Product is the metadata shown in a reply message. Immutable once returned;
// cached keyed by product id.
type Product struct {
	ID       string
	Title    string
	ImageURL string
	Price    string
	Currency string
	Source   DetailsSource
}

// errorCode is an error_response code. The gateway emits numeric codes on
// some APIs and symbolic ones ("ApiCallLimit") on others, so both JSON forms
// must decode.
type errorCode string

func (c *errorCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = errorCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = errorCode(n.String())
	return nil
}

// errorResponse is the top-level error object the open platform gateway
// returns instead of a result envelope.
type errorResponse struct {
	Type      string    `json:"type"`
	Code      errorCode `json:"code"`
	Msg       string    `json:"msg"`
	SubCode   string    `json:"sub_code"`
	SubMsg    string    `json:"sub_msg"`
	RequestID string    `json:"request_id"`
}

// productDetailEnvelope is the response shape of
// aliexpress.affiliate.productdetail.get.
type productDetailEnvelope struct {
	ErrorResponse *errorResponse `json:"error_response"`
	Response      *struct {
		RespResult *productRespResult `json:"resp_result"`
	} `json:"aliexpress_affiliate_productdetail_get_response"`
}

type productRespResult struct {
	RespCode int    `json:"resp_code"`
	RespMsg  string `json:"resp_msg"`
	Result   *struct {
		Products struct {
			Product []productData `json:"product"`
		} `json:"products"`
	} `json:"result"`
}

type productData struct {
	Title        string `json:"product_title"`
	MainImageURL string `json:"product_main_image_url"`
	SalePrice    string `json:"target_sale_price"`
	Currency     string `json:"target_sale_price_currency"`
}

// linkGenerateEnvelope is the response shape of
// aliexpress.affiliate.link.generate.
type linkGenerateEnvelope struct {
	ErrorResponse *errorResponse `json:"error_response"`
	Response      *struct {
		RespResult *linkRespResult `json:"resp_result"`
	} `json:"aliexpress_affiliate_link_generate_response"`
}

type linkRespResult struct {
	RespCode int    `json:"resp_code"`
	RespMsg  string `json:"resp_msg"`
	Result   *struct {
		PromotionLinks struct {
			PromotionLink []promotionLink `json:"promotion_link"`
		} `json:"promotion_links"`
	} `json:"result"`
}

type promotionLink struct {
	SourceValue   string `json:"source_value"`
	PromotionLink string `json:"promotion_link"`
}
