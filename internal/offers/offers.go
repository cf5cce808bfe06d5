// Package offers builds the per-product deal page URLs that get turned into
// affiliate links. Each offer produces exactly one target URL from a clean
// product base URL and product id.
package offers

// shareWrapPrefix routes a deal page through the AliExpress share endpoint,
// which is what makes the campaign parameters stick on mobile. The redirect
// URL is deliberately left unescaped; the link generation API expects it raw.
const shareWrapPrefix = "https://star.aliexpress.com/share/share.htm?&redirectUrl="

func wrapShare(rawURL string) string {
	return shareWrapPrefix + rawURL
}

// Offer is one deal channel shown in a reply. TargetURL must be
// deterministic: affiliate links are cached keyed by the exact URL string.
type Offer struct {
	Key   string
	Label string
	build func(baseURL, productID string) string
}

// TargetURL builds the vendor-ready URL for one product.
func (o Offer) TargetURL(baseURL, productID string) string {
	return o.build(baseURL, productID)
}

// CoinSSR is the coin discount page. It is a standalone mobile page keyed by
// product id, so it skips the share wrapper entirely.
func CoinSSR() Offer {
	return Offer{
		Key:   "coin_ssr",
		Label: "🪙 عرض العملات",
		build: func(_, productID string) string {
			return "https://m.aliexpress.com/p/coin-index/index.html?_immersiveMode=true&from=syicon&productIds=" + productID
		},
	}
}

// Static builds an offer that appends a fixed query string to the product
// base URL and wraps it for sharing. The query is a pre-encoded string so
// parameter order stays byte-stable across calls.
func Static(key, label, query string) Offer {
	return Offer{
		Key:   key,
		Label: label,
		build: func(baseURL, _ string) string {
			return wrapShare(baseURL + "?" + query)
		},
	}
}

// BundlesSSR is the bundle deals page keyed by product id.
func BundlesSSR() Offer {
	return Offer{
		Key:   "bundles_ssr",
		Label: "💰 عرض الحزم",
		build: func(_, productID string) string {
			return wrapShare("https://www.aliexpress.com/ssr/300000512/BundleDeals2?disableNav=YES&pha_manifest=ssr&_immersiveMode=true&productIds=" + productID)
		},
	}
}

// CoinProductView is the coin discount applied on the product page itself.
// Not in the default set; kept for campaign experiments.
func CoinProductView() Offer {
	return Offer{
		Key:   "coin_product_view",
		Label: "🪙 عرض العملات (صفحة المنتج)",
		build: func(baseURL, _ string) string {
			return wrapShare(baseURL + "?sourceType=620&channel=coin")
		},
	}
}

// BundlesStandard is the bundle discount applied on the product page itself.
// Not in the default set; BundlesSSR converts better.
func BundlesStandard() Offer {
	return Static("bundles_standard", "💰 عرض الحزم", "sourceType=680&channel=bundles&afSmartRedirect=y")
}

// BigSave and Limited are alternative campaign channels, currently unused in
// the default set.
func BigSave() Offer {
	return Static("bigsave", "💰 Big Save", "sourceType=680&channel=bigSave&afSmartRedirect=y")
}

func Limited() Offer {
	return Static("limited", "⏳ Limited Offers", "sourceType=561&channel=limitedoffers&afSmartRedirect=y")
}

// Default returns the active offers in display order.
func Default() []Offer {
	return []Offer{
		CoinSSR(),
		Static("super", "🔥 عروض السوبر", "sourceType=562&channel=sd&afSmartRedirect=y"),
		Static("bundels", "🎁 الحزم مباشرة", "sourceType=570&channel=bundles&afSmartRedirect=y"),
		BundlesSSR(),
	}
}
