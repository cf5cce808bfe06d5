package bot

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/p4udeals/aliexpress-deals-bot/internal/aliexpress"
	"github.com/p4udeals/aliexpress-deals-bot/internal/errorreporting"
	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
	"github.com/p4udeals/aliexpress-deals-bot/internal/metrics"
	"github.com/p4udeals/aliexpress-deals-bot/internal/offers"
	"github.com/p4udeals/aliexpress-deals-bot/internal/resolver"
	"github.com/p4udeals/aliexpress-deals-bot/internal/tracing"
)

// ProductFetcher returns product metadata from the affiliate API.
type ProductFetcher interface {
	FetchProductDetails(ctx context.Context, productID string) (aliexpress.Product, bool)
}

// LinkGenerator turns target URLs into affiliate links in one vendor call.
type LinkGenerator interface {
	GenerateAffiliateLinksBatch(ctx context.Context, targetURLs []string) map[string]string
}

// PageScraper recovers title and image from the public product page.
type PageScraper interface {
	ProductPage(ctx context.Context, productID string) (title, imageURL string, ok bool)
}

// Reply is everything needed to render one product message.
type Reply struct {
	Product aliexpress.Product
	// Links maps offer key to affiliate link; "" means generation failed
	// for that offer.
	Links        map[string]string
	SuccessCount int
	// Failed marks a product whose pipeline panicked; the reply carries
	// only the product id for an apology message.
	Failed bool
}

// Processor turns a resolved product reference into a Reply. It owns the
// fetch-details/generate-links pipeline; Telegram specifics stay in Bot.
type Processor struct {
	fetcher ProductFetcher
	linker  LinkGenerator
	scraper PageScraper
	offers  []offers.Offer
}

func NewProcessor(fetcher ProductFetcher, linker LinkGenerator, scraper PageScraper, offerSet []offers.Offer) *Processor {
	return &Processor{
		fetcher: fetcher,
		linker:  linker,
		scraper: scraper,
		offers:  offerSet,
	}
}

// Offers returns the offer set in display order.
func (p *Processor) Offers() []offers.Offer {
	return p.offers
}

// Process builds the reply for one product: metadata (API, then scrape
// fallback, then placeholder), offer target URLs, and affiliate links from
// a single batch call.
func (p *Processor) Process(ctx context.Context, ref resolver.ProductRef) Reply {
	ctx, span := tracing.StartSpan(ctx, "bot.process_product")
	defer span.End()

	product := p.fetchProductInfo(ctx, ref.ID)
	metrics.ProductsProcessed.WithLabelValues(string(product.Source)).Inc()

	targets := make(map[string]string, len(p.offers))
	targetList := make([]string, 0, len(p.offers))
	for _, offer := range p.offers {
		u := offer.TargetURL(ref.BaseURL, ref.ID)
		targets[offer.Key] = u
		targetList = append(targetList, u)
	}

	linksByURL := p.linker.GenerateAffiliateLinksBatch(ctx, targetList)

	reply := Reply{
		Product: product,
		Links:   make(map[string]string, len(p.offers)),
	}
	for _, offer := range p.offers {
		link := linksByURL[targets[offer.Key]]
		reply.Links[offer.Key] = link
		if link != "" {
			reply.SuccessCount++
		} else {
			logger.Warn("No affiliate link for offer",
				"offer", offer.Key, "product_id", ref.ID, "target", targets[offer.Key])
		}
	}

	logger.Info("Processed product",
		"product_id", ref.ID, "source", string(product.Source), "links", reply.SuccessCount)
	return reply
}

// ProcessAll fans out over the resolved products and collects replies in
// input order. Each product degrades independently; a failed one still
// yields a placeholder reply.
func (p *Processor) ProcessAll(ctx context.Context, refs []resolver.ProductRef) []Reply {
	replies := make([]Reply, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("product %s pipeline panicked: %v", ref.ID, r)
					logger.Error("Recovered from product pipeline panic",
						"product_id", ref.ID, "error", r)
					errorreporting.CaptureError(err)
					replies[i] = Reply{
						Product: aliexpress.Product{ID: ref.ID, Source: aliexpress.SourceNone},
						Failed:  true,
					}
				}
			}()
			replies[i] = p.Process(ctx, ref)
			return nil
		})
	}
	g.Wait()
	return replies
}

// fetchProductInfo tries the affiliate API first, then the product page,
// then settles for a placeholder so the offers still go out.
func (p *Processor) fetchProductInfo(ctx context.Context, productID string) aliexpress.Product {
	if product, ok := p.fetcher.FetchProductDetails(ctx, productID); ok {
		return product
	}

	logger.Warn("API had no details, scraping product page", "product_id", productID)
	if title, imageURL, ok := p.scraper.ProductPage(ctx, productID); ok {
		return aliexpress.Product{
			ID:       productID,
			Title:    title,
			ImageURL: imageURL,
			Source:   aliexpress.SourceScraped,
		}
	}

	logger.Warn("No product details available", "product_id", productID)
	return aliexpress.Product{
		ID:     productID,
		Title:  "Product " + productID,
		Source: aliexpress.SourceNone,
	}
}
