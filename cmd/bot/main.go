package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/p4udeals/aliexpress-deals-bot/internal/aliexpress"
	"github.com/p4udeals/aliexpress-deals-bot/internal/api"
	"github.com/p4udeals/aliexpress-deals-bot/internal/bot"
	"github.com/p4udeals/aliexpress-deals-bot/internal/cache"
	"github.com/p4udeals/aliexpress-deals-bot/internal/config"
	"github.com/p4udeals/aliexpress-deals-bot/internal/errorreporting"
	"github.com/p4udeals/aliexpress-deals-bot/internal/logger"
	"github.com/p4udeals/aliexpress-deals-bot/internal/offers"
	"github.com/p4udeals/aliexpress-deals-bot/internal/resolver"
	"github.com/p4udeals/aliexpress-deals-bot/internal/scrape"
	"github.com/p4udeals/aliexpress-deals-bot/internal/secrets"
	"github.com/p4udeals/aliexpress-deals-bot/internal/server"
	"github.com/p4udeals/aliexpress-deals-bot/internal/tracing"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (falling back to system env)")
	}

	cfg := config.Load()
	logger.Init(cfg.LogLevel)

	if missing := cfg.Validate(); len(missing) > 0 {
		logger.Error("Missing required configuration", "vars", strings.Join(missing, ", "))
		log.Fatalf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	logger.Info("Starting AliExpress deals bot",
		"app_key", secrets.Mask(cfg.AppKey),
		"tracking_id", cfg.TrackingID,
		"currency", cfg.TargetCurrency,
		"language", cfg.TargetLanguage,
		"country", cfg.QueryCountry,
		"cache_ttl", cfg.CacheTTL)

	if err := errorreporting.Init(cfg.SentryEnvironment); err != nil {
		logger.Warn("Failed to initialize error reporting", "error", err)
	} else if errorreporting.IsSentryEnabled() {
		logger.Info("Error reporting initialized", "environment", cfg.SentryEnvironment)
		defer errorreporting.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init("aliexpress-deals-bot")
	if err != nil {
		logger.Warn("Failed to initialize tracing", "error", err)
	} else if cfg.OTELEnabled {
		logger.Info("Tracing initialized", "endpoint", cfg.OTELEndpoint, "sample_rate", cfg.OTELSampleRate)
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("Failed to shutdown tracer", "error", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := cache.NewRegistry(cfg.CacheTTL)
	products := cache.NewIn[aliexpress.Product](registry, "product")
	links := cache.NewIn[string](registry, "link")
	resolvedURLs := cache.NewIn[string](registry, "resolved_url")
	go registry.StartSweeper(ctx, cfg.CacheSweepInterval)

	client := aliexpress.NewClient(cfg, products, links)
	rslv := resolver.New(cfg.QueryCountry, resolvedURLs, cfg.ShortLinkTimeout)
	scraper := scrape.New(cfg)
	processor := bot.NewProcessor(client, client, scraper, offers.Default())

	statusSrv := server.New(cfg.StatusPort, api.NewRouter(registry, time.Now(), cfg.SentryRelease))
	go func() {
		if err := statusSrv.Start(); err != nil {
			logger.Error("Status server failed", "error", err)
		}
	}()

	b, err := bot.New(cfg, rslv, processor)
	if err != nil {
		logger.Error("Failed to create bot", "error", err)
		log.Fatalf("failed to create bot: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Received shutdown signal")
		cancel()
	}()

	if err := b.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("Bot stopped with error", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := statusSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Status server shutdown failed", "error", err)
	}
	logger.Info("Bot shut down")
}
