package config

import (
	"os"
	"strings"
	"time"

	"github.com/p4udeals/aliexpress-deals-bot/internal/utils"
)

// Config holds application configuration derived from environment variables.
type Config struct {
	// Telegram
	TelegramBotToken string

	// AliExpress open platform credentials
	AppKey     string
	AppSecret  string
	TrackingID string

	// Affiliate query parameters substituted into API requests
	TargetCurrency string
	TargetLanguage string
	QueryCountry   string

	// Cache lifecycle
	CacheTTL           time.Duration // derived from CACHE_EXPIRY_DAYS
	CacheSweepInterval time.Duration

	// HTTP behavior
	HTTPTimeout      time.Duration // vendor API calls (incl. batch link generation)
	ShortLinkTimeout time.Duration // redirect-following short link resolution
	HTTPMaxRetries   int
	HTTPRetryBase    time.Duration
	LogHTTPRetries   bool
	UserAgent        string

	// Vendor API pacing
	APIRPS       float64
	APIBurstSize int

	// Status server
	StatusPort int

	// Observability
	LogLevel          string
	OTELEnabled       bool
	OTELEndpoint      string
	OTELSampleRate    float64
	SentryDSN         string
	SentryEnvironment string
	SentryRelease     string
}

var cached *Config

// Load reads env vars once and caches them.
func Load() *Config {
	if cached != nil {
		return cached
	}
	ua := strings.TrimSpace(os.Getenv("HTTP_USER_AGENT"))
	if ua == "" {
		ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	}
	cached = &Config{
		TelegramBotToken: strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")),
		AppKey:           strings.TrimSpace(os.Getenv("ALIEXPRESS_APP_KEY")),
		AppSecret:        strings.TrimSpace(os.Getenv("ALIEXPRESS_APP_SECRET")),
		TrackingID:       envOrDefault("ALIEXPRESS_TRACKING_ID", "bot"),
		TargetCurrency:   envOrDefault("TARGET_CURRENCY", "USD"),
		TargetLanguage:   envOrDefault("TARGET_LANGUAGE", "en"),
		QueryCountry:     envOrDefault("QUERY_COUNTRY", "IL"),

		CacheTTL:           time.Duration(utils.GetEnvAsInt("CACHE_EXPIRY_DAYS", 1)) * 24 * time.Hour,
		CacheSweepInterval: time.Duration(utils.GetEnvAsInt("CACHE_SWEEP_INTERVAL_MIN", 1440)) * time.Minute,

		HTTPTimeout:      time.Duration(utils.GetEnvAsInt("HTTP_TIMEOUT_MS", 15000)) * time.Millisecond,
		ShortLinkTimeout: time.Duration(utils.GetEnvAsInt("SHORTLINK_TIMEOUT_MS", 10000)) * time.Millisecond,
		HTTPMaxRetries:   utils.GetEnvAsInt("HTTP_MAX_RETRIES", 3),
		HTTPRetryBase:    time.Duration(utils.GetEnvAsInt("HTTP_RETRY_BASE_MS", 300)) * time.Millisecond,
		LogHTTPRetries:   utils.GetEnvAsBool("LOG_HTTP_RETRIES", false),
		UserAgent:        ua,

		// AliExpress affiliate API quota is generous; default stays well under it.
		APIRPS:       utils.GetEnvAsFloat("API_RPS", 5.0),
		APIBurstSize: utils.GetEnvAsInt("API_BURST_SIZE", 5),

		StatusPort: utils.GetEnvAsInt("STATUS_PORT", 5000),

		LogLevel:          strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))),
		OTELEnabled:       utils.GetEnvAsBool("OTEL_ENABLED", false),
		OTELEndpoint:      strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
		OTELSampleRate:    utils.GetEnvAsFloat("OTEL_TRACE_SAMPLE_RATE", 0.1),
		SentryDSN:         strings.TrimSpace(os.Getenv("SENTRY_DSN")),
		SentryEnvironment: strings.TrimSpace(os.Getenv("SENTRY_ENVIRONMENT")),
		SentryRelease:     strings.TrimSpace(os.Getenv("SENTRY_RELEASE")),
	}
	if cached.LogLevel == "" {
		cached.LogLevel = "info"
	}
	if cached.SentryEnvironment == "" {
		if env := os.Getenv("ENV"); env != "" {
			cached.SentryEnvironment = env
		} else {
			cached.SentryEnvironment = "development"
		}
	}
	return cached
}

// Validate reports the names of required settings that are missing.
func (c *Config) Validate() []string {
	var missing []string
	if c.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.AppKey == "" {
		missing = append(missing, "ALIEXPRESS_APP_KEY")
	}
	if c.AppSecret == "" {
		missing = append(missing, "ALIEXPRESS_APP_SECRET")
	}
	return missing
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// ResetForTest clears cached config; for use in tests only.
func ResetForTest() { cached = nil }
