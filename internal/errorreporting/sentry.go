package errorreporting

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Secret patterns to scrub from error messages before they leave the process.
var secretPatterns = []*regexp.Regexp{
	// Telegram bot tokens (numeric id, colon, 35-char secret)
	regexp.MustCompile(`\b\d{8,10}:[A-Za-z0-9_-]{35}\b`),
	// AliExpress app secrets and generic api keys/tokens
	regexp.MustCompile(`(?i)(app[_-]?secret|api[_-]?key|token|secret)["\s:=]+[a-zA-Z0-9_-]{16,}`),
	// Affiliate tracking signatures in signed request URLs
	regexp.MustCompile(`(?i)sign=[A-F0-9]{32,}`),
	// Email addresses
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	// IP addresses
	regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
}

// Init initializes Sentry error reporting. A missing DSN disables reporting
// without error.
func Init(environment string) error {
	dsn := os.Getenv("SENTRY_DSN")
	if dsn == "" {
		return nil
	}

	sampleRate := 1.0
	if os.Getenv("ENV") == "production" {
		sampleRate = 0.1
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          getRelease(),
		TracesSampleRate: sampleRate,
		BeforeSend:       beforeSend,
		AttachStacktrace: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Sentry: %w", err)
	}
	return nil
}

func getRelease() string {
	if release := os.Getenv("SENTRY_RELEASE"); release != "" {
		return release
	}
	if version := os.Getenv("SERVICE_VERSION"); version != "" {
		return version
	}
	return "dev"
}

// beforeSend scrubs credentials and PII before events leave the process.
func beforeSend(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event.Exception != nil {
		for i := range event.Exception {
			event.Exception[i].Value = scrubSecrets(event.Exception[i].Value)
		}
	}
	if event.Message != "" {
		event.Message = scrubSecrets(event.Message)
	}
	if event.Extra != nil {
		for key, value := range event.Extra {
			if str, ok := value.(string); ok {
				event.Extra[key] = scrubSecrets(str)
			}
		}
	}
	if event.Request != nil {
		if event.Request.Headers != nil {
			delete(event.Request.Headers, "Authorization")
			delete(event.Request.Headers, "Cookie")
		}
		event.Request.QueryString = ""
	}
	return event
}

func scrubSecrets(text string) string {
	result := text
	for _, pattern := range secretPatterns {
		result = pattern.ReplaceAllString(result, "[REDACTED]")
	}
	return result
}

// ScrubSecrets exposes the scrubbing function for external use.
func ScrubSecrets(text string) string {
	return scrubSecrets(text)
}

// CaptureError captures an error and sends it to Sentry.
func CaptureError(err error) {
	if err == nil {
		return
	}
	sentry.CaptureException(err)
}

// CaptureErrorWithContext captures an error with additional tags and extras.
func CaptureErrorWithContext(err error, tags map[string]string, extras map[string]interface{}) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		for k, v := range extras {
			scope.SetExtra(k, v)
		}
		sentry.CaptureException(err)
	})
}

// AddBreadcrumb adds a breadcrumb for debugging context.
func AddBreadcrumb(category, message string, level sentry.Level) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Category:  category,
		Message:   message,
		Level:     level,
		Timestamp: time.Now(),
	})
}

// Flush waits for all events to be sent to Sentry.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsSentryEnabled returns true if Sentry is configured.
func IsSentryEnabled() bool {
	return os.Getenv("SENTRY_DSN") != ""
}

// ValidateDSN checks if the provided DSN is plausibly valid.
func ValidateDSN(dsn string) error {
	if !strings.HasPrefix(dsn, "https://") && !strings.HasPrefix(dsn, "http://") {
		return fmt.Errorf("invalid Sentry DSN format")
	}
	return nil
}
