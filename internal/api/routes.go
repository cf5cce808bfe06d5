package api

import (
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/p4udeals/aliexpress-deals-bot/internal/api/handlers"
	"github.com/p4udeals/aliexpress-deals-bot/internal/cache"
	"github.com/p4udeals/aliexpress-deals-bot/internal/middleware"
)

// NewRouter builds the status server router. This surface is operational
// only; all user traffic flows through Telegram.
func NewRouter(reg *cache.Registry, startedAt time.Time, version string) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover)

	r.HandleFunc("/healthz", handlers.Health).Methods("GET")
	r.HandleFunc("/status", handlers.Status(reg, startedAt, version)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return r
}
