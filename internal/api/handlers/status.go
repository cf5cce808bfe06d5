package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/p4udeals/aliexpress-deals-bot/internal/cache"
)

type statusResponse struct {
	Status        string         `json:"status"`
	Version       string         `json:"version,omitempty"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	CacheTTL      string         `json:"cache_ttl"`
	CacheEntries  map[string]int `json:"cache_entries"`
}

// Status reports process uptime and live cache sizes.
func Status(reg *cache.Registry, startedAt time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := statusResponse{
			Status:        "ok",
			Version:       version,
			UptimeSeconds: int64(time.Since(startedAt).Seconds()),
			CacheTTL:      reg.TTL().String(),
			CacheEntries:  reg.Stats(),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
