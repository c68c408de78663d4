package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
)

type healthResponse struct {
	Status        string  `json:"status"`
	Message       string  `json:"message"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Version       string  `json:"version,omitempty"`
	Commit        string  `json:"commit,omitempty"`
	BuildDate     string  `json:"build_date,omitempty"`
	GoVersion     string  `json:"go_version,omitempty"`
}

// Health handles GET /health. Liveness only; storage readiness is a
// separate probe.
func Health(d deps.Deps) http.HandlerFunc {
	start := d.StartTime
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status:        "ok",
			Message:       "service is running",
			Version:       d.Version,
			Commit:        d.Commit,
			BuildDate:     d.BuildDate,
			GoVersion:     d.GoVersion,
			UptimeSeconds: time.Since(start).Seconds(),
		})
	}
}

// Ready handles GET /readyz by pinging the storage backend.
func Ready(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if err := d.Repo.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(healthResponse{Status: "unavailable", Message: "storage is unreachable"})
			return
		}
		_ = json.NewEncoder(w).Encode(healthResponse{Status: "ok", Message: "storage is reachable"})
	}
}
