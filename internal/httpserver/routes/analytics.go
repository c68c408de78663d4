package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/httpserver/handlers"
)

func init() { Register(registerAnalytics) }

func registerAnalytics(r chi.Router, d deps.Deps) {
	if !d.EnableAnalytics {
		return
	}
	r.Get("/api/analytics", handlers.Analytics(d))
}
