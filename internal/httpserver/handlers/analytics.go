package handlers

import (
	"net/http"

	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
)

// Analytics handles GET /api/analytics with the aggregate summary over
// the whole collection.
func Analytics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := d.Repo.Aggregate(r.Context())
		if err != nil {
			respondDomainError(w, d, err)
			return
		}
		respondData(w, http.StatusOK, summary)
	}
}
