package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/export"
	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/logger"
)

// ExportContacts handles GET /api/contacts/export?format=csv|vcard.
// The export covers the current filtered set: the same search and
// filter parameters as the listing apply, without pagination.
func ExportContacts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := parseListOptions(r, d)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		opts.Page = 0
		opts.PageSize = 0

		contacts, _, err := d.Repo.List(r.Context(), opts)
		if err != nil {
			respondDomainError(w, d, err)
			return
		}

		format := r.URL.Query().Get("format")
		if format == "" {
			format = "csv"
		}
		switch format {
		case "csv":
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", `attachment; filename="contacts.csv"`)
			if err := export.WriteCSV(w, contacts); err != nil {
				d.Logger.Error("csv export failed", logger.Error(err))
			}
		case "vcard":
			w.Header().Set("Content-Type", "text/vcard")
			w.Header().Set("Content-Disposition", `attachment; filename="contacts.vcf"`)
			if err := export.WriteVCards(w, contacts); err != nil {
				d.Logger.Error("vcard export failed", logger.Error(err))
			}
		default:
			respondError(w, http.StatusBadRequest, "unknown export format: "+format)
		}
	}
}

// ContactVCard handles GET /api/contacts/{id}/vcard with a single
// downloadable card.
func ContactVCard(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := d.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondDomainError(w, d, err)
			return
		}
		w.Header().Set("Content-Type", "text/vcard")
		w.Header().Set("Content-Disposition", `attachment; filename="`+vcardFileName(c)+`"`)
		_, _ = w.Write([]byte(export.VCard(c)))
	}
}

func vcardFileName(c *domain.Contact) string {
	name := c.FullName()
	if name == "" {
		name = "contact"
	}
	return name + ".vcf"
}
