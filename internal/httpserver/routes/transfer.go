package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/httpserver/handlers"
)

func init() { Register(registerTransfer) }

// registerTransfer wires the import/export surface behind its feature
// toggles.
func registerTransfer(r chi.Router, d deps.Deps) {
	if d.EnableExport {
		r.Get("/api/contacts/export", handlers.ExportContacts(d))
		r.Get("/api/contacts/{id}/vcard", handlers.ContactVCard(d))
	}
	if d.EnableImport {
		r.Post("/api/contacts/import", handlers.ImportContacts(d))
		r.Get("/api/contacts/import/sample", handlers.ImportSample(d))
	}
}
