package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/httpserver/handlers"
)

func init() { Register(registerContacts) }

func registerContacts(r chi.Router, d deps.Deps) {
	r.Get("/api/contacts", handlers.ListContacts(d))
	r.Post("/api/contacts", handlers.CreateContact(d))
	r.Delete("/api/contacts", handlers.BulkDeleteContacts(d))
	r.Get("/api/contacts/check-email", handlers.CheckEmail(d))
	r.Get("/api/contacts/{id}", handlers.GetContact(d))
	r.Put("/api/contacts/{id}", handlers.UpdateContact(d))
	r.Delete("/api/contacts/{id}", handlers.DeleteContact(d))
}
