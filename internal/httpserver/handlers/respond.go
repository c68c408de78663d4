// Package handlers contains the HTTP handlers behind the contact API.
// Every JSON response uses the same envelope: success flag, payload,
// optional message, optional field errors, optional pagination block.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/logger"
)

type pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

type envelope struct {
	Success    bool                `json:"success"`
	Data       any                 `json:"data,omitempty"`
	Count      *int                `json:"count,omitempty"`
	Message    string              `json:"message,omitempty"`
	Errors     []domain.FieldError `json:"errors,omitempty"`
	Pagination *pagination         `json:"pagination,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: true, Message: msg})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Message: msg})
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses.
func respondDomainError(w http.ResponseWriter, d deps.Deps, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, envelope{
			Success: false,
			Message: "validation failed",
			Errors:  verr.Fields,
		})
	case errors.Is(err, domain.ErrDuplicateEmail):
		respondError(w, http.StatusBadRequest, "a contact with this email already exists")
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "contact not found")
	case errors.Is(err, domain.ErrMalformedImport):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		d.Logger.Error("storage unavailable", logger.Error(err))
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		d.Logger.Error("unhandled error", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
