package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/logger"
	"github.com/rolodexhq/rolodex/internal/store"
)

// ListContacts handles GET /api/contacts with free-text search,
// structured filters, sorting and offset pagination.
func ListContacts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := parseListOptions(r, d)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}

		contacts, total, err := d.Repo.List(r.Context(), opts)
		if err != nil {
			respondDomainError(w, d, err)
			return
		}

		totalPages := 0
		if opts.PageSize > 0 {
			totalPages = (total + opts.PageSize - 1) / opts.PageSize
		}
		count := len(contacts)
		writeJSON(w, http.StatusOK, envelope{
			Success: true,
			Data:    contacts,
			Count:   &count,
			Pagination: &pagination{
				CurrentPage:  opts.Page,
				TotalPages:   totalPages,
				TotalItems:   total,
				ItemsPerPage: opts.PageSize,
			},
		})
	}
}

// GetContact handles GET /api/contacts/{id}.
func GetContact(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := d.Repo.GetByID(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondDomainError(w, d, err)
			return
		}
		respondData(w, http.StatusOK, c)
	}
}

// CreateContact handles POST /api/contacts.
func CreateContact(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, ok := decodeFields(w, r, d)
		if !ok {
			return
		}
		c, err := d.Repo.Create(r.Context(), fields)
		if err != nil {
			respondDomainError(w, d, err)
			return
		}
		d.Logger.Info("contact created", logger.String("id", c.ID))
		writeJSON(w, http.StatusCreated, envelope{Success: true, Data: c, Message: "contact created"})
	}
}

// UpdateContact handles PUT /api/contacts/{id}. Updates are a full
// replace of the editable fields.
func UpdateContact(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, ok := decodeFields(w, r, d)
		if !ok {
			return
		}
		c, err := d.Repo.Update(r.Context(), chi.URLParam(r, "id"), fields)
		if err != nil {
			respondDomainError(w, d, err)
			return
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: c, Message: "contact updated"})
	}
}

// DeleteContact handles DELETE /api/contacts/{id}. The removed contact
// is echoed back for confirmation displays.
func DeleteContact(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := d.Repo.DeleteOne(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondDomainError(w, d, err)
			return
		}
		d.Logger.Info("contact deleted", logger.String("id", c.ID))
		writeJSON(w, http.StatusOK, envelope{Success: true, Data: c, Message: "contact deleted"})
	}
}

// BulkDeleteContacts handles DELETE /api/contacts with a body of
// {"ids": [...]}. Unknown ids are skipped; only the number actually
// removed is reported.
func BulkDeleteContacts(d deps.Deps) http.HandlerFunc {
	type request struct {
		IDs []string `json:"ids"`
	}
	type response struct {
		DeletedCount int `json:"deletedCount"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if len(req.IDs) == 0 {
			respondError(w, http.StatusBadRequest, "ids must not be empty")
			return
		}
		n, err := d.Repo.DeleteMany(r.Context(), req.IDs)
		if err != nil {
			respondDomainError(w, d, err)
			return
		}
		d.Logger.Info("contacts bulk deleted", logger.Int("count", n))
		respondData(w, http.StatusOK, response{DeletedCount: n})
	}
}

// CheckEmail handles GET /api/contacts/check-email?email=&excludeId=,
// the asynchronous uniqueness pre-check behind the contact form.
func CheckEmail(d deps.Deps) http.HandlerFunc {
	type response struct {
		Exists bool `json:"exists"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			respondError(w, http.StatusBadRequest, "email is required")
			return
		}
		c, err := d.Repo.FindByEmail(r.Context(), email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				respondData(w, http.StatusOK, response{Exists: false})
				return
			}
			respondDomainError(w, d, err)
			return
		}
		exists := c.ID != r.URL.Query().Get("excludeId")
		respondData(w, http.StatusOK, response{Exists: exists})
	}
}

func decodeFields(w http.ResponseWriter, r *http.Request, d deps.Deps) (domain.ContactFields, bool) {
	var fields domain.ContactFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return fields, false
	}
	if msg := checkAvatar(fields.Avatar, d.AllowedAvatarTypes); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return fields, false
	}
	return fields, true
}

// checkAvatar accepts empty avatars, http(s) URLs and data URLs whose
// media type is in the allow list.
func checkAvatar(avatar string, allowedTypes []string) string {
	if avatar == "" {
		return ""
	}
	if strings.HasPrefix(avatar, "http://") || strings.HasPrefix(avatar, "https://") {
		return ""
	}
	if !strings.HasPrefix(avatar, "data:") {
		return "avatar must be an http(s) URL or a data URL"
	}
	rest := strings.TrimPrefix(avatar, "data:")
	end := strings.IndexAny(rest, ";,")
	if end < 0 {
		return "malformed avatar data URL"
	}
	mediaType := rest[:end]
	for _, t := range allowedTypes {
		if strings.EqualFold(t, mediaType) {
			return ""
		}
	}
	return "avatar media type " + mediaType + " is not allowed"
}

func parseListOptions(r *http.Request, d deps.Deps) (store.ListOptions, error) {
	q := r.URL.Query()

	opts := store.ListOptions{
		Query:    q.Get("search"),
		Sort:     q.Get("sort"),
		Order:    q.Get("order"),
		Page:     1,
		PageSize: d.DefaultPageSize,
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return opts, errBadParam("page")
		}
		opts.Page = page
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return opts, errBadParam("limit")
		}
		if d.MaxPageSize > 0 && limit > d.MaxPageSize {
			limit = d.MaxPageSize
		}
		opts.PageSize = limit
	}

	opts.Filters.FavoritesOnly = q.Get("favorites") == "true"
	opts.Filters.HasCompany = q.Get("hasCompany") == "true"
	opts.Filters.Tags = q["tag"]

	if v := q.Get("createdAfter"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, errBadParam("createdAfter")
		}
		opts.Filters.CreatedAfter = ts
	}
	if v := q.Get("createdBefore"); v != "" {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return opts, errBadParam("createdBefore")
		}
		opts.Filters.CreatedBefore = ts
	}
	return opts, nil
}

type paramError string

func (e paramError) Error() string { return "invalid query parameter: " + string(e) }

func errBadParam(name string) error { return paramError(name) }
