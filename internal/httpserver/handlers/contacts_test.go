package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/logger"
	"github.com/rolodexhq/rolodex/internal/store/memory"
)

func testDeps(t *testing.T) deps.Deps {
	t.Helper()
	return deps.Deps{
		Logger:             logger.Nop(),
		Repo:               memory.New(domain.DefaultRules()),
		StartTime:          time.Now(),
		DefaultPageSize:    12,
		MaxPageSize:        100,
		MaxUploadBytes:     1 << 20,
		AllowedAvatarTypes: []string{"image/jpeg", "image/png"},
		EnableAnalytics:    true,
		EnableImport:       true,
		EnableExport:       true,
	}
}

// testRouter mirrors the route table without going through the global
// registry, so each test gets an isolated repository.
func testRouter(d deps.Deps) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/contacts", ListContacts(d))
	r.Post("/api/contacts", CreateContact(d))
	r.Delete("/api/contacts", BulkDeleteContacts(d))
	r.Get("/api/contacts/check-email", CheckEmail(d))
	r.Get("/api/contacts/export", ExportContacts(d))
	r.Post("/api/contacts/import", ImportContacts(d))
	r.Get("/api/contacts/import/sample", ImportSample(d))
	r.Get("/api/contacts/{id}", GetContact(d))
	r.Put("/api/contacts/{id}", UpdateContact(d))
	r.Delete("/api/contacts/{id}", DeleteContact(d))
	r.Get("/api/contacts/{id}/vcard", ContactVCard(d))
	r.Get("/api/analytics", Analytics(d))
	r.Get("/health", Health(d))
	return r
}

type apiEnvelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Count      *int                `json:"count"`
	Message    string              `json:"message"`
	Errors     []domain.FieldError `json:"errors"`
	Pagination *pagination         `json:"pagination"`
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) (*httptest.ResponseRecorder, apiEnvelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env apiEnvelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func createContact(t *testing.T, r chi.Router, fields domain.ContactFields) domain.Contact {
	t.Helper()
	rec, env := doJSON(t, r, http.MethodPost, "/api/contacts", fields)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c domain.Contact
	require.NoError(t, json.Unmarshal(env.Data, &c))
	return c
}

func TestCreateContact(t *testing.T) {
	r := testRouter(testDeps(t))

	rec, env := doJSON(t, r, http.MethodPost, "/api/contacts", domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "Ann@X.com", Tags: []string{"vip"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "contact created", env.Message)

	var c domain.Contact
	require.NoError(t, json.Unmarshal(env.Data, &c))
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, "ann@x.com", c.Email, "emails are stored lowercased")
	assert.Equal(t, c.CreatedAt, c.UpdatedAt)
}

func TestCreateContactValidationErrors(t *testing.T) {
	r := testRouter(testDeps(t))

	rec, env := doJSON(t, r, http.MethodPost, "/api/contacts", domain.ContactFields{
		FirstName: "A", LastName: "", Email: "nope",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)

	fields := make([]string, 0, len(env.Errors))
	for _, fe := range env.Errors {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"firstName", "lastName", "email"}, fields,
		"every violation is reported together")
}

func TestCreateContactDuplicateEmail(t *testing.T) {
	r := testRouter(testDeps(t))
	createContact(t, r, domain.ContactFields{FirstName: "Ann", LastName: "Lee", Email: "ann@x.com"})

	rec, env := doJSON(t, r, http.MethodPost, "/api/contacts", domain.ContactFields{
		FirstName: "Other", LastName: "Ann", Email: "ANN@X.COM",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Message, "email")
}

func TestCreateContactBadAvatar(t *testing.T) {
	r := testRouter(testDeps(t))

	rec, _ := doJSON(t, r, http.MethodPost, "/api/contacts", domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com",
		Avatar: "data:application/x-sh;base64,AAAA",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, r, http.MethodPost, "/api/contacts", domain.ContactFields{
		FirstName: "Bob", LastName: "Ray", Email: "bob@x.com",
		Avatar: "data:image/png;base64,AAAA",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestGetContactNotFound(t *testing.T) {
	r := testRouter(testDeps(t))
	rec, env := doJSON(t, r, http.MethodGet, "/api/contacts/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Message)
}

func TestUpdateContactFullReplace(t *testing.T) {
	r := testRouter(testDeps(t))
	c := createContact(t, r, domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com", Company: "Acme",
	})

	rec, env := doJSON(t, r, http.MethodPut, "/api/contacts/"+c.ID, domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated domain.Contact
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Empty(t, updated.Company, "updates replace every editable field")
}

func TestDeleteContactEchoesRecord(t *testing.T) {
	r := testRouter(testDeps(t))
	c := createContact(t, r, domain.ContactFields{FirstName: "Ann", LastName: "Lee", Email: "ann@x.com"})

	rec, env := doJSON(t, r, http.MethodDelete, "/api/contacts/"+c.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var deleted domain.Contact
	require.NoError(t, json.Unmarshal(env.Data, &deleted))
	assert.Equal(t, c.ID, deleted.ID)

	rec, _ = doJSON(t, r, http.MethodGet, "/api/contacts/"+c.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkDelete(t *testing.T) {
	r := testRouter(testDeps(t))
	a := createContact(t, r, domain.ContactFields{FirstName: "Ann", LastName: "Lee", Email: "a@x.com"})
	b := createContact(t, r, domain.ContactFields{FirstName: "Bob", LastName: "Ray", Email: "b@x.com"})

	rec, env := doJSON(t, r, http.MethodDelete, "/api/contacts",
		map[string]any{"ids": []string{a.ID, b.ID, "unknown"}})
	require.Equal(t, http.StatusOK, rec.Code)

	var result struct {
		DeletedCount int `json:"deletedCount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.DeletedCount, "unknown ids are skipped")
}

func TestBulkDeleteEmptyIDs(t *testing.T) {
	r := testRouter(testDeps(t))
	rec, _ := doJSON(t, r, http.MethodDelete, "/api/contacts", map[string]any{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListContactsPagination(t *testing.T) {
	r := testRouter(testDeps(t))
	for i := 0; i < 5; i++ {
		createContact(t, r, domain.ContactFields{
			FirstName: "Ann", LastName: "Lee",
			Email: fmt.Sprintf("c%d@x.com", i),
		})
	}

	rec, env := doJSON(t, r, http.MethodGet, "/api/contacts?page=2&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.CurrentPage)
	assert.Equal(t, 3, env.Pagination.TotalPages)
	assert.Equal(t, 5, env.Pagination.TotalItems)
	assert.Equal(t, 2, env.Pagination.ItemsPerPage)
	require.NotNil(t, env.Count)
	assert.Equal(t, 2, *env.Count)
}

func TestListContactsSearchAndFilters(t *testing.T) {
	r := testRouter(testDeps(t))
	createContact(t, r, domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com",
		Company: "Acme", IsFavorite: true, Tags: []string{"vip"},
	})
	createContact(t, r, domain.ContactFields{FirstName: "Bob", LastName: "Ray", Email: "bob@x.com"})

	rec, env := doJSON(t, r, http.MethodGet, "/api/contacts?search=acme&favorites=true&tag=vip", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var contacts []domain.Contact
	require.NoError(t, json.Unmarshal(env.Data, &contacts))
	require.Len(t, contacts, 1)
	assert.Equal(t, "ann@x.com", contacts[0].Email)
}

func TestListContactsBadParams(t *testing.T) {
	r := testRouter(testDeps(t))
	for _, path := range []string{
		"/api/contacts?page=zero",
		"/api/contacts?limit=-3",
		"/api/contacts?createdAfter=yesterday",
	} {
		rec, _ := doJSON(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestCheckEmail(t *testing.T) {
	r := testRouter(testDeps(t))
	c := createContact(t, r, domain.ContactFields{FirstName: "Ann", LastName: "Lee", Email: "ann@x.com"})

	check := func(path string) bool {
		rec, env := doJSON(t, r, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var result struct {
			Exists bool `json:"exists"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &result))
		return result.Exists
	}

	assert.True(t, check("/api/contacts/check-email?email=ANN@x.com"))
	assert.False(t, check("/api/contacts/check-email?email=free@x.com"))
	assert.False(t, check("/api/contacts/check-email?email=ann@x.com&excludeId="+c.ID),
		"a record may keep its own email")

	rec, _ := doJSON(t, r, http.MethodGet, "/api/contacts/check-email", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsEndpoint(t *testing.T) {
	r := testRouter(testDeps(t))
	createContact(t, r, domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com",
		Company: "Acme", IsFavorite: true, Tags: []string{"vip", "client"},
	})
	createContact(t, r, domain.ContactFields{FirstName: "Bob", LastName: "Ray", Email: "bob@x.com", Phone: "+1 555 0100"})

	rec, env := doJSON(t, r, http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary domain.AnalyticsSummary
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 2, summary.TotalContacts)
	assert.Equal(t, 1, summary.FavoriteContacts)
	assert.Equal(t, 1, summary.WithCompany)
	assert.Equal(t, 1, summary.WithPhone)
}

func TestExportCSVRoundTrip(t *testing.T) {
	r := testRouter(testDeps(t))
	createContact(t, r, domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com", Tags: []string{"vip", "client"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/export?format=csv", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "First Name,Last Name,Email")
	assert.Contains(t, rec.Body.String(), "vip;client")
}

func TestExportUnknownFormat(t *testing.T) {
	r := testRouter(testDeps(t))
	rec, _ := doJSON(t, r, http.MethodGet, "/api/contacts/export?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContactVCard(t *testing.T) {
	r := testRouter(testDeps(t))
	c := createContact(t, r, domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com", Company: "Acme",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/contacts/"+c.ID+"/vcard", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/vcard", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "FN:Ann Lee")
	assert.Contains(t, rec.Body.String(), "ORG:Acme")
}

func TestImportRawBody(t *testing.T) {
	r := testRouter(testDeps(t))

	req := httptest.NewRequest(http.MethodPost, "/api/contacts/import",
		strings.NewReader("First Name,Last Name,Email\nAnn,Lee,ann@x.com\nBob,Ray,bob@x.com\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env apiEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var report struct {
		Imported int `json:"imported"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.Equal(t, 2, report.Imported)
}

func TestImportMultipart(t *testing.T) {
	d := testDeps(t)
	r := testRouter(d)

	var body bytes.Buffer
	mp := multipart.NewWriter(&body)
	part, err := mp.CreateFormFile("file", "contacts.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("First Name,Last Name,Email\nAnn,Lee,ann@x.com\n"))
	require.NoError(t, err)
	require.NoError(t, mp.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/contacts/import", &body)
	req.Header.Set("Content-Type", mp.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	ctx := context.Background()
	c, err := d.Repo.FindByEmail(ctx, "ann@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Ann", c.FirstName)
}

func TestImportUnmappableHeaders(t *testing.T) {
	r := testRouter(testDeps(t))

	req := httptest.NewRequest(http.MethodPost, "/api/contacts/import",
		strings.NewReader("A,B,C\n1,2,3\n"))
	req.Header.Set("Content-Type", "text/csv")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "required but not mapped")
}

func TestImportSampleDownload(t *testing.T) {
	r := testRouter(testDeps(t))
	req := httptest.NewRequest(http.MethodGet, "/api/contacts/import/sample", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "contacts-sample.csv")
	assert.Contains(t, rec.Body.String(), "First Name")
}

func TestHealth(t *testing.T) {
	r := testRouter(testDeps(t))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.NotEmpty(t, body.Message)
}
