package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolodexhq/rolodex/internal/client"
	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/httpserver/deps"
	"github.com/rolodexhq/rolodex/internal/httpserver/routes"
	"github.com/rolodexhq/rolodex/internal/logger"
	"github.com/rolodexhq/rolodex/internal/store"
	boltstore "github.com/rolodexhq/rolodex/internal/store/bolt"
	"github.com/rolodexhq/rolodex/internal/store/memory"
)

// startServer wires the real route registry over the given repository,
// the same table the production server mounts.
func startServer(t *testing.T, repo store.Repository) *httptest.Server {
	t.Helper()
	d := deps.Deps{
		Logger:          logger.Nop(),
		Repo:            repo,
		StartTime:       time.Now(),
		DefaultPageSize: 12,
		MaxPageSize:     100,
		MaxUploadBytes:  1 << 20,
		EnableAnalytics: true,
		EnableImport:    true,
		EnableExport:    true,
	}
	r := chi.NewRouter()
	routes.RegisterAll(r, d)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

// TestContactLifecycle drives the whole stack end to end: HTTP client,
// chi route registry, handlers, in-process store.
func TestContactLifecycle(t *testing.T) {
	ctx := context.Background()
	srv := startServer(t, memory.New(domain.DefaultRules()))
	ctrl := client.NewController(client.NewClient(srv.URL), 12)

	require.NoError(t, ctrl.Load(ctx))
	assert.Empty(t, ctrl.Loaded())

	ann, err := ctrl.Create(ctx, domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com",
		Company: "Acme", Tags: []string{"vip"},
	})
	require.NoError(t, err)
	_, err = ctrl.Create(ctx, domain.ContactFields{
		FirstName: "Bob", LastName: "Ray", Email: "bob@x.com",
	})
	require.NoError(t, err)
	require.Len(t, ctrl.Loaded(), 2)

	// Duplicate email is rejected case-insensitively across the stack.
	_, err = ctrl.Create(ctx, domain.ContactFields{
		FirstName: "Dup", LastName: "Lee", Email: "ANN@X.COM",
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	// Server-side search narrows the loaded set.
	ctrl.SetQuery("acme")
	require.NoError(t, ctrl.Load(ctx))
	require.Len(t, ctrl.Loaded(), 1)
	assert.Equal(t, "ann@x.com", ctrl.Loaded()[0].Email)
	ctrl.SetQuery("")

	fav, err := ctrl.ToggleFavorite(ctx, ann.ID)
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)

	deleted, err := ctrl.Delete(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, deleted.ID)
	require.NoError(t, ctrl.Load(ctx))
	assert.Len(t, ctrl.Loaded(), 1)
}

// TestImportExportRoundTrip imports a CSV, exports it back and imports
// the export into a second server.
func TestImportExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	first := client.NewClient(startServer(t, memory.New(domain.DefaultRules())).URL)

	report, err := first.ImportCSV(ctx, []byte(
		"First Name,Last Name,Email,Company,Tags\n"+
			"Ann,Lee,ann@x.com,Acme,vip;client\n"+
			"Bob,Ray,bob@x.com,,\n"))
	require.NoError(t, err)
	require.Equal(t, 2, report.Imported)

	exported, err := first.ExportCSV(ctx, store.ListOptions{})
	require.NoError(t, err)

	second := client.NewClient(startServer(t, memory.New(domain.DefaultRules())).URL)
	report, err = second.ImportCSV(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Imported)
	assert.Empty(t, report.Failures)

	summary, err := second.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalContacts)
	assert.Equal(t, 1, summary.WithCompany)
}

// TestBoltBackedServer runs the same surface over the bolt store.
func TestBoltBackedServer(t *testing.T) {
	ctx := context.Background()
	repo, err := boltstore.Open(filepath.Join(t.TempDir(), "contacts.db"), domain.DefaultRules())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	api := client.NewClient(startServer(t, repo).URL)

	created, err := api.Create(ctx, domain.ContactFields{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com",
	})
	require.NoError(t, err)
	assert.Regexp(t, "^[0-9a-f]{24}$", created.ID, "document backends assign hex ids")

	got, err := api.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

// TestHealthEndpoints covers the probes mounted by the registry.
func TestHealthEndpoints(t *testing.T) {
	srv := startServer(t, memory.New(domain.DefaultRules()))

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(srv.URL + "/readyz")
	require.NoError(t, err)
	defer func() { _ = resp2.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}
