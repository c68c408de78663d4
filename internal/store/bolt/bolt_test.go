package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "contacts.db"), domain.Rules{NameMinLen: 2})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func fields(first, last, email string) domain.ContactFields {
	return domain.ContactFields{FirstName: first, LastName: last, Email: email}
}

func TestOpenInvalidPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "sub", "contacts.db"), domain.DefaultRules())
	assert.Error(t, err)
}

func TestCreateAssignsHexID(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c, err := s.Create(ctx, fields("Ann", "Lee", "ann@x.com"))
	require.NoError(t, err)
	assert.True(t, store.ValidHexID(c.ID), "bolt ids are 24-char hex, got %q", c.ID)
	assert.True(t, c.CreatedAt.Equal(c.UpdatedAt))
}

func TestDuplicateEmailAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.db")

	s, err := Open(path, domain.DefaultRules())
	require.NoError(t, err)
	_, err = s.Create(ctx, fields("Ann", "Lee", "ann@x.com"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// The email index is persisted, not rebuilt per process.
	s, err = Open(path, domain.DefaultRules())
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	_, err = s.Create(ctx, fields("Other", "Person", "ANN@X.COM"))
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUpdateReindexesEmail(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ann, err := s.Create(ctx, fields("Ann", "Lee", "ann@x.com"))
	require.NoError(t, err)

	f := ann.Fields()
	f.Email = "ann.lee@x.com"
	_, err = s.Update(ctx, ann.ID, f)
	require.NoError(t, err)

	// Old address is free again, new one is taken.
	_, err = s.Create(ctx, fields("New", "Owner", "ann@x.com"))
	require.NoError(t, err)
	_, err = s.Create(ctx, fields("Other", "Person", "ann.lee@x.com"))
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUpdateKeepsOwnEmail(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ann, err := s.Create(ctx, fields("Ann", "Lee", "ann@x.com"))
	require.NoError(t, err)

	f := ann.Fields()
	f.Notes = "updated"
	got, err := s.Update(ctx, ann.ID, f)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Notes)
}

func TestDeleteOneRemovesDocumentAndIndex(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	c, err := s.Create(ctx, fields("Ann", "Lee", "ann@x.com"))
	require.NoError(t, err)

	deleted, err := s.DeleteOne(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Email, deleted.Email)

	_, err = s.GetByID(ctx, c.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.FindByEmail(ctx, "ann@x.com")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteManyBestEffort(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a, err := s.Create(ctx, fields("Ann", "Lee", "a@x.com"))
	require.NoError(t, err)
	b, err := s.Create(ctx, fields("Bob", "Ray", "b@x.com"))
	require.NoError(t, err)

	count, err := s.DeleteMany(ctx, []string{a.ID, "000000000000000000000000", b.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "contacts.db")

	s, err := Open(path, domain.DefaultRules())
	require.NoError(t, err)
	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		_, err = s.Create(ctx, fields("Ann", "Lee", email))
		require.NoError(t, err)
	}
	require.NoError(t, s.Close())

	s, err = Open(path, domain.DefaultRules())
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	contacts, total, err := s.List(ctx, store.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, contacts, 3)
	assert.Equal(t, "c@x.com", contacts[0].Email, "most recently created first")
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	f := fields("Ann", "Lee", "ann@x.com")
	f.Company = "Acme"
	f.Tags = []string{"vip"}
	_, err := s.Create(ctx, f)
	require.NoError(t, err)

	sum, err := s.Aggregate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.TotalContacts)
	assert.Equal(t, 1, sum.WithCompany)
	assert.Equal(t, 1, sum.TagsCount)
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
