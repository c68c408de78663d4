// Package store defines the persistence contract for contacts and the
// pieces shared by its backends. Three interchangeable implementations
// live in the subpackages: memory (in-process), bolt (single-file
// document store) and redis (networked document store).
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/rolodexhq/rolodex/internal/domain"
)

// Sortable list fields. CreatedAt descending is the default everywhere.
const (
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
	SortFirstName = "firstName"
	SortLastName  = "lastName"
	SortEmail     = "email"
	SortCompany   = "company"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListOptions narrows and pages a listing. The zero value lists the
// whole collection most-recently-created first.
type ListOptions struct {
	Query   string
	Filters domain.Filters

	Sort  string // one of the Sort* constants, default SortCreatedAt
	Order string // OrderAsc or OrderDesc, default depends on Sort

	// Page is 1-indexed. PageSize <= 0 disables pagination.
	Page     int
	PageSize int
}

// Repository is the single authority over persisted contacts: it
// assigns identifiers, stamps timestamps and enforces email uniqueness.
//
// Expected failures are reported with the domain sentinels
// (ErrNotFound, ErrDuplicateEmail, ErrValidation); anything else wraps
// domain.ErrStorageUnavailable.
type Repository interface {
	// Create validates fields, assigns an identifier and timestamps,
	// and persists a new contact. CreatedAt == UpdatedAt on the result.
	Create(ctx context.Context, fields domain.ContactFields) (*domain.Contact, error)

	// GetByID returns the contact or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*domain.Contact, error)

	// FindByEmail looks a contact up by email, case-insensitively.
	// Used for the asynchronous uniqueness pre-check.
	FindByEmail(ctx context.Context, email string) (*domain.Contact, error)

	// List returns one page of matching contacts plus the total number
	// of matches before pagination.
	List(ctx context.Context, opts ListOptions) ([]*domain.Contact, int, error)

	// Update replaces every editable field, refreshes UpdatedAt and
	// re-checks email uniqueness excluding the record itself.
	Update(ctx context.Context, id string, fields domain.ContactFields) (*domain.Contact, error)

	// DeleteOne removes a contact and returns it for confirmation
	// displays.
	DeleteOne(ctx context.Context, id string) (*domain.Contact, error)

	// DeleteMany removes the given ids best-effort: unknown ids are
	// skipped silently and only the number actually removed is
	// reported.
	DeleteMany(ctx context.Context, ids []string) (int, error)

	// Aggregate computes the analytics summary over the collection.
	Aggregate(ctx context.Context) (*domain.AnalyticsSummary, error)

	// Ping reports backend liveness.
	Ping(ctx context.Context) error

	Close() error
}

// ApplyList runs the in-process half of the List contract over a
// snapshot in creation order (oldest first): filter, sort, count,
// paginate. The redis backend reuses it after loading documents; the
// memory and bolt backends use it directly.
func ApplyList(contacts []*domain.Contact, opts ListOptions) ([]*domain.Contact, int) {
	matched := domain.Search(contacts, opts.Query, opts.Filters)
	sorted := SortContacts(matched, opts.Sort, opts.Order)
	return Paginate(sorted, opts.Page, opts.PageSize), len(sorted)
}

// SortContacts returns a sorted copy. Unknown fields fall back to
// createdAt; the default order is descending for timestamps and
// ascending for text fields.
func SortContacts(contacts []*domain.Contact, field, order string) []*domain.Contact {
	out := append([]*domain.Contact(nil), contacts...)

	var less func(a, b *domain.Contact) bool
	defaultOrder := OrderAsc
	switch field {
	case SortUpdatedAt:
		less = func(a, b *domain.Contact) bool { return a.UpdatedAt.Before(b.UpdatedAt) }
		defaultOrder = OrderDesc
	case SortFirstName:
		less = textLess(func(c *domain.Contact) string { return c.FirstName })
	case SortLastName:
		less = textLess(func(c *domain.Contact) string { return c.LastName })
	case SortEmail:
		less = textLess(func(c *domain.Contact) string { return c.Email })
	case SortCompany:
		less = textLess(func(c *domain.Contact) string { return c.Company })
	default: // SortCreatedAt and anything unrecognized
		less = func(a, b *domain.Contact) bool { return a.CreatedAt.Before(b.CreatedAt) }
		defaultOrder = OrderDesc
	}

	if order == "" {
		order = defaultOrder
	}
	if order == OrderDesc {
		inner := less
		less = func(a, b *domain.Contact) bool { return inner(b, a) }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func textLess(key func(*domain.Contact) string) func(a, b *domain.Contact) bool {
	return func(a, b *domain.Contact) bool {
		return strings.ToLower(key(a)) < strings.ToLower(key(b))
	}
}

// Paginate slices out one 1-indexed page. PageSize <= 0 returns the
// whole input; a page past the end returns an empty slice.
func Paginate(contacts []*domain.Contact, page, pageSize int) []*domain.Contact {
	if pageSize <= 0 {
		return contacts
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= len(contacts) {
		return []*domain.Contact{}
	}
	end := start + pageSize
	if end > len(contacts) {
		end = len(contacts)
	}
	return contacts[start:end]
}
