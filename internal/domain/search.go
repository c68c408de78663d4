package domain

import (
	"strings"
	"time"
)

// Filters are structured predicates layered as an AND on top of the
// free-text match. The zero value matches everything.
type Filters struct {
	FavoritesOnly bool
	HasCompany    bool

	// Tags requires membership of every listed tag.
	Tags []string

	// CreatedAfter/CreatedBefore bound CreatedAt. Zero time means
	// unbounded on that side.
	CreatedAfter  time.Time
	CreatedBefore time.Time
}

// IsZero reports whether no structured filter is active.
func (f Filters) IsZero() bool {
	return !f.FavoritesOnly && !f.HasCompany && len(f.Tags) == 0 &&
		f.CreatedAfter.IsZero() && f.CreatedBefore.IsZero()
}

// Match applies the structured filters to one contact.
func (f Filters) Match(c *Contact) bool {
	if f.FavoritesOnly && !c.IsFavorite {
		return false
	}
	if f.HasCompany && c.Company == "" {
		return false
	}
	for _, tag := range f.Tags {
		if !c.HasTag(tag) {
			return false
		}
	}
	if !f.CreatedAfter.IsZero() && c.CreatedAt.Before(f.CreatedAfter) {
		return false
	}
	if !f.CreatedBefore.IsZero() && c.CreatedAt.After(f.CreatedBefore) {
		return false
	}
	return true
}

// Match reports whether the query appears, case-insensitively, as a
// substring of any searchable field (first name, last name, email,
// company, position). An empty or whitespace-only query matches
// everything.
func Match(c *Contact, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	for _, field := range []string{c.FirstName, c.LastName, c.Email, c.Company, c.Position} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Search narrows contacts to those matching the free-text query AND the
// structured filters, preserving input order. With an empty query and
// zero filters the input is returned unchanged.
func Search(contacts []*Contact, query string, filters Filters) []*Contact {
	query = strings.TrimSpace(query)
	if query == "" && filters.IsZero() {
		return contacts
	}

	out := make([]*Contact, 0, len(contacts))
	for _, c := range contacts {
		if Match(c, query) && filters.Match(c) {
			out = append(out, c)
		}
	}
	return out
}
