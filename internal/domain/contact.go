package domain

import (
	"strings"
	"time"
)

// Contact is the persisted entity representing one person's contact details.
//
// The repository is the sole authority for ID, CreatedAt and UpdatedAt;
// everything else is supplied by callers through ContactFields.
type Contact struct {
	// ID is the storage-assigned identifier, immutable after creation.
	// Document backends render it as a 24-char hex string, the in-process
	// backend uses an opaque token.
	ID string `json:"id"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Email is unique across the whole collection, case-insensitively.
	Email string `json:"email"`

	Phone    string `json:"phone"`
	Company  string `json:"company"`
	Position string `json:"position"`
	Address  string `json:"address"`
	Notes    string `json:"notes"`

	// Tags is a set of free-text labels. Order is preserved for display
	// but carries no meaning.
	Tags []string `json:"tags"`

	IsFavorite bool `json:"isFavorite"`

	// Avatar is an opaque image reference: a remote URL or an inline
	// data URI, empty when absent.
	Avatar string `json:"avatar,omitempty"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	LastViewed *time.Time `json:"lastViewed,omitempty"`
}

// ContactFields carries the editable fields of a contact. Updates are a
// full replace: every field is re-supplied, there is no partial patch.
type ContactFields struct {
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Company    string   `json:"company"`
	Position   string   `json:"position"`
	Address    string   `json:"address"`
	Notes      string   `json:"notes"`
	Tags       []string `json:"tags"`
	IsFavorite bool     `json:"isFavorite"`
	Avatar     string   `json:"avatar,omitempty"`
}

// Normalize trims whitespace from every text field, lowercases the email
// and deduplicates tags while preserving first-seen order.
func (f ContactFields) Normalize() ContactFields {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = strings.TrimSpace(f.Phone)
	f.Company = strings.TrimSpace(f.Company)
	f.Position = strings.TrimSpace(f.Position)
	f.Address = strings.TrimSpace(f.Address)
	f.Notes = strings.TrimSpace(f.Notes)
	f.Tags = dedupeTags(f.Tags)
	return f
}

func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Apply copies the editable fields onto c, leaving identity and
// timestamps untouched.
func (c *Contact) Apply(f ContactFields) {
	c.FirstName = f.FirstName
	c.LastName = f.LastName
	c.Email = f.Email
	c.Phone = f.Phone
	c.Company = f.Company
	c.Position = f.Position
	c.Address = f.Address
	c.Notes = f.Notes
	c.Tags = f.Tags
	c.IsFavorite = f.IsFavorite
	c.Avatar = f.Avatar
}

// Fields returns the editable fields of c, e.g. to re-submit a full
// update with one value changed.
func (c *Contact) Fields() ContactFields {
	return ContactFields{
		FirstName:  c.FirstName,
		LastName:   c.LastName,
		Email:      c.Email,
		Phone:      c.Phone,
		Company:    c.Company,
		Position:   c.Position,
		Address:    c.Address,
		Notes:      c.Notes,
		Tags:       append([]string(nil), c.Tags...),
		IsFavorite: c.IsFavorite,
		Avatar:     c.Avatar,
	}
}

// Clone returns a deep copy so stored records never alias caller slices.
func (c *Contact) Clone() *Contact {
	cp := *c
	cp.Tags = append([]string(nil), c.Tags...)
	if c.LastViewed != nil {
		lv := *c.LastViewed
		cp.LastViewed = &lv
	}
	return &cp
}

// FullName returns "First Last" for display and vCard FN lines.
func (c *Contact) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// HasTag reports whether the contact carries the given tag,
// case-insensitively.
func (c *Contact) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
