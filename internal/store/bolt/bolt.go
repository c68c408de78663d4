// Package bolt implements the contact repository on top of a bbolt
// single-file database. Contacts are stored as JSON documents keyed by
// a 24-char hex id, with a second bucket indexing lowercased emails for
// the uniqueness check.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/store"
)

var (
	bucketContacts   = []byte("contacts")
	bucketEmailIndex = []byte("email_index")
)

// Store is a bbolt-backed contact repository.
type Store struct {
	db    *bbolt.DB
	rules domain.Rules
	newID store.IDSource
	now   func() time.Time
}

// Option tweaks a Store at construction.
type Option func(*Store)

// WithIDSource overrides identifier assignment.
func WithIDSource(src store.IDSource) Option {
	return func(s *Store) { s.newID = src }
}

// WithClock overrides timestamp stamping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the database file and its buckets.
func Open(path string, rules domain.Rules, opts ...Option) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketContacts, bucketEmailIndex} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, rules: rules, newID: store.NewHexID, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Create(ctx context.Context, fields domain.ContactFields) (*domain.Contact, error) {
	fields = fields.Normalize()
	if verr := domain.Validate(fields, s.rules); verr != nil {
		return nil, verr
	}

	now := s.now()
	c := &domain.Contact{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	c.Apply(fields)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		emails := tx.Bucket(bucketEmailIndex)
		if emails.Get(emailKey(c.Email)) != nil {
			return domain.ErrDuplicateEmail
		}
		if err := putContact(tx, c); err != nil {
			return err
		}
		return emails.Put(emailKey(c.Email), []byte(c.ID))
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	var c *domain.Contact
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		c, err = getContact(tx, id)
		return err
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return c, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	var c *domain.Contact
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketEmailIndex).Get(emailKey(email))
		if id == nil {
			return domain.ErrNotFound
		}
		var err error
		c, err = getContact(tx, string(id))
		return err
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return c, nil
}

func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]*domain.Contact, int, error) {
	snapshot, err := s.snapshot()
	if err != nil {
		return nil, 0, err
	}
	page, total := store.ApplyList(snapshot, opts)
	return page, total, nil
}

func (s *Store) Update(ctx context.Context, id string, fields domain.ContactFields) (*domain.Contact, error) {
	fields = fields.Normalize()
	if verr := domain.Validate(fields, s.rules); verr != nil {
		return nil, verr
	}

	var updated *domain.Contact
	err := s.db.Update(func(tx *bbolt.Tx) error {
		c, err := getContact(tx, id)
		if err != nil {
			return err
		}

		emails := tx.Bucket(bucketEmailIndex)
		if owner := emails.Get(emailKey(fields.Email)); owner != nil && string(owner) != id {
			return domain.ErrDuplicateEmail
		}
		if !strings.EqualFold(c.Email, fields.Email) {
			if err := emails.Delete(emailKey(c.Email)); err != nil {
				return err
			}
			if err := emails.Put(emailKey(fields.Email), []byte(id)); err != nil {
				return err
			}
		}

		c.Apply(fields)
		c.UpdatedAt = s.now()
		updated = c
		return putContact(tx, c)
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return updated, nil
}

func (s *Store) DeleteOne(ctx context.Context, id string) (*domain.Contact, error) {
	var deleted *domain.Contact
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		deleted, err = deleteContact(tx, id)
		return err
	})
	if err != nil {
		return nil, storageErr(err)
	}
	return deleted, nil
}

func (s *Store) DeleteMany(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		for _, id := range ids {
			if _, err := deleteContact(tx, id); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return err
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, storageErr(err)
	}
	return deleted, nil
}

func (s *Store) Aggregate(ctx context.Context) (*domain.AnalyticsSummary, error) {
	snapshot, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return domain.Summarize(snapshot, s.now()), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketContacts) == nil {
			return fmt.Errorf("contacts bucket missing")
		}
		return nil
	})
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// snapshot loads every document and returns it in creation order
// (oldest first), the order ApplyList and Summarize expect.
func (s *Store) snapshot() ([]*domain.Contact, error) {
	var contacts []*domain.Contact
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketContacts).ForEach(func(k, v []byte) error {
			var c domain.Contact
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("failed to unmarshal contact %s: %w", k, err)
			}
			contacts = append(contacts, &c)
			return nil
		})
	})
	if err != nil {
		return nil, storageErr(err)
	}
	sort.SliceStable(contacts, func(i, j int) bool {
		if !contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].CreatedAt.Before(contacts[j].CreatedAt)
		}
		return contacts[i].ID < contacts[j].ID
	})
	return contacts, nil
}

func getContact(tx *bbolt.Tx, id string) (*domain.Contact, error) {
	data := tx.Bucket(bucketContacts).Get([]byte(id))
	if data == nil {
		return nil, domain.ErrNotFound
	}
	var c domain.Contact
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact %s: %w", id, err)
	}
	return &c, nil
}

func putContact(tx *bbolt.Tx, c *domain.Contact) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}
	return tx.Bucket(bucketContacts).Put([]byte(c.ID), data)
}

func deleteContact(tx *bbolt.Tx, id string) (*domain.Contact, error) {
	c, err := getContact(tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Bucket(bucketContacts).Delete([]byte(id)); err != nil {
		return nil, err
	}
	if err := tx.Bucket(bucketEmailIndex).Delete(emailKey(c.Email)); err != nil {
		return nil, err
	}
	return c, nil
}

func emailKey(email string) []byte {
	return []byte(strings.ToLower(strings.TrimSpace(email)))
}

// storageErr keeps the expected domain conditions as-is and wraps
// everything else as a storage failure.
func storageErr(err error) error {
	if err == nil || errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrDuplicateEmail) {
		return err
	}
	return domain.StorageError(err)
}

var _ store.Repository = (*Store)(nil)
