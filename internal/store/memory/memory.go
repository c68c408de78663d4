// Package memory implements the contact repository as an in-process,
// mutex-guarded collection. It backs the database-less deployment and
// doubles as the fixture store in tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/store"
)

// Store holds contacts in creation order. All methods are safe for
// concurrent use; writes to the same record are last-write-wins.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]*domain.Contact
	order    []string // ids in creation order, oldest first
	rules    domain.Rules
	newID    store.IDSource
	now      func() time.Time
}

// Option tweaks a Store at construction.
type Option func(*Store)

// WithIDSource overrides identifier assignment, e.g. for deterministic
// test ids.
func WithIDSource(src store.IDSource) Option {
	return func(s *Store) { s.newID = src }
}

// WithClock overrides timestamp stamping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty in-process store. The default identifier is an
// opaque uuid token.
func New(rules domain.Rules, opts ...Option) *Store {
	s := &Store{
		byID:  make(map[string]*domain.Contact),
		rules: rules,
		newID: store.NewToken,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, fields domain.ContactFields) (*domain.Contact, error) {
	fields = fields.Normalize()
	if verr := domain.Validate(fields, s.rules); verr != nil {
		return nil, verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findByEmailLocked(fields.Email, "") != nil {
		return nil, domain.ErrDuplicateEmail
	}

	now := s.now()
	c := &domain.Contact{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	c.Apply(fields)

	s.byID[c.ID] = c
	s.order = append(s.order, c.ID)
	return c.Clone(), nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.findByEmailLocked(email, "")
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]*domain.Contact, int, error) {
	s.mu.RLock()
	snapshot := s.snapshotLocked()
	s.mu.RUnlock()

	page, total := store.ApplyList(snapshot, opts)
	return page, total, nil
}

func (s *Store) Update(ctx context.Context, id string, fields domain.ContactFields) (*domain.Contact, error) {
	fields = fields.Normalize()
	if verr := domain.Validate(fields, s.rules); verr != nil {
		return nil, verr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if s.findByEmailLocked(fields.Email, id) != nil {
		return nil, domain.ErrDuplicateEmail
	}

	c.Apply(fields)
	c.UpdatedAt = s.now()
	return c.Clone(), nil
}

func (s *Store) DeleteOne(ctx context.Context, id string) (*domain.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	s.removeLocked(id)
	return c, nil
}

func (s *Store) DeleteMany(ctx context.Context, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for _, id := range ids {
		if _, ok := s.byID[id]; ok {
			s.removeLocked(id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Store) Aggregate(ctx context.Context) (*domain.AnalyticsSummary, error) {
	s.mu.RLock()
	snapshot := s.snapshotLocked()
	s.mu.RUnlock()

	return domain.Summarize(snapshot, s.now()), nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// snapshotLocked returns clones in creation order.
func (s *Store) snapshotLocked() []*domain.Contact {
	out := make([]*domain.Contact, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// findByEmailLocked matches case-insensitively, skipping excludeID so
// updates can keep their own email.
func (s *Store) findByEmailLocked(email, excludeID string) *domain.Contact {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, c := range s.byID {
		if c.ID != excludeID && strings.ToLower(c.Email) == email {
			return c
		}
	}
	return nil
}

func (s *Store) removeLocked(id string) {
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

var _ store.Repository = (*Store)(nil)
