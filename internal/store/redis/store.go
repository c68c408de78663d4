// Package redis implements the contact repository on a Redis backend.
// Each contact is one JSON document under its own key; a SET tracks all
// ids, a ZSET keeps creation order and a HASH enforces email
// uniqueness atomically.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/store"
)

// Store handles Redis operations for contacts.
type Store struct {
	client *goredis.Client
	rules  domain.Rules
	newID  store.IDSource
	now    func() time.Time
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

// NewStore creates a Redis-backed contact repository.
func NewStore(client *goredis.Client, rules domain.Rules, opts ...Option) *Store {
	s := &Store{client: client, rules: rules, newID: store.NewHexID, now: time.Now}
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

	now := s.now()
	c := &domain.Contact{ID: s.newID(), CreatedAt: now, UpdatedAt: now}
	c.Apply(fields)

	// HSetNX claims the email atomically; losing the race means a
	// duplicate, with no document written.
	claimed, err := s.client.HSetNX(ctx, KeyEmailIndex, EmailField(c.Email), c.ID).Result()
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if !claimed {
		return nil, domain.ErrDuplicateEmail
	}

	if err := s.saveContact(ctx, c, true); err != nil {
		// Roll the claim back so the email is not leaked.
		_ = s.client.HDel(ctx, KeyEmailIndex, EmailField(c.Email)).Err()
		return nil, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*domain.Contact, error) {
	data, err := s.client.Get(ctx, ContactKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.StorageError(err)
	}

	var c domain.Contact
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, domain.StorageError(fmt.Errorf("failed to unmarshal contact %s: %w", id, err))
	}
	return &c, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	id, err := s.client.HGet(ctx, KeyEmailIndex, EmailField(email)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.StorageError(err)
	}
	return s.GetByID(ctx, id)
}

func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]*domain.Contact, int, error) {
	snapshot, err := s.snapshot(ctx)
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

	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldEmail := EmailField(c.Email)
	newEmail := EmailField(fields.Email)
	if oldEmail != newEmail {
		claimed, err := s.client.HSetNX(ctx, KeyEmailIndex, newEmail, id).Result()
		if err != nil {
			return nil, domain.StorageError(err)
		}
		if !claimed {
			return nil, domain.ErrDuplicateEmail
		}
		if err := s.client.HDel(ctx, KeyEmailIndex, oldEmail).Err(); err != nil {
			return nil, domain.StorageError(err)
		}
	}

	c.Apply(fields)
	c.UpdatedAt = s.now()
	if err := s.saveContact(ctx, c, false); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) DeleteOne(ctx context.Context, id string) (*domain.Contact, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, ContactKey(id))
	pipe.SRem(ctx, KeyAllContacts, id)
	pipe.ZRem(ctx, KeyCreatedIndex, id)
	pipe.HDel(ctx, KeyEmailIndex, EmailField(c.Email))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, domain.StorageError(err)
	}
	return c, nil
}

func (s *Store) DeleteMany(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		_, err := s.DeleteOne(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *Store) Aggregate(ctx context.Context) (*domain.AnalyticsSummary, error) {
	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return domain.Summarize(snapshot, s.now()), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return domain.StorageError(err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// saveContact writes the document and, for new contacts, its index
// entries in one pipeline.
func (s *Store) saveContact(ctx context.Context, c *domain.Contact, isNew bool) error {
	data, err := json.Marshal(c)
	if err != nil {
		return domain.StorageError(fmt.Errorf("failed to marshal contact: %w", err))
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, ContactKey(c.ID), data, 0)
	if isNew {
		pipe.SAdd(ctx, KeyAllContacts, c.ID)
		pipe.ZAdd(ctx, KeyCreatedIndex, goredis.Z{
			Score:  float64(c.CreatedAt.UnixNano()),
			Member: c.ID,
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.StorageError(err)
	}
	return nil
}

// snapshot loads every document in creation order (oldest first).
// Documents whose keys vanished between the index read and the MGET are
// skipped; ids that fail to decode are surfaced as storage errors.
func (s *Store) snapshot(ctx context.Context) ([]*domain.Contact, error) {
	ids, err := s.client.ZRange(ctx, KeyCreatedIndex, 0, -1).Result()
	if err != nil {
		return nil, domain.StorageError(err)
	}
	if len(ids) == 0 {
		return []*domain.Contact{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ContactKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, domain.StorageError(err)
	}

	contacts := make([]*domain.Contact, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var c domain.Contact
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, domain.StorageError(fmt.Errorf("failed to unmarshal contact %s: %w", ids[i], err))
		}
		contacts = append(contacts, &c)
	}
	return contacts, nil
}

var _ store.Repository = (*Store)(nil)
