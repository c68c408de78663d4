package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/importer"
	"github.com/rolodexhq/rolodex/internal/store"
)

// ErrBusy is returned when a mutation is submitted while another is in
// flight. Mutations never queue; the caller retries after the current
// one settles.
var ErrBusy = errors.New("another operation is already in flight")

// Controller holds the last-loaded contact set, the active
// query/filter/sort selection, the pagination cursor and the
// multi-select set. Every mutation goes through the API and the local
// copy is replaced with the server's authoritative response before the
// next mutation is accepted.
type Controller struct {
	api *Client

	mu       sync.Mutex
	busy     bool
	loaded   []*domain.Contact
	selected map[string]bool

	query    string
	filters  domain.Filters
	sortBy   string
	order    string
	page     int
	pageSize int

	pagination Pagination
}

// NewController returns a controller over the given API client.
func NewController(api *Client, pageSize int) *Controller {
	return &Controller{
		api:      api,
		selected: make(map[string]bool),
		page:     1,
		pageSize: pageSize,
	}
}

// Busy reports whether a mutation is currently in flight.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// Loaded returns the last-loaded page of contacts.
func (c *Controller) Loaded() []*domain.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*domain.Contact(nil), c.loaded...)
}

// Pagination returns the paging block from the last load.
func (c *Controller) Pagination() Pagination {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagination
}

// SetQuery updates the free-text query and resets to the first page.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.query = query
	c.page = 1
}

// SetFilters updates the structured filters and resets to the first
// page.
func (c *Controller) SetFilters(filters domain.Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = filters
	c.page = 1
}

// SetSort updates the sort selection.
func (c *Controller) SetSort(field, order string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sortBy = field
	c.order = order
}

// SetPage moves the pagination cursor.
func (c *Controller) SetPage(page int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if page < 1 {
		page = 1
	}
	c.page = page
}

// Select marks a contact id for bulk operations.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected[id] = true
}

// Deselect removes a contact id from the selection.
func (c *Controller) Deselect(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.selected, id)
}

// ClearSelection empties the multi-select set.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = make(map[string]bool)
}

// Selected returns the currently selected ids.
func (c *Controller) Selected() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	return ids
}

// Visible applies the active query and filters locally over the loaded
// set, the synchronous client-side pass that needs no round-trip.
func (c *Controller) Visible() []*domain.Contact {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.Search(c.loaded, c.query, c.filters)
}

// options snapshots the active selection as server list options.
func (c *Controller) options() store.ListOptions {
	return store.ListOptions{
		Query:    c.query,
		Filters:  c.filters,
		Sort:     c.sortBy,
		Order:    c.order,
		Page:     c.page,
		PageSize: c.pageSize,
	}
}

// Load fetches the current page from the server and replaces the local
// set. Load is not a mutation and is allowed while busy is false only,
// to keep the visible list stable under an in-flight write.
func (c *Controller) Load(ctx context.Context) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	opts := c.options()
	c.mu.Unlock()

	result, err := c.api.List(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to load contacts: %w", err)
	}

	c.mu.Lock()
	c.loaded = result.Contacts
	if result.Pagination != nil {
		c.pagination = *result.Pagination
	}
	// Selection may reference records that no longer exist.
	c.pruneSelectionLocked()
	c.mu.Unlock()
	return nil
}

func (c *Controller) pruneSelectionLocked() {
	present := make(map[string]bool, len(c.loaded))
	for _, contact := range c.loaded {
		present[contact.ID] = true
	}
	for id := range c.selected {
		if !present[id] {
			delete(c.selected, id)
		}
	}
}

// beginMutation flips the busy flag, rejecting a second concurrent
// mutation instead of queueing it.
func (c *Controller) beginMutation() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Controller) endMutation() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// reload replaces the local copy with the server's authoritative state.
func (c *Controller) reload(ctx context.Context) error {
	c.mu.Lock()
	opts := c.options()
	c.mu.Unlock()

	result, err := c.api.List(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to reload after mutation: %w", err)
	}

	c.mu.Lock()
	c.loaded = result.Contacts
	if result.Pagination != nil {
		c.pagination = *result.Pagination
	}
	c.pruneSelectionLocked()
	c.mu.Unlock()
	return nil
}

// Create persists a new contact and reloads the visible set.
func (c *Controller) Create(ctx context.Context, fields domain.ContactFields) (*domain.Contact, error) {
	if err := c.beginMutation(); err != nil {
		return nil, err
	}
	defer c.endMutation()

	created, err := c.api.Create(ctx, fields)
	if err != nil {
		return nil, err
	}
	if err := c.reload(ctx); err != nil {
		return created, err
	}
	return created, nil
}

// Update replaces a contact's editable fields and reloads.
func (c *Controller) Update(ctx context.Context, id string, fields domain.ContactFields) (*domain.Contact, error) {
	if err := c.beginMutation(); err != nil {
		return nil, err
	}
	defer c.endMutation()

	updated, err := c.api.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if err := c.reload(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// ToggleFavorite re-submits the full record with isFavorite flipped.
func (c *Controller) ToggleFavorite(ctx context.Context, id string) (*domain.Contact, error) {
	if err := c.beginMutation(); err != nil {
		return nil, err
	}
	defer c.endMutation()

	current, err := c.api.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fields := current.Fields()
	fields.IsFavorite = !fields.IsFavorite

	updated, err := c.api.Update(ctx, id, fields)
	if err != nil {
		return nil, err
	}
	if err := c.reload(ctx); err != nil {
		return updated, err
	}
	return updated, nil
}

// Delete removes one contact. The local entry is dropped by id before
// the authoritative reload.
func (c *Controller) Delete(ctx context.Context, id string) (*domain.Contact, error) {
	if err := c.beginMutation(); err != nil {
		return nil, err
	}
	defer c.endMutation()

	deleted, err := c.api.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	kept := c.loaded[:0]
	for _, contact := range c.loaded {
		if contact.ID != id {
			kept = append(kept, contact)
		}
	}
	c.loaded = kept
	delete(c.selected, id)
	c.mu.Unlock()

	if err := c.reload(ctx); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// DeleteSelected bulk-deletes the multi-select set.
func (c *Controller) DeleteSelected(ctx context.Context) (int, error) {
	ids := c.Selected()
	if len(ids) == 0 {
		return 0, nil
	}
	if err := c.beginMutation(); err != nil {
		return 0, err
	}
	defer c.endMutation()

	n, err := c.api.DeleteMany(ctx, ids)
	if err != nil {
		return 0, err
	}
	c.ClearSelection()
	if err := c.reload(ctx); err != nil {
		return n, err
	}
	return n, nil
}

// ImportCSV uploads a CSV body and reloads the collection afterwards.
func (c *Controller) ImportCSV(ctx context.Context, csvData []byte) (*importer.Report, error) {
	if err := c.beginMutation(); err != nil {
		return nil, err
	}
	defer c.endMutation()

	report, err := c.api.ImportCSV(ctx, csvData)
	if err != nil {
		return nil, err
	}
	if err := c.reload(ctx); err != nil {
		return report, err
	}
	return report, nil
}
