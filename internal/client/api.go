// Package client provides the programmatic consumer of the contact
// API: a typed HTTP client plus a state controller that mirrors what a
// UI needs (loaded set, active query, pagination cursor, selection,
// single in-flight mutation).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rolodexhq/rolodex/internal/domain"
	"github.com/rolodexhq/rolodex/internal/importer"
	"github.com/rolodexhq/rolodex/internal/store"
)

// Client is a typed HTTP client for the contact API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a new API client against baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// envelope mirrors the server's JSON response wrapper.
type envelope struct {
	Success    bool                `json:"success"`
	Data       json.RawMessage     `json:"data"`
	Message    string              `json:"message"`
	Errors     []domain.FieldError `json:"errors"`
	Pagination *Pagination         `json:"pagination"`
}

// Pagination is the server's paging block.
type Pagination struct {
	CurrentPage  int `json:"currentPage"`
	TotalPages   int `json:"totalPages"`
	TotalItems   int `json:"totalItems"`
	ItemsPerPage int `json:"itemsPerPage"`
}

// ListResult is one page of contacts plus its paging block.
type ListResult struct {
	Contacts   []*domain.Contact
	Pagination *Pagination
}

// List fetches one page of contacts.
func (c *Client) List(ctx context.Context, opts store.ListOptions) (*ListResult, error) {
	env, err := c.doRequest(ctx, http.MethodGet, "/api/contacts?"+listQuery(opts), nil)
	if err != nil {
		return nil, fmt.Errorf("list request failed: %w", err)
	}
	var contacts []*domain.Contact
	if err := json.Unmarshal(env.Data, &contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}
	return &ListResult{Contacts: contacts, Pagination: env.Pagination}, nil
}

// Get fetches one contact by id.
func (c *Client) Get(ctx context.Context, id string) (*domain.Contact, error) {
	env, err := c.doRequest(ctx, http.MethodGet, "/api/contacts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeContact(env.Data)
}

// Create persists a new contact.
func (c *Client) Create(ctx context.Context, fields domain.ContactFields) (*domain.Contact, error) {
	env, err := c.doRequest(ctx, http.MethodPost, "/api/contacts", fields)
	if err != nil {
		return nil, err
	}
	return decodeContact(env.Data)
}

// Update replaces every editable field of a contact.
func (c *Client) Update(ctx context.Context, id string, fields domain.ContactFields) (*domain.Contact, error) {
	env, err := c.doRequest(ctx, http.MethodPut, "/api/contacts/"+url.PathEscape(id), fields)
	if err != nil {
		return nil, err
	}
	return decodeContact(env.Data)
}

// Delete removes one contact and returns the removed record.
func (c *Client) Delete(ctx context.Context, id string) (*domain.Contact, error) {
	env, err := c.doRequest(ctx, http.MethodDelete, "/api/contacts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeContact(env.Data)
}

// DeleteMany removes the given ids and reports how many were removed.
func (c *Client) DeleteMany(ctx context.Context, ids []string) (int, error) {
	body := map[string][]string{"ids": ids}
	env, err := c.doRequest(ctx, http.MethodDelete, "/api/contacts", body)
	if err != nil {
		return 0, err
	}
	var result struct {
		DeletedCount int `json:"deletedCount"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return 0, fmt.Errorf("failed to decode bulk delete response: %w", err)
	}
	return result.DeletedCount, nil
}

// EmailExists runs the asynchronous uniqueness pre-check. excludeID,
// when non-empty, lets a record keep its own address.
func (c *Client) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	q := url.Values{"email": {email}}
	if excludeID != "" {
		q.Set("excludeId", excludeID)
	}
	env, err := c.doRequest(ctx, http.MethodGet, "/api/contacts/check-email?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	var result struct {
		Exists bool `json:"exists"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return false, fmt.Errorf("failed to decode check-email response: %w", err)
	}
	return result.Exists, nil
}

// Analytics fetches the aggregate summary.
func (c *Client) Analytics(ctx context.Context) (*domain.AnalyticsSummary, error) {
	env, err := c.doRequest(ctx, http.MethodGet, "/api/analytics", nil)
	if err != nil {
		return nil, err
	}
	var summary domain.AnalyticsSummary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode analytics: %w", err)
	}
	return &summary, nil
}

// ImportCSV uploads a raw CSV body and returns the import report.
func (c *Client) ImportCSV(ctx context.Context, csvData []byte) (*importer.Report, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/contacts/import", bytes.NewReader(csvData))
	if err != nil {
		return nil, fmt.Errorf("failed to create import request: %w", err)
	}
	req.Header.Set("Content-Type", "text/csv")

	env, err := c.send(req)
	if err != nil {
		return nil, err
	}
	var report importer.Report
	if err := json.Unmarshal(env.Data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode import report: %w", err)
	}
	return &report, nil
}

// ExportCSV downloads the CSV export of the current filtered set.
func (c *Client) ExportCSV(ctx context.Context, opts store.ListOptions) ([]byte, error) {
	q := listQuery(opts)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/contacts/export?format=csv&"+q, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create export request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read export body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export failed with status %d", resp.StatusCode)
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*envelope, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req)
}

// send executes the request and maps the response onto the domain error
// taxonomy, so callers handle client and server failures uniformly.
func (c *Client) send(req *http.Request) (*envelope, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport failures look like an unavailable backend.
		return nil, domain.StorageError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &env, nil
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: %s", domain.ErrStorageUnavailable, env.Message)
	case len(env.Errors) > 0:
		return nil, &domain.ValidationError{Fields: env.Errors}
	case resp.StatusCode == http.StatusBadRequest && strings.Contains(env.Message, "email already exists"):
		return nil, domain.ErrDuplicateEmail
	default:
		return nil, fmt.Errorf("server error (%d): %s", resp.StatusCode, env.Message)
	}
}

func decodeContact(data json.RawMessage) (*domain.Contact, error) {
	var c domain.Contact
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode contact: %w", err)
	}
	return &c, nil
}

func listQuery(opts store.ListOptions) string {
	q := url.Values{}
	if opts.Query != "" {
		q.Set("search", opts.Query)
	}
	if opts.Sort != "" {
		q.Set("sort", opts.Sort)
	}
	if opts.Order != "" {
		q.Set("order", opts.Order)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("limit", strconv.Itoa(opts.PageSize))
	}
	if opts.Filters.FavoritesOnly {
		q.Set("favorites", "true")
	}
	if opts.Filters.HasCompany {
		q.Set("hasCompany", "true")
	}
	for _, tag := range opts.Filters.Tags {
		q.Add("tag", tag)
	}
	if !opts.Filters.CreatedAfter.IsZero() {
		q.Set("createdAfter", opts.Filters.CreatedAfter.Format(time.RFC3339))
	}
	if !opts.Filters.CreatedBefore.IsZero() {
		q.Set("createdBefore", opts.Filters.CreatedBefore.Format(time.RFC3339))
	}
	return q.Encode()
}
