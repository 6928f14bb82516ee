// Package client is a typed Go client for the universal entity API. It
// speaks the same preset metadata as the server: create payloads are
// intersected with the preset's declared fields before they leave the
// process, and updates always carry the version token they read.
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
	"time"

	"github.com/google/uuid"

	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/models"
	"github.com/aethra/hera/internal/preset"
)

// OrgHeader carries the organization scope on every request.
const OrgHeader = "x-hera-org"

// Client talks to one Hera server. Safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	presets *preset.Registry
	cache   *listCache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithToken sets the Bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithPresets replaces the preset registry used for payload validation.
func WithPresets(r *preset.Registry) Option {
	return func(c *Client) { c.presets = r }
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		presets: preset.DefaultRegistry(),
		cache:   newListCache(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListResult is the standard list envelope.
type ListResult struct {
	Entities []models.Entity `json:"entities"`
	Total    int64           `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// ListOptions filters entity lists.
type ListOptions struct {
	Status         string
	Search         string
	IncludeDynamic bool
	Limit          int
	Offset         int
}

// CreateEntity creates an entity of the given type. Dynamic field keys the
// preset does not declare are dropped before sending; required and typed
// validation run locally so obviously bad payloads never hit the wire.
func (c *Client) CreateEntity(ctx context.Context, orgID uuid.UUID, entityType, entityName string, fields map[string]interface{}) (*models.Entity, error) {
	p, ok := c.presets.Get(entityType)
	if !ok {
		return nil, apperrors.NewNotFoundError("entity type")
	}
	if _, err := p.BuildDynamicFields(fields); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"entity_name":    entityName,
		"dynamic_fields": intersect(p, fields),
	}

	var entity models.Entity
	err := c.do(ctx, orgID, http.MethodPost, "/api/entities/"+entityType, payload, &entity)
	if err != nil {
		return nil, err
	}
	c.cache.invalidate(orgID, entityType)
	return &entity, nil
}

// GetEntity fetches one entity with its dynamic fields.
func (c *Client) GetEntity(ctx context.Context, orgID, entityID uuid.UUID, entityType string) (*models.Entity, error) {
	var entity models.Entity
	err := c.do(ctx, orgID, http.MethodGet, "/api/entities/"+entityType+"/"+entityID.String(), nil, &entity)
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// ListEntities lists entities of a type. Results are cached per organization
// and entity type until the next mutation through this client.
func (c *Client) ListEntities(ctx context.Context, orgID uuid.UUID, entityType string, opts ListOptions) (*ListResult, error) {
	key := cacheKey(orgID, entityType, opts)
	if cached, ok := c.cache.get(orgID, entityType, key); ok {
		return cached, nil
	}

	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Search != "" {
		q.Set("q", opts.Search)
	}
	if opts.IncludeDynamic {
		q.Set("include_dynamic", "true")
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/api/entities/" + entityType
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var result ListResult
	if err := c.do(ctx, orgID, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	c.cache.put(orgID, entityType, key, &result)
	return &result, nil
}

// UpdateEntity applies a partial update carrying the version read earlier. A
// stale version surfaces as a ConflictError; re-read and merge to retry.
func (c *Client) UpdateEntity(ctx context.Context, orgID, entityID uuid.UUID, entityType string, version int, fields map[string]interface{}) (*models.Entity, error) {
	p, ok := c.presets.Get(entityType)
	if !ok {
		return nil, apperrors.NewNotFoundError("entity type")
	}

	payload := map[string]interface{}{
		"version":        version,
		"dynamic_fields": intersect(p, fields),
	}
	if name, ok := fields["entity_name"].(string); ok {
		payload["entity_name"] = name
	}

	var entity models.Entity
	err := c.do(ctx, orgID, http.MethodPut, "/api/entities/"+entityType+"/"+entityID.String(), payload, &entity)
	if err != nil {
		return nil, err
	}
	c.cache.invalidate(orgID, entityType)
	return &entity, nil
}

// DeleteEntity archives an entity, or hard-deletes it when hard is true.
func (c *Client) DeleteEntity(ctx context.Context, orgID, entityID uuid.UUID, entityType string, hard bool) error {
	path := "/api/entities/" + entityType + "/" + entityID.String()
	if hard {
		path += "?hard=true"
	}
	if err := c.do(ctx, orgID, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.cache.invalidate(orgID, entityType)
	return nil
}

// SetDynamicFields writes dynamic field values directly, without an entity
// version token. Keys the preset does not declare are dropped locally.
func (c *Client) SetDynamicFields(ctx context.Context, orgID, entityID uuid.UUID, entityType string, fields map[string]interface{}) ([]models.DynamicField, error) {
	p, ok := c.presets.Get(entityType)
	if !ok {
		return nil, apperrors.NewNotFoundError("entity type")
	}

	var result struct {
		DynamicFields []models.DynamicField `json:"dynamic_fields"`
	}
	path := "/api/entities/" + entityType + "/" + entityID.String() + "/dynamic-data"
	if err := c.do(ctx, orgID, http.MethodPost, path, intersect(p, fields), &result); err != nil {
		return nil, err
	}
	c.cache.invalidate(orgID, entityType)
	return result.DynamicFields, nil
}

// CreateTransaction posts a transaction header with lines.
func (c *Client) CreateTransaction(ctx context.Context, orgID uuid.UUID, input interface{}) (*models.Transaction, error) {
	var txn models.Transaction
	if err := c.do(ctx, orgID, http.MethodPost, "/api/transactions", input, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// GetTransaction fetches one transaction with its lines.
func (c *Client) GetTransaction(ctx context.Context, orgID, txnID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	if err := c.do(ctx, orgID, http.MethodGet, "/api/transactions/"+txnID.String(), nil, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// intersect keeps only payload keys the preset declares.
func intersect(p *preset.Preset, fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for name, value := range fields {
		if _, ok := p.Field(name); ok {
			out[name] = value
		}
	}
	return out
}

// do executes one request with the organization header and decodes either the
// success body or the error taxonomy.
func (c *Client) do(ctx context.Context, orgID uuid.UUID, method, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(OrgHeader, orgID.String())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorBody mirrors the server's error envelope.
type errorBody struct {
	Error           string                 `json:"error"`
	Message         string                 `json:"message"`
	Fields          []apperrors.FieldError `json:"fields"`
	ExpectedVersion int                    `json:"expected_version"`
	ActualVersion   int                    `json:"actual_version"`
}

// decodeError maps an error response back onto the shared taxonomy.
func decodeError(status int, raw []byte) error {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil || body.Error == "" {
		return apperrors.NewInternalError(fmt.Errorf("unexpected response status %d", status))
	}

	switch body.Error {
	case "NOT_FOUND":
		return apperrors.NewNotFoundError("resource")
	case "VALIDATION_ERROR":
		if len(body.Fields) > 0 {
			return apperrors.NewFieldErrors(body.Fields)
		}
		return apperrors.NewValidationError("", body.Message)
	case "VERSION_CONFLICT":
		return apperrors.NewVersionConflictError("entity", body.ExpectedVersion, body.ActualVersion)
	case "CONFLICT":
		return apperrors.NewConflictError("resource")
	case "PERMISSION_DENIED":
		return apperrors.NewPermissionDeniedError("", "")
	case "UNAUTHORIZED":
		return apperrors.NewUnauthorizedError(body.Message)
	case "BAD_REQUEST":
		return apperrors.NewBadRequestError(body.Message)
	default:
		return apperrors.NewInternalError(fmt.Errorf("%s: %s", body.Error, body.Message))
	}
}
