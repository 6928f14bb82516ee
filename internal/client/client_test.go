package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/models"
)

func TestClient_SendsOrgHeader(t *testing.T) {
	orgID := uuid.New()
	var gotOrg string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrg = r.Header.Get(OrgHeader)
		json.NewEncoder(w).Encode(ListResult{})
	}))
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.ListEntities(context.Background(), orgID, "product", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, orgID.String(), gotOrg)
}

func TestCreateEntity_IntersectsPayloadWithPreset(t *testing.T) {
	var gotBody map[string]interface{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Entity{ID: uuid.New(), EntityType: "product", Version: 1})
	}))
	defer ts.Close()

	c := New(ts.URL)
	entity, err := c.CreateEntity(context.Background(), uuid.New(), "product", "Shampoo", map[string]interface{}{
		"price":   9.99,
		"sku":     "SH-1",
		"unknown": "dropped before sending",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, entity.Version)

	fields, ok := gotBody["dynamic_fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, fields, "price")
	assert.Contains(t, fields, "sku")
	assert.NotContains(t, fields, "unknown")
}

func TestCreateEntity_RequiredFailsLocally(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.CreateEntity(context.Background(), uuid.New(), "product", "Shampoo", map[string]interface{}{
		"sku": "SH-1", // price is required
	})
	require.Error(t, err)
	assert.False(t, called, "invalid payload must not reach the server")

	ve, ok := err.(*apperrors.ValidationError)
	require.True(t, ok)
	assert.Equal(t, "price", ve.Fields[0].Field)
}

func TestUpdateEntity_CarriesVersionAndDecodesConflict(t *testing.T) {
	var gotBody map[string]interface{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":            "VERSION_CONFLICT",
			"message":          "entity was modified",
			"expected_version": 3,
			"actual_version":   5,
		})
	}))
	defer ts.Close()

	c := New(ts.URL)
	_, err := c.UpdateEntity(context.Background(), uuid.New(), uuid.New(), "product", 3, map[string]interface{}{
		"price": 12.5,
	})
	require.Error(t, err)

	assert.Equal(t, 3.0, gotBody["version"])

	ce, ok := err.(*apperrors.ConflictError)
	require.True(t, ok)
	assert.Equal(t, 3, ce.ExpectedVersion)
	assert.Equal(t, 5, ce.ActualVersion)
}

// TestUpdateEntity_PatchPreservesOtherFields drives the client against a
// server that really stores field state: one row per field name with
// last-write-wins, the same upsert contract the entity engine implements.
func TestUpdateEntity_PatchPreservesOtherFields(t *testing.T) {
	orgID, entityID := uuid.New(), uuid.New()
	version := 1
	state := map[string]models.DynamicField{}

	entityPayload := func() models.Entity {
		names := make([]string, 0, len(state))
		for name := range state {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([]models.DynamicField, 0, len(state))
		for _, name := range names {
			rows = append(rows, state[name])
		}
		return models.Entity{ID: entityID, EntityType: "product", Version: version, DynamicFields: rows}
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			var body struct {
				Version       int                    `json:"version"`
				DynamicFields map[string]interface{} `json:"dynamic_fields"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Equal(t, version, body.Version)
			for name, raw := range body.DynamicFields {
				row := models.DynamicField{OrganizationID: orgID, EntityID: entityID, FieldName: name}
				switch v := raw.(type) {
				case float64:
					row.FieldType = "number"
					row.ValueNumber = &v
				case string:
					row.FieldType = "text"
					row.ValueText = &v
				}
				state[name] = row
			}
			version++
			json.NewEncoder(w).Encode(entityPayload())
		case http.MethodGet:
			json.NewEncoder(w).Encode(entityPayload())
		}
	}))
	defer ts.Close()

	c := New(ts.URL)
	ctx := context.Background()

	// Seed two fields, then patch only one of them.
	_, err := c.UpdateEntity(ctx, orgID, entityID, "product", 1, map[string]interface{}{
		"price": 9.99,
		"sku":   "SH-1",
	})
	require.NoError(t, err)

	_, err = c.UpdateEntity(ctx, orgID, entityID, "product", 2, map[string]interface{}{
		"price": 12.5,
	})
	require.NoError(t, err)

	read, err := c.GetEntity(ctx, orgID, entityID, "product")
	require.NoError(t, err)
	require.Len(t, read.DynamicFields, 2, "patching one field must not drop or duplicate rows")

	byName := map[string]models.DynamicField{}
	for _, row := range read.DynamicFields {
		byName[row.FieldName] = row
	}
	require.NotNil(t, byName["price"].ValueNumber)
	assert.Equal(t, 12.5, *byName["price"].ValueNumber)
	require.NotNil(t, byName["sku"].ValueText)
	assert.Equal(t, "SH-1", *byName["sku"].ValueText, "untouched field keeps its value")

	// Writing the same value again leaves the field state identical.
	_, err = c.UpdateEntity(ctx, orgID, entityID, "product", 3, map[string]interface{}{
		"price": 12.5,
	})
	require.NoError(t, err)

	again, err := c.GetEntity(ctx, orgID, entityID, "product")
	require.NoError(t, err)
	assert.Equal(t, read.DynamicFields, again.DynamicFields)
}

func TestListEntities_CachesUntilMutation(t *testing.T) {
	orgID := uuid.New()
	listCalls := 0

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listCalls++
			json.NewEncoder(w).Encode(ListResult{Total: int64(listCalls)})
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(models.Entity{ID: uuid.New(), Version: 1})
		}
	}))
	defer ts.Close()

	c := New(ts.URL)
	ctx := context.Background()

	first, err := c.ListEntities(ctx, orgID, "product", ListOptions{})
	require.NoError(t, err)
	second, err := c.ListEntities(ctx, orgID, "product", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, listCalls, "second list must come from cache")
	assert.Equal(t, first, second)

	// Different options miss the cache.
	_, err = c.ListEntities(ctx, orgID, "product", ListOptions{Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, listCalls)

	// A mutation drops the cached pages for this org and type.
	_, err = c.CreateEntity(ctx, orgID, "product", "Conditioner", map[string]interface{}{"price": 4.5})
	require.NoError(t, err)

	_, err = c.ListEntities(ctx, orgID, "product", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, listCalls)
}

func TestSetDynamicFields_DropsUndeclaredAndInvalidatesCache(t *testing.T) {
	orgID := uuid.New()
	entityID := uuid.New()
	listCalls := 0
	var gotBody map[string]interface{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listCalls++
			json.NewEncoder(w).Encode(ListResult{})
		case http.MethodPost:
			assert.Equal(t, "/api/entities/product/"+entityID.String()+"/dynamic-data", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			json.NewEncoder(w).Encode(map[string]interface{}{"dynamic_fields": []models.DynamicField{}})
		}
	}))
	defer ts.Close()

	c := New(ts.URL)
	ctx := context.Background()

	_, err := c.ListEntities(ctx, orgID, "product", ListOptions{})
	require.NoError(t, err)

	_, err = c.SetDynamicFields(ctx, orgID, entityID, "product", map[string]interface{}{
		"price":   19.99,
		"unknown": "dropped before sending",
	})
	require.NoError(t, err)
	assert.Contains(t, gotBody, "price")
	assert.NotContains(t, gotBody, "unknown")

	_, err = c.ListEntities(ctx, orgID, "product", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, listCalls, "dynamic field write must drop cached lists")
}

func TestListEntities_CacheIsScopedPerOrg(t *testing.T) {
	listCalls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		listCalls++
		json.NewEncoder(w).Encode(ListResult{})
	}))
	defer ts.Close()

	c := New(ts.URL)
	ctx := context.Background()

	_, err := c.ListEntities(ctx, uuid.New(), "product", ListOptions{})
	require.NoError(t, err)
	_, err = c.ListEntities(ctx, uuid.New(), "product", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, listCalls, "different organizations never share cache entries")
}

func TestDecodeError_Taxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error":"NOT_FOUND","message":"entity not found"}`,
			check: func(t *testing.T, err error) {
				_, ok := err.(*apperrors.NotFoundError)
				assert.True(t, ok)
			},
		},
		{
			name:   "validation with fields",
			status: http.StatusBadRequest,
			body:   `{"error":"VALIDATION_ERROR","message":"x","fields":[{"field":"price","message":"Price is required"}]}`,
			check: func(t *testing.T, err error) {
				ve, ok := err.(*apperrors.ValidationError)
				require.True(t, ok)
				assert.Equal(t, "price", ve.Fields[0].Field)
			},
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   `{"error":"UNAUTHORIZED","message":"authentication required"}`,
			check: func(t *testing.T, err error) {
				_, ok := err.(*apperrors.UnauthorizedError)
				assert.True(t, ok)
			},
		},
		{
			name:   "garbage body",
			status: http.StatusBadGateway,
			body:   `<html>bad gateway</html>`,
			check: func(t *testing.T, err error) {
				_, ok := err.(*apperrors.InternalError)
				assert.True(t, ok)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeError(tt.status, []byte(tt.body))
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}
