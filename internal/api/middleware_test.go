package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aethra/hera/internal/auth"
	"github.com/aethra/hera/internal/formspec"
	"github.com/aethra/hera/internal/preset"
)

type stubSpecStore struct {
	spec *formspec.FormSpec
}

func (s *stubSpecStore) FormSpecBySmartCode(ctx context.Context, orgID *uuid.UUID, code string) (*formspec.FormSpec, error) {
	return s.spec, nil
}

func testHandler() *Handler {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	return NewHandler(
		nil,
		logger,
		nil,
		nil,
		nil,
		preset.DefaultRegistry(),
		formspec.NewResolver(&stubSpecStore{}, logger),
		nil,
		auth.NewJWTService("test-secret", time.Hour, time.Hour),
	)
}

func newRouter(h *Handler, register func(r *gin.Engine)) *gin.Engine {
	r := gin.New()
	register(r)
	return r
}

func TestOrgMiddleware_RequiresHeader(t *testing.T) {
	h := testHandler()
	r := newRouter(h, func(r *gin.Engine) {
		r.GET("/x", h.OrgMiddleware(), func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"org": orgOf(c).String()})
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(OrgHeader, "not-a-uuid")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	orgID := uuid.New()
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(OrgHeader, orgID.String())
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, orgID.String(), body["org"])
}

func TestOrgMiddleware_RejectsCrossOrgToken(t *testing.T) {
	h := testHandler()
	tokenOrg := uuid.New()
	userID := uuid.New()
	pair, err := h.jwt.GenerateTokenPair(userID, tokenOrg, "a@b.c", []string{"owner"})
	require.NoError(t, err)

	r := newRouter(h, func(r *gin.Engine) {
		r.GET("/x", h.UserMiddleware(), h.OrgMiddleware(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	})

	// Header matching the token's organization is fine.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	req.Header.Set(OrgHeader, tokenOrg.String())
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// A different organization in the header is rejected.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	req.Header.Set(OrgHeader, uuid.New().String())
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAuthMiddleware(t *testing.T) {
	h := testHandler()
	r := newRouter(h, func(r *gin.Engine) {
		r.GET("/me", h.UserMiddleware(), h.RequireAuthMiddleware(), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	pair, err := h.jwt.GenerateTokenPair(uuid.New(), uuid.New(), "a@b.c", nil)
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPermissionMiddleware_ChecksPresetRoles(t *testing.T) {
	h := testHandler()
	r := newRouter(h, func(r *gin.Engine) {
		r.DELETE("/e/:entity_type/:id",
			h.UserMiddleware(),
			h.PermissionMiddleware(preset.ActionDelete),
			func(c *gin.Context) { c.Status(http.StatusOK) },
		)
	})

	call := func(roles []string) int {
		pair, err := h.jwt.GenerateTokenPair(uuid.New(), uuid.New(), "a@b.c", roles)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/e/product/"+uuid.NewString(), nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		r.ServeHTTP(w, req)
		return w.Code
	}

	// product delete is restricted to owner
	assert.Equal(t, http.StatusForbidden, call([]string{"staff"}))
	assert.Equal(t, http.StatusForbidden, call([]string{"manager"}))
	assert.Equal(t, http.StatusOK, call([]string{"owner"}))
}

func TestPermissionMiddleware_UnknownEntityType(t *testing.T) {
	h := testHandler()
	r := newRouter(h, func(r *gin.Engine) {
		r.GET("/e/:entity_type", h.PermissionMiddleware(preset.ActionView), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/e/spaceship", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveFormSpec_FallsBack(t *testing.T) {
	h := testHandler()
	r := newRouter(h, func(r *gin.Engine) {
		r.GET("/form-specs/:smart_code", h.OrgMiddleware(), h.ResolveFormSpec)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/form-specs/HERA.SALES.TXN.ORDER.v1", nil)
	req.Header.Set(OrgHeader, uuid.NewString())
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var spec formspec.FormSpec
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &spec))
	require.Len(t, spec.Steps, 2)
	assert.Equal(t, "p_transaction_date", spec.Steps[0].Fields[0].Name)
}

func TestResolveFormSpec_RejectsMalformedCode(t *testing.T) {
	h := testHandler()
	r := newRouter(h, func(r *gin.Engine) {
		r.GET("/form-specs/:smart_code", h.OrgMiddleware(), h.ResolveFormSpec)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/form-specs/lowercase.code", nil)
	req.Header.Set(OrgHeader, uuid.NewString())
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEntityColumns_FiltersByRole(t *testing.T) {
	h := testHandler()
	r := newRouter(h, func(r *gin.Engine) {
		r.GET("/presets/:entity_type/columns", h.UserMiddleware(), h.OrgMiddleware(), h.GetEntityColumns)
	})

	call := func(roles []string) []string {
		orgID := uuid.New()
		pair, err := h.jwt.GenerateTokenPair(uuid.New(), orgID, "a@b.c", roles)
		require.NoError(t, err)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/presets/product/columns", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		req.Header.Set(OrgHeader, orgID.String())
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		names := make([]string, len(body.Columns))
		for i, col := range body.Columns {
			names[i] = col.Name
		}
		return names
	}

	assert.NotContains(t, call([]string{"staff"}), "cost")
	assert.Contains(t, call([]string{"owner"}), "cost")
}
