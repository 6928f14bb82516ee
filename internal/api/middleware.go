// Package api - middleware
package api

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/metrics"
	"github.com/aethra/hera/internal/preset"
)

// Header and context keys for request-scoped identity.
const (
	OrgHeader       = "x-hera-org"
	RequestIDHeader = "X-Request-ID"

	ctxOrgID  = "organization_id"
	ctxUserID = "user_id"
	ctxRoles  = "roles"
	ctxEmail  = "email"
)

// RequestIDMiddleware tags each request with a unique id, honoring one the
// caller already supplied.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Request.Header.Set(RequestIDHeader, requestID)
		c.Writer.Header().Set(RequestIDHeader, requestID)
		c.Next()
	}
}

// OrgMiddleware requires the x-hera-org header and stores the parsed
// organization id. There is no ambient default organization.
func (h *Handler) OrgMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(OrgHeader)
		if raw == "" {
			metrics.RecordOrgContextMissing()
			abortWithError(c, apperrors.NewBadRequestError("missing "+OrgHeader+" header"))
			return
		}
		orgID, err := uuid.Parse(raw)
		if err != nil {
			abortWithError(c, apperrors.NewBadRequestError("invalid "+OrgHeader+" header"))
			return
		}
		// A token bound to an organization may not act on another one.
		if tokenOrg, ok := c.Get(ctxOrgID); ok {
			if bound, ok := tokenOrg.(uuid.UUID); ok && bound != orgID {
				abortWithError(c, apperrors.NewPermissionDeniedError("access", "organization"))
				return
			}
		}
		c.Set(ctxOrgID, orgID)
		c.Next()
	}
}

// UserMiddleware parses an optional Bearer token into user identity. It never
// rejects; RequireAuthMiddleware does that.
func (h *Handler) UserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}
		claims, err := h.jwt.ValidateToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.Next()
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRoles, claims.Roles)
		c.Set(ctxEmail, claims.Email)
		// A token bound to an organization pins the request scope.
		if _, present := c.Get(ctxOrgID); !present && claims.OrganizationID != uuid.Nil {
			c.Set(ctxOrgID, claims.OrganizationID)
		}
		c.Next()
	}
}

// RequireAuthMiddleware rejects requests without a validated user.
func (h *Handler) RequireAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ctxUserID); !ok {
			abortWithError(c, apperrors.NewUnauthorizedError(""))
			return
		}
		c.Next()
	}
}

// PermissionMiddleware checks the caller's roles against the preset's
// permission table for the entity type in the route.
func (h *Handler) PermissionMiddleware(action preset.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		entityType := c.Param("entity_type")
		p, ok := h.presets.Get(entityType)
		if !ok {
			abortWithError(c, apperrors.NewNotFoundError("entity type"))
			return
		}
		if !p.Permissions.Can(action, rolesOf(c)) {
			abortWithError(c, apperrors.NewPermissionDeniedError(string(action), entityType))
			return
		}
		c.Next()
	}
}

// orgOf returns the request's organization id. Routes behind OrgMiddleware
// always have one.
func orgOf(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(ctxOrgID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

func rolesOf(c *gin.Context) []string {
	if v, ok := c.Get(ctxRoles); ok {
		if roles, ok := v.([]string); ok {
			return roles
		}
	}
	return nil
}

func userOf(c *gin.Context) *uuid.UUID {
	if v, ok := c.Get(ctxUserID); ok {
		if id, ok := v.(uuid.UUID); ok {
			return &id
		}
	}
	return nil
}

func abortWithError(c *gin.Context, err error) {
	status, body := apperrors.ToHTTPError(err)
	c.AbortWithStatusJSON(status, body)
}

func respondError(c *gin.Context, err error) {
	status, body := apperrors.ToHTTPError(err)
	c.JSON(status, body)
}
