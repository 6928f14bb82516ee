// Package api - preset, render and form spec handlers
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/formspec"
	"github.com/aethra/hera/internal/render"
	"github.com/aethra/hera/internal/smartcode"
)

// ListPresets returns every registered entity type preset.
func (h *Handler) ListPresets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"presets": h.presets.List()})
}

// GetPreset returns one preset by entity type.
func (h *Handler) GetPreset(c *gin.Context) {
	p, ok := h.presets.Get(c.Param("entity_type"))
	if !ok {
		respondError(c, apperrors.NewNotFoundError("entity type"))
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetEntityForm returns the rendered form view model for an entity type.
func (h *Handler) GetEntityForm(c *gin.Context) {
	p, ok := h.presets.Get(c.Param("entity_type"))
	if !ok {
		respondError(c, apperrors.NewNotFoundError("entity type"))
		return
	}
	c.JSON(http.StatusOK, render.BuildForm(p, nil))
}

// GetEntityColumns returns the table columns visible to the caller's roles.
func (h *Handler) GetEntityColumns(c *gin.Context) {
	p, ok := h.presets.Get(c.Param("entity_type"))
	if !ok {
		respondError(c, apperrors.NewNotFoundError("entity type"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": render.ColumnsFor(p, rolesOf(c))})
}

// ResolveFormSpec returns the wizard form spec for a smart code, degrading to
// the generic layout when none is stored.
func (h *Handler) ResolveFormSpec(c *gin.Context) {
	code := c.Param("smart_code")
	if err := smartcode.Validate(code); err != nil {
		respondError(c, apperrors.NewValidationError("smart_code", err.Error()))
		return
	}
	orgID := orgOf(c)
	spec := h.resolver.Resolve(c.Request.Context(), &orgID, code)
	c.JSON(http.StatusOK, spec)
}

// SaveFormSpec upserts an organization-scoped form spec for a smart code.
func (h *Handler) SaveFormSpec(c *gin.Context) {
	code := c.Param("smart_code")
	if err := smartcode.Validate(code); err != nil {
		respondError(c, apperrors.NewValidationError("smart_code", err.Error()))
		return
	}

	var spec formspec.FormSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	spec.SmartCode = code
	if len(spec.Steps) == 0 {
		respondError(c, apperrors.NewValidationError("steps", "form spec needs at least one step"))
		return
	}

	orgID := orgOf(c)
	if err := h.specs.Save(c.Request.Context(), &orgID, &spec); err != nil {
		respondError(c, apperrors.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, &spec)
}
