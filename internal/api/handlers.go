// Package api - HTTP handlers for the universal entity surface
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aethra/hera/internal/auth"
	"github.com/aethra/hera/internal/engine"
	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/formspec"
	"github.com/aethra/hera/internal/metrics"
	"github.com/aethra/hera/internal/models"
	"github.com/aethra/hera/internal/preset"
	"github.com/aethra/hera/internal/render"
)

// Handler holds the dependencies for all API handlers.
type Handler struct {
	db       *gorm.DB
	log      *zap.Logger
	entities *engine.EntityEngine
	rels     *engine.RelationshipEngine
	txns     *engine.TransactionEngine
	presets  *preset.Registry
	resolver *formspec.Resolver
	specs    *formspec.DBStore
	jwt      *auth.JWTService
}

// NewHandler creates a new API handler.
func NewHandler(
	db *gorm.DB,
	log *zap.Logger,
	entities *engine.EntityEngine,
	rels *engine.RelationshipEngine,
	txns *engine.TransactionEngine,
	presets *preset.Registry,
	resolver *formspec.Resolver,
	specs *formspec.DBStore,
	jwtService *auth.JWTService,
) *Handler {
	return &Handler{
		db:       db,
		log:      log,
		entities: entities,
		rels:     rels,
		txns:     txns,
		presets:  presets,
		resolver: resolver,
		specs:    specs,
		jwt:      jwtService,
	}
}

// Health returns service health
func (h *Handler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": "down"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": "up"})
}

// ==========================================================================
// ENTITY HANDLERS
// ==========================================================================

// createEntityRequest is the wire payload for entity creation. Dynamic field
// values arrive untyped and are validated against the preset.
type createEntityRequest struct {
	EntityName    string                 `json:"entity_name" binding:"required"`
	EntityCode    string                 `json:"entity_code"`
	Metadata      models.JSONB           `json:"metadata"`
	DynamicFields map[string]interface{} `json:"dynamic_fields"`
	Relationships map[string][]uuid.UUID `json:"relationships"`
}

// updateEntityRequest is the wire payload for entity update. Version carries
// the optimistic concurrency token the caller read.
type updateEntityRequest struct {
	EntityName    *string                `json:"entity_name"`
	Status        *string                `json:"status"`
	Version       int                    `json:"version" binding:"required"`
	DynamicFields map[string]interface{} `json:"dynamic_fields"`
	Relationships map[string][]uuid.UUID `json:"relationships"`
}

// CreateEntity creates an entity of the route's type, validated by its preset.
func (h *Handler) CreateEntity(c *gin.Context) {
	entityType := c.Param("entity_type")
	p, ok := h.presets.Get(entityType)
	if !ok {
		respondError(c, apperrors.NewNotFoundError("entity type"))
		return
	}

	var req createEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	values, err := render.ValidateSubmission(p, req.DynamicFields)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.checkRelationships(p, req.Relationships); err != nil {
		respondError(c, err)
		return
	}

	entity, err := h.entities.CreateEntity(c.Request.Context(), orgOf(c), engine.CreateEntityInput{
		EntityType:    entityType,
		EntityName:    req.EntityName,
		EntityCode:    req.EntityCode,
		SmartCode:     p.SmartCode,
		Metadata:      req.Metadata,
		DynamicFields: values,
		Relationships: req.Relationships,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordEntityOperation("create", entityType)
	c.JSON(http.StatusCreated, entity)
}

// GetEntity returns one entity with its dynamic fields.
func (h *Handler) GetEntity(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid entity id"))
		return
	}

	entity, err := h.entities.GetEntity(c.Request.Context(), orgOf(c), entityID, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

// ListEntities returns entities of the route's type wrapped in the standard
// list envelope.
func (h *Handler) ListEntities(c *gin.Context) {
	entityType := c.Param("entity_type")

	params := engine.ListParams{
		EntityType:       entityType,
		Status:           c.Query("status"),
		Search:           c.Query("q"),
		IncludeDynamic:   c.Query("include_dynamic") == "true",
		RelationshipType: c.Query("relationship_type"),
		Sort:             c.Query("sort"),
		SortDir:          c.Query("sort_dir"),
	}
	if raw := c.Query("related_to"); raw != "" {
		relatedTo, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, apperrors.NewBadRequestError("invalid related_to id"))
			return
		}
		params.RelatedTo = &relatedTo
	}
	params.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "25"))
	params.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := h.entities.ListEntities(c.Request.Context(), orgOf(c), params)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordEntityOperation("list", entityType)
	c.JSON(http.StatusOK, result)
}

// UpdateEntity applies a partial update under optimistic concurrency.
func (h *Handler) UpdateEntity(c *gin.Context) {
	entityType := c.Param("entity_type")
	p, ok := h.presets.Get(entityType)
	if !ok {
		respondError(c, apperrors.NewNotFoundError("entity type"))
		return
	}
	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid entity id"))
		return
	}

	var req updateEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	patch := engine.UpdateEntityPatch{
		EntityName:         req.EntityName,
		Status:             req.Status,
		Version:            req.Version,
		RelationshipsPatch: req.Relationships,
	}
	if len(req.DynamicFields) > 0 {
		values, err := h.decodePatch(p, req.DynamicFields)
		if err != nil {
			respondError(c, err)
			return
		}
		patch.DynamicPatch = values
	}
	if err := h.checkRelationships(p, req.Relationships); err != nil {
		respondError(c, err)
		return
	}

	entity, err := h.entities.UpdateEntity(c.Request.Context(), orgOf(c), entityID, patch)
	if err != nil {
		if ce, ok := err.(*apperrors.ConflictError); ok && ce.ErrorCode == "VERSION_CONFLICT" {
			metrics.RecordVersionConflict()
		}
		respondError(c, err)
		return
	}

	metrics.RecordEntityOperation("update", entityType)
	c.JSON(http.StatusOK, entity)
}

// DeleteEntity archives an entity, or hard-deletes it with ?hard=true.
func (h *Handler) DeleteEntity(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid entity id"))
		return
	}

	hard := c.Query("hard") == "true"
	if err := h.entities.DeleteEntity(c.Request.Context(), orgOf(c), entityID, hard); err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordEntityOperation("delete", c.Param("entity_type"))
	c.JSON(http.StatusOK, gin.H{"deleted": true, "hard": hard})
}

// GetDynamicData returns the dynamic field rows for one entity.
func (h *Handler) GetDynamicData(c *gin.Context) {
	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid entity id"))
		return
	}

	fields, err := h.entities.DynamicFields(c.Request.Context(), orgOf(c), entityID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dynamic_fields": fields})
}

// SetDynamicData upserts dynamic field values directly, validated against the
// route's preset. Unnamed fields are left untouched.
func (h *Handler) SetDynamicData(c *gin.Context) {
	entityType := c.Param("entity_type")
	p, ok := h.presets.Get(entityType)
	if !ok {
		respondError(c, apperrors.NewNotFoundError("entity type"))
		return
	}
	entityID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid entity id"))
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}
	values, err := h.decodePatch(p, payload)
	if err != nil {
		respondError(c, err)
		return
	}

	fields, err := h.entities.SetDynamicFields(c.Request.Context(), orgOf(c), entityID, values)
	if err != nil {
		respondError(c, err)
		return
	}

	metrics.RecordEntityOperation("set_dynamic_fields", entityType)
	c.JSON(http.StatusOK, gin.H{"dynamic_fields": fields})
}

// decodePatch validates only the submitted subset of fields; a patch does not
// re-require fields it leaves untouched.
func (h *Handler) decodePatch(p *preset.Preset, payload map[string]interface{}) (map[string]preset.Value, error) {
	values := make(map[string]preset.Value)
	var fieldErrs []apperrors.FieldError
	for name, raw := range payload {
		spec, ok := p.Field(name)
		if !ok {
			continue
		}
		value, err := preset.Decode(spec.Type, raw)
		if err != nil {
			fieldErrs = append(fieldErrs, apperrors.FieldError{Field: name, Message: err.Error()})
			continue
		}
		value.SmartCode = spec.SmartCode
		values[name] = value
	}
	if len(fieldErrs) > 0 {
		return nil, apperrors.NewFieldErrors(fieldErrs)
	}
	return values, nil
}

// checkRelationships rejects relationship types the preset does not declare.
func (h *Handler) checkRelationships(p *preset.Preset, rels map[string][]uuid.UUID) error {
	for relType, targets := range rels {
		spec, ok := p.Relationship(relType)
		if !ok {
			return apperrors.NewValidationError(relType, "unknown relationship type")
		}
		if spec.Cardinality == preset.CardinalityOne && len(targets) > 1 {
			return apperrors.NewValidationError(relType, "relationship accepts a single target")
		}
	}
	return nil
}

// ==========================================================================
// RELATIONSHIP HANDLERS
// ==========================================================================

type createRelationshipRequest struct {
	FromEntityID     uuid.UUID `json:"from_entity_id" binding:"required"`
	ToEntityID       uuid.UUID `json:"to_entity_id" binding:"required"`
	RelationshipType string    `json:"relationship_type" binding:"required"`
	SmartCode        string    `json:"smart_code"`
}

// CreateRelationship creates one typed edge between two entities.
func (h *Handler) CreateRelationship(c *gin.Context) {
	var req createRelationshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewBadRequestError(err.Error()))
		return
	}

	rel, err := h.rels.Create(c.Request.Context(), orgOf(c), models.Relationship{
		FromEntityID:     req.FromEntityID,
		ToEntityID:       req.ToEntityID,
		RelationshipType: req.RelationshipType,
		SmartCode:        req.SmartCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rel)
}

// ListRelationships returns edges matching query filters.
func (h *Handler) ListRelationships(c *gin.Context) {
	var filter engine.RelationshipFilter
	if raw := c.Query("from_entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, apperrors.NewBadRequestError("invalid from_entity_id"))
			return
		}
		filter.FromEntityID = &id
	}
	if raw := c.Query("to_entity_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(c, apperrors.NewBadRequestError("invalid to_entity_id"))
			return
		}
		filter.ToEntityID = &id
	}
	filter.Type = c.Query("relationship_type")

	rels, err := h.rels.List(c.Request.Context(), orgOf(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationships": rels})
}

// DeleteRelationship removes one edge by id.
func (h *Handler) DeleteRelationship(c *gin.Context) {
	relID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, apperrors.NewBadRequestError("invalid relationship id"))
		return
	}
	if err := h.rels.Delete(c.Request.Context(), orgOf(c), relID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
