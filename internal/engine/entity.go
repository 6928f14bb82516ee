// Package engine contains the universal store engines. All operations are
// scoped by an explicit organization id; there is no ambient tenant context.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/models"
	"github.com/aethra/hera/internal/preset"
	"github.com/aethra/hera/internal/security"
)

// EntityEngine handles CRUD over the universal entity tables.
type EntityEngine struct {
	db   *gorm.DB
	rels *RelationshipEngine
	log  *zap.Logger
}

// NewEntityEngine creates a new entity engine.
func NewEntityEngine(db *gorm.DB, rels *RelationshipEngine, log *zap.Logger) *EntityEngine {
	return &EntityEngine{db: db, rels: rels, log: log}
}

// CreateEntityInput is the payload for CreateEntity.
type CreateEntityInput struct {
	EntityType    string
	EntityName    string
	EntityCode    string
	SmartCode     string
	Status        string
	Metadata      models.JSONB
	DynamicFields map[string]preset.Value
	Relationships map[string][]uuid.UUID
}

// UpdateEntityPatch is a partial update. Only fields explicitly present are
// applied. DynamicPatch upserts named fields; RelationshipsPatch replaces the
// full target set per named relationship type. Version must be the version
// the caller read.
type UpdateEntityPatch struct {
	EntityName         *string
	Status             *string
	Version            int
	DynamicPatch       map[string]preset.Value
	RelationshipsPatch map[string][]uuid.UUID
}

// ListParams filters ListEntities.
type ListParams struct {
	EntityType       string
	Status           string
	Search           string
	IncludeDynamic   bool
	RelationshipType string
	RelatedTo        *uuid.UUID
	Limit            int
	Offset           int
	Sort             string
	SortDir          string
}

// ListResult is the envelope for a list query.
type ListResult struct {
	Entities []models.Entity `json:"entities"`
	Total    int64           `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// sortColumns is the allow-list for caller-supplied sort keys.
var sortColumns = map[string]bool{
	"entity_name": true,
	"entity_code": true,
	"entity_type": true,
	"status":      true,
	"created_at":  true,
	"updated_at":  true,
}

// CreateEntity inserts an entity with its dynamic fields and initial
// relationships in one transaction. Status defaults to active, version to 1.
func (e *EntityEngine) CreateEntity(ctx context.Context, orgID uuid.UUID, input CreateEntityInput) (*models.Entity, error) {
	if input.EntityType == "" {
		return nil, apperrors.NewValidationError("entity_type", "entity_type is required")
	}
	if input.EntityName == "" {
		return nil, apperrors.NewValidationError("entity_name", "entity_name is required")
	}
	for name := range input.DynamicFields {
		if err := security.ValidateIdentifier(name); err != nil {
			return nil, apperrors.NewValidationError(name, fmt.Sprintf("invalid field name: %v", err))
		}
	}

	status := input.Status
	if status == "" {
		status = models.StatusActive
	}

	entity := models.Entity{
		ID:             uuid.New(),
		OrganizationID: orgID,
		EntityType:     input.EntityType,
		EntityName:     input.EntityName,
		EntityCode:     input.EntityCode,
		SmartCode:      input.SmartCode,
		Status:         status,
		Version:        1,
		Metadata:       input.Metadata,
	}

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entity).Error; err != nil {
			return fmt.Errorf("failed to create entity: %w", err)
		}
		if err := upsertDynamicFields(tx, orgID, entity.ID, input.DynamicFields); err != nil {
			return err
		}
		for relType, targets := range input.Relationships {
			if err := e.rels.replaceForType(tx, orgID, entity.ID, relType, targets); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("entity created",
		zap.String("organization_id", orgID.String()),
		zap.String("entity_id", entity.ID.String()),
		zap.String("entity_type", entity.EntityType))
	e.writeAudit(ctx, orgID, nil, "entity", entity.ID, "create", nil, entitySnapshot(&entity, input.DynamicFields))

	return e.GetEntity(ctx, orgID, entity.ID, true)
}

// GetEntity returns one entity, optionally with its dynamic fields.
func (e *EntityEngine) GetEntity(ctx context.Context, orgID, entityID uuid.UUID, includeDynamic bool) (*models.Entity, error) {
	query := e.db.WithContext(ctx).Where("organization_id = ? AND id = ?", orgID, entityID)
	if includeDynamic {
		query = query.Preload("DynamicFields", func(db *gorm.DB) *gorm.DB {
			return db.Order("field_name")
		})
	}

	var entity models.Entity
	if err := query.First(&entity).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.NewNotFoundError("entity")
		}
		return nil, apperrors.NewInternalError(err)
	}
	return &entity, nil
}

// ListEntities returns entities of a type with filters applied. Every query
// carries the organization scope.
func (e *EntityEngine) ListEntities(ctx context.Context, orgID uuid.UUID, params ListParams) (*ListResult, error) {
	if params.Limit < 1 {
		params.Limit = 25
	}
	if params.Limit > 100 {
		params.Limit = 100
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	query := e.db.WithContext(ctx).Model(&models.Entity{}).Where("organization_id = ?", orgID)

	if params.EntityType != "" {
		query = query.Where("entity_type = ?", params.EntityType)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	} else {
		query = query.Where("status <> ?", models.StatusArchived)
	}
	if params.Search != "" {
		escaped := security.EscapeLikePattern(params.Search)
		pattern := "%" + escaped + "%"
		query = query.Where(`(entity_name ILIKE ? ESCAPE '\' OR entity_code ILIKE ? ESCAPE '\')`, pattern, pattern)
	}
	if params.RelatedTo != nil {
		sub := e.db.Model(&models.Relationship{}).
			Select("from_entity_id").
			Where("organization_id = ? AND to_entity_id = ?", orgID, *params.RelatedTo)
		if params.RelationshipType != "" {
			sub = sub.Where("relationship_type = ?", params.RelationshipType)
		}
		query = query.Where("id IN (?)", sub)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	if params.Sort != "" && sortColumns[params.Sort] {
		if err := security.ValidateIdentifier(params.Sort); err == nil {
			dir := "ASC"
			if strings.EqualFold(params.SortDir, "desc") {
				dir = "DESC"
			}
			query = query.Order(security.QuoteIdentifier(params.Sort) + " " + dir)
		}
	} else {
		query = query.Order("created_at DESC")
	}

	if params.IncludeDynamic {
		query = query.Preload("DynamicFields", func(db *gorm.DB) *gorm.DB {
			return db.Order("field_name")
		})
	}

	var entities []models.Entity
	if err := query.Offset(params.Offset).Limit(params.Limit).Find(&entities).Error; err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	return &ListResult{
		Entities: entities,
		Total:    total,
		Limit:    params.Limit,
		Offset:   params.Offset,
	}, nil
}

// UpdateEntity applies a partial update under optimistic concurrency. A stale
// version fails with a version conflict and the caller must re-read and merge.
func (e *EntityEngine) UpdateEntity(ctx context.Context, orgID, entityID uuid.UUID, patch UpdateEntityPatch) (*models.Entity, error) {
	if patch.Version < 1 {
		return nil, apperrors.NewValidationError("version", "version is required for updates")
	}
	for name := range patch.DynamicPatch {
		if err := security.ValidateIdentifier(name); err != nil {
			return nil, apperrors.NewValidationError(name, fmt.Sprintf("invalid field name: %v", err))
		}
	}

	before, err := e.GetEntity(ctx, orgID, entityID, true)
	if err != nil {
		return nil, err
	}
	if before.Version != patch.Version {
		return nil, apperrors.NewVersionConflictError("entity", patch.Version, before.Version)
	}

	updates := map[string]interface{}{"version": gorm.Expr("version + 1")}
	if patch.EntityName != nil {
		updates["entity_name"] = *patch.EntityName
	}
	if patch.Status != nil {
		updates["status"] = *patch.Status
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Entity{}).
			Where("organization_id = ? AND id = ? AND version = ?", orgID, entityID, patch.Version).
			Updates(updates)
		if res.Error != nil {
			return apperrors.NewInternalError(res.Error)
		}
		if res.RowsAffected == 0 {
			// Lost the race between the read above and this write.
			var current models.Entity
			if err := tx.Where("organization_id = ? AND id = ?", orgID, entityID).First(&current).Error; err != nil {
				return apperrors.NewNotFoundError("entity")
			}
			return apperrors.NewVersionConflictError("entity", patch.Version, current.Version)
		}

		if err := upsertDynamicFields(tx, orgID, entityID, patch.DynamicPatch); err != nil {
			return err
		}
		for relType, targets := range patch.RelationshipsPatch {
			if err := e.rels.replaceForType(tx, orgID, entityID, relType, targets); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	after, err := e.GetEntity(ctx, orgID, entityID, true)
	if err != nil {
		return nil, err
	}

	e.log.Info("entity updated",
		zap.String("organization_id", orgID.String()),
		zap.String("entity_id", entityID.String()),
		zap.Int("version", after.Version))
	e.writeAudit(ctx, orgID, nil, "entity", entityID, "update",
		entitySnapshot(before, nil), entitySnapshot(after, nil))

	return after, nil
}

// DeleteEntity archives an entity by default. A hard delete removes the row
// and cascades to its dynamic fields and relationships in both directions.
func (e *EntityEngine) DeleteEntity(ctx context.Context, orgID, entityID uuid.UUID, hard bool) error {
	before, err := e.GetEntity(ctx, orgID, entityID, false)
	if err != nil {
		return err
	}

	if !hard {
		res := e.db.WithContext(ctx).Model(&models.Entity{}).
			Where("organization_id = ? AND id = ?", orgID, entityID).
			Updates(map[string]interface{}{
				"status":  models.StatusArchived,
				"version": gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return apperrors.NewInternalError(res.Error)
		}
		e.writeAudit(ctx, orgID, nil, "entity", entityID, "archive", entitySnapshot(before, nil), nil)
		return nil
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Transaction lines keep pointing at the entity; the document trail
		// must stay intact, so the delete is refused instead of cascading.
		var refs int64
		if err := tx.Model(&models.TransactionLine{}).
			Where("organization_id = ? AND entity_id = ?", orgID, entityID).
			Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return apperrors.NewReferencedError("entity", "transaction lines")
		}

		if err := tx.Where("organization_id = ? AND entity_id = ?", orgID, entityID).
			Delete(&models.DynamicField{}).Error; err != nil {
			return err
		}
		if err := tx.Where("organization_id = ? AND (from_entity_id = ? OR to_entity_id = ?)", orgID, entityID, entityID).
			Delete(&models.Relationship{}).Error; err != nil {
			return err
		}
		return tx.Where("organization_id = ? AND id = ?", orgID, entityID).
			Delete(&models.Entity{}).Error
	})
	if err != nil {
		if _, ok := err.(apperrors.HeraError); ok {
			return err
		}
		return apperrors.NewInternalError(err)
	}

	e.log.Info("entity hard-deleted",
		zap.String("organization_id", orgID.String()),
		zap.String("entity_id", entityID.String()))
	e.writeAudit(ctx, orgID, nil, "entity", entityID, "delete", entitySnapshot(before, nil), nil)
	return nil
}

// DynamicFields returns all dynamic field rows for an entity, ordered by
// field name.
func (e *EntityEngine) DynamicFields(ctx context.Context, orgID, entityID uuid.UUID) ([]models.DynamicField, error) {
	if _, err := e.GetEntity(ctx, orgID, entityID, false); err != nil {
		return nil, err
	}
	var rows []models.DynamicField
	err := e.db.WithContext(ctx).
		Where("organization_id = ? AND entity_id = ?", orgID, entityID).
		Order("field_name").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return rows, nil
}

// SetDynamicFields upserts named values directly, without touching the entity
// row or its version. Fields not named are left unchanged.
func (e *EntityEngine) SetDynamicFields(ctx context.Context, orgID, entityID uuid.UUID, values map[string]preset.Value) ([]models.DynamicField, error) {
	for name := range values {
		if err := security.ValidateIdentifier(name); err != nil {
			return nil, apperrors.NewValidationError(name, fmt.Sprintf("invalid field name: %v", err))
		}
	}
	entity, err := e.GetEntity(ctx, orgID, entityID, false)
	if err != nil {
		return nil, err
	}

	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertDynamicFields(tx, orgID, entityID, values)
	})
	if err != nil {
		return nil, err
	}

	e.writeAudit(ctx, orgID, nil, "entity", entityID, "set_dynamic_fields", nil,
		entitySnapshot(entity, values))
	return e.DynamicFields(ctx, orgID, entityID)
}

// upsertDynamicFields writes named typed values, one row per field name.
// Last write wins on an existing name.
func upsertDynamicFields(tx *gorm.DB, orgID, entityID uuid.UUID, values map[string]preset.Value) error {
	for name, value := range values {
		var row models.DynamicField
		err := tx.Where("organization_id = ? AND entity_id = ? AND field_name = ?", orgID, entityID, name).
			First(&row).Error
		switch err {
		case nil:
			value.ToModel(&row)
			if err := tx.Save(&row).Error; err != nil {
				return fmt.Errorf("failed to update dynamic field %q: %w", name, err)
			}
		case gorm.ErrRecordNotFound:
			row = models.DynamicField{
				ID:             uuid.New(),
				OrganizationID: orgID,
				EntityID:       entityID,
				FieldName:      name,
			}
			value.ToModel(&row)
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to create dynamic field %q: %w", name, err)
			}
		default:
			return fmt.Errorf("failed to read dynamic field %q: %w", name, err)
		}
	}
	return nil
}

// entitySnapshot builds an audit payload for an entity and optional values.
func entitySnapshot(entity *models.Entity, values map[string]preset.Value) models.JSONB {
	snap := models.JSONB{
		"entity_type": entity.EntityType,
		"entity_name": entity.EntityName,
		"entity_code": entity.EntityCode,
		"status":      entity.Status,
		"version":     entity.Version,
	}
	fields := make(map[string]interface{})
	for _, row := range entity.DynamicFields {
		if v, err := preset.FromModel(&row); err == nil {
			fields[row.FieldName] = v.Interface()
		}
	}
	for name, v := range values {
		fields[name] = v.Interface()
	}
	if len(fields) > 0 {
		snap["dynamic_fields"] = fields
	}
	return snap
}

func (e *EntityEngine) writeAudit(ctx context.Context, orgID uuid.UUID, userID *uuid.UUID, objectType string, objectID uuid.UUID, action string, oldValues, newValues models.JSONB) {
	writeAuditLog(ctx, e.db, e.log, orgID, userID, objectType, objectID, action, oldValues, newValues)
}
