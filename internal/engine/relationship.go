// Package engine - relationship operations
package engine

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	apperrors "github.com/aethra/hera/internal/errors"
	"github.com/aethra/hera/internal/models"
)

// RelationshipEngine handles typed directed edges between entities.
type RelationshipEngine struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRelationshipEngine creates a new relationship engine.
func NewRelationshipEngine(db *gorm.DB, log *zap.Logger) *RelationshipEngine {
	return &RelationshipEngine{db: db, log: log}
}

// RelationshipFilter filters ListRelationships. Zero-value fields are ignored.
type RelationshipFilter struct {
	FromEntityID *uuid.UUID
	ToEntityID   *uuid.UUID
	Type         string
}

// Create inserts one edge after checking both endpoints exist in the
// organization. Cross-tenant edges are rejected.
func (r *RelationshipEngine) Create(ctx context.Context, orgID uuid.UUID, rel models.Relationship) (*models.Relationship, error) {
	if rel.RelationshipType == "" {
		return nil, apperrors.NewValidationError("relationship_type", "relationship_type is required")
	}

	var created models.Relationship
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkEndpoints(tx, orgID, rel.FromEntityID, rel.ToEntityID); err != nil {
			return err
		}
		created = models.Relationship{
			ID:               uuid.New(),
			OrganizationID:   orgID,
			FromEntityID:     rel.FromEntityID,
			ToEntityID:       rel.ToEntityID,
			RelationshipType: rel.RelationshipType,
			SmartCode:        rel.SmartCode,
		}
		return tx.Create(&created).Error
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// List returns edges matching the filter, organization-scoped.
func (r *RelationshipEngine) List(ctx context.Context, orgID uuid.UUID, filter RelationshipFilter) ([]models.Relationship, error) {
	query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if filter.FromEntityID != nil {
		query = query.Where("from_entity_id = ?", *filter.FromEntityID)
	}
	if filter.ToEntityID != nil {
		query = query.Where("to_entity_id = ?", *filter.ToEntityID)
	}
	if filter.Type != "" {
		query = query.Where("relationship_type = ?", filter.Type)
	}

	var rels []models.Relationship
	if err := query.Order("created_at").Find(&rels).Error; err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return rels, nil
}

// Delete removes one edge by id.
func (r *RelationshipEngine) Delete(ctx context.Context, orgID, relID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, relID).
		Delete(&models.Relationship{})
	if res.Error != nil {
		return apperrors.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("relationship")
	}
	return nil
}

// replaceForType replaces the complete set of outgoing edges of one type for
// an entity. The patch is not additive: targets absent from the new set are
// removed. Runs inside the caller's transaction.
func (r *RelationshipEngine) replaceForType(tx *gorm.DB, orgID, fromEntityID uuid.UUID, relType string, targets []uuid.UUID) error {
	if relType == "" {
		return apperrors.NewValidationError("relationship_type", "relationship_type is required")
	}

	for _, target := range targets {
		if err := checkEndpoints(tx, orgID, fromEntityID, target); err != nil {
			return err
		}
	}

	if err := tx.Where("organization_id = ? AND from_entity_id = ? AND relationship_type = ?",
		orgID, fromEntityID, relType).
		Delete(&models.Relationship{}).Error; err != nil {
		return apperrors.NewInternalError(err)
	}

	for _, target := range targets {
		rel := models.Relationship{
			ID:               uuid.New(),
			OrganizationID:   orgID,
			FromEntityID:     fromEntityID,
			ToEntityID:       target,
			RelationshipType: relType,
		}
		if err := tx.Create(&rel).Error; err != nil {
			return apperrors.NewInternalError(err)
		}
	}
	return nil
}

// checkEndpoints verifies both entities exist within the organization.
func checkEndpoints(tx *gorm.DB, orgID, fromID, toID uuid.UUID) error {
	var count int64
	if err := tx.Model(&models.Entity{}).
		Where("organization_id = ? AND id IN ?", orgID, []uuid.UUID{fromID, toID}).
		Count(&count).Error; err != nil {
		return apperrors.NewInternalError(err)
	}
	want := int64(2)
	if fromID == toID {
		want = 1
	}
	if count < want {
		return apperrors.NewValidationError("entity_id", "relationship endpoints must reference existing entities in the same organization")
	}
	return nil
}
