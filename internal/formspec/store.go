// Package formspec - database-backed spec storage
package formspec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aethra/hera/internal/models"
)

// DBStore loads form specs from the ucr_form_specs table. Organization-scoped
// specs shadow global ones for the same smart code.
type DBStore struct {
	db *gorm.DB
}

// NewDBStore creates a store over the given database.
func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

// FormSpecBySmartCode returns the most specific active spec for a smart code:
// the organization's own spec when present, else a global one, else nil.
func (s *DBStore) FormSpecBySmartCode(ctx context.Context, orgID *uuid.UUID, code string) (*FormSpec, error) {
	query := s.db.WithContext(ctx).
		Where("smart_code = ? AND is_active = ?", code, true)
	if orgID != nil {
		query = query.Where("organization_id = ? OR organization_id IS NULL", *orgID).
			Order("organization_id NULLS LAST")
	} else {
		query = query.Where("organization_id IS NULL")
	}

	var record models.FormSpecRecord
	if err := query.First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return decodeRecord(&record)
}

// Save upserts a spec for a smart code within one organization scope.
func (s *DBStore) Save(ctx context.Context, orgID *uuid.UUID, spec *FormSpec) error {
	raw, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("failed to encode form spec: %w", err)
	}
	var payload models.JSONB
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("failed to encode form spec: %w", err)
	}

	record := models.FormSpecRecord{
		ID:             uuid.New(),
		OrganizationID: orgID,
		SmartCode:      spec.SmartCode,
		Spec:           payload,
		IsActive:       true,
	}

	query := s.db.WithContext(ctx).Where("smart_code = ?", spec.SmartCode)
	if orgID != nil {
		query = query.Where("organization_id = ?", *orgID)
	} else {
		query = query.Where("organization_id IS NULL")
	}

	var existing models.FormSpecRecord
	switch err := query.First(&existing).Error; err {
	case nil:
		existing.Spec = payload
		existing.IsActive = true
		return s.db.WithContext(ctx).Save(&existing).Error
	case gorm.ErrRecordNotFound:
		return s.db.WithContext(ctx).Create(&record).Error
	default:
		return err
	}
}

func decodeRecord(record *models.FormSpecRecord) (*FormSpec, error) {
	raw, err := json.Marshal(record.Spec)
	if err != nil {
		return nil, fmt.Errorf("form spec %s is corrupt: %w", record.SmartCode, err)
	}
	var spec FormSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return nil, fmt.Errorf("form spec %s is corrupt: %w", record.SmartCode, err)
	}
	if len(spec.Steps) == 0 {
		return nil, fmt.Errorf("form spec %s has no steps", record.SmartCode)
	}
	if spec.SmartCode == "" {
		spec.SmartCode = record.SmartCode
	}
	return &spec, nil
}
