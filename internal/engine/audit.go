// Package engine - audit trail
package engine

import (
	"context"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aethra/hera/internal/models"
)

// writeAuditLog records a mutation. Audit failures are logged and never fail
// the mutation itself.
func writeAuditLog(ctx context.Context, db *gorm.DB, log *zap.Logger, orgID uuid.UUID, userID *uuid.UUID, objectType string, objectID uuid.UUID, action string, oldValues, newValues models.JSONB) {
	entry := models.AuditLog{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		ObjectType:     objectType,
		ObjectID:       objectID,
		Action:         action,
		OldValues:      oldValues,
		NewValues:      newValues,
		ChangedFields:  changedFields(oldValues, newValues),
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Warn("audit log write failed",
			zap.String("object_type", objectType),
			zap.String("object_id", objectID.String()),
			zap.String("action", action),
			zap.Error(err))
	}
}

// changedFields lists top-level keys whose value differs between snapshots.
func changedFields(oldValues, newValues models.JSONB) pq.StringArray {
	if oldValues == nil || newValues == nil {
		return nil
	}
	var changed pq.StringArray
	for key, newVal := range newValues {
		oldVal, exists := oldValues[key]
		if !exists || !equalValues(oldVal, newVal) {
			changed = append(changed, key)
		}
	}
	return changed
}

func equalValues(a, b interface{}) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	}
	// Fall back to identity for composite values.
	return false
}
