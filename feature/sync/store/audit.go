package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"field-ops/core/reconcile"
	"field-ops/feature/sync/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// auditAction is the action key every sync audit row is written under.
const auditAction = "sync_conflict"

// AuditLog implements reconcile.AuditLog on the audit_log table. It is
// write-only: nothing in the service reads the table back.
type AuditLog struct {
	db *gorm.DB
}

// NewAuditLog creates an audit sink on the given connection.
func NewAuditLog(db *gorm.DB) *AuditLog {
	return &AuditLog{db: db}
}

type auditMetadata struct {
	MutationID      string               `json:"mutation_id"`
	Reason          string               `json:"reason"`
	Conflicts       []reconcile.Conflict `json:"conflicts"`
	ClientTimestamp time.Time            `json:"client_timestamp"`
}

// Append inserts one audit row for a conflict or rejection.
func (a *AuditLog) Append(ctx context.Context, entry reconcile.AuditEntry) error {
	meta, err := json.Marshal(auditMetadata{
		MutationID:      entry.MutationID,
		Reason:          string(entry.Reason),
		Conflicts:       entry.Conflicts,
		ClientTimestamp: entry.ClientTimestamp.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode audit metadata: %w", err)
	}

	row := models.AuditLogEntry{
		ID:             uuid.NewString(),
		Action:         auditAction,
		EntityType:     string(entry.Table),
		EntityID:       entry.RecordID,
		ActorID:        entry.Actor.ActorID,
		OrganizationID: entry.Actor.OrganizationID,
		Metadata:       string(meta),
		CreatedAt:      time.Now().UTC(),
	}
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}
