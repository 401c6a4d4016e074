package models

import "time"

// AuditLogEntry is one row of the append-only audit_log table. The sync
// feature only ever inserts; entries exist for operational inspection.
type AuditLogEntry struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	Action         string    `gorm:"column:action" json:"action"`
	EntityType     string    `gorm:"column:entity_type" json:"entity_type"`
	EntityID       string    `gorm:"column:entity_id" json:"entity_id"`
	ActorID        string    `gorm:"column:actor_id" json:"actor_id"`
	OrganizationID string    `gorm:"column:organization_id" json:"organization_id"`
	Metadata       string    `gorm:"column:metadata" json:"metadata"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName overrides the GORM default pluralization.
func (AuditLogEntry) TableName() string {
	return "audit_log"
}
