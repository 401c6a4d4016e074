package models

import "time"

// Job is a field-service work order. Offline edits reach this table through
// the sync feature; this model backs the read API.
type Job struct {
	ID             string     `gorm:"column:id;primaryKey" json:"id"`
	OrganizationID string     `gorm:"column:organization_id" json:"organization_id"`
	CustomerID     string     `gorm:"column:customer_id" json:"customer_id"`
	AssignedTo     string     `gorm:"column:assigned_to" json:"assigned_to"`
	Status         string     `gorm:"column:status" json:"status"`
	Priority       string     `gorm:"column:priority" json:"priority"`
	Notes          string     `gorm:"column:notes" json:"notes"`
	ScheduledFor   *time.Time `gorm:"column:scheduled_for" json:"scheduled_for"`
	CreatedAt      time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

// TableName overrides the GORM default pluralization.
func (Job) TableName() string {
	return "jobs"
}
