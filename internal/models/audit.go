package models

import (
	"encoding/json"
	"time"
)

// Audit actions recorded for mutating operations.
const (
	AuditActionCreate     = "CREATE"
	AuditActionUpdate     = "UPDATE"
	AuditActionDeactivate = "DEACTIVATE"
	AuditActionGenerate   = "GENERATE"
)

// Audited resources.
const (
	AuditResourceTeacher    = "teacher"
	AuditResourceRoom       = "room"
	AuditResourceGroup      = "group"
	AuditResourceConstraint = "constraint"
	AuditResourceTimetable  = "timetable"
)

// AuditLog is an append-only trail record.
type AuditLog struct {
	ID         string          `db:"id" json:"id"`
	Actor      string          `db:"actor" json:"actor"`
	Action     string          `db:"action" json:"action"`
	Resource   string          `db:"resource" json:"resource"`
	ResourceID *string         `db:"resource_id" json:"resource_id,omitempty"`
	Detail     json.RawMessage `db:"detail" json:"detail,omitempty"`
	RequestID  *string         `db:"request_id" json:"request_id,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// AuditFilter narrows audit log listings.
type AuditFilter struct {
	Actor     string
	Action    string
	Resource  string
	RequestID string
	Page      int
	PageSize  int
}
