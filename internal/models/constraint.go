package models

import "time"

// ResourceType identifies what a constraint is attached to.
type ResourceType string

const (
	ResourceTeacher ResourceType = "teacher"
	ResourceGroup   ResourceType = "group"
)

// Common constraint labels. The type is an open label and other values are accepted.
const (
	ConstraintUnavailable = "unavailable"
	ConstraintPreference  = "preference"
	ConstraintResolved    = "resolved"
)

// Constraint binds a resource to a weekday and wall-clock time.
type Constraint struct {
	ID             string       `db:"id" json:"id"`
	ResourceType   ResourceType `db:"resource_type" json:"resource_type"`
	ResourceID     string       `db:"resource_id" json:"resource_id"`
	ResourceName   string       `db:"resource_name" json:"resource_name"`
	Day            string       `db:"day" json:"day"`
	Time           string       `db:"time" json:"time"`
	ConstraintType string       `db:"constraint_type" json:"constraint_type"`
	Active         bool         `db:"active" json:"active"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at" json:"updated_at"`
}

// ConstraintFilter captures filtering options for listing constraints.
type ConstraintFilter struct {
	ResourceType    ResourceType
	ResourceID      string
	IncludeInactive bool
	Page            int
	PageSize        int
}
