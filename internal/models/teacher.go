package models

import "time"

// Teacher represents an instructor record. Availability is a free-text note and is never parsed.
type Teacher struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Subjects     string    `db:"subjects" json:"subjects"`
	Availability string    `db:"availability" json:"availability"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search          string
	IncludeInactive bool
	Page            int
	PageSize        int
}
