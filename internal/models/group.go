package models

import "time"

// Group is a cohort of students sharing one timetable.
type Group struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	StudentCount int       `db:"student_count" json:"student_count"`
	Subjects     string    `db:"subjects" json:"subjects"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GroupFilter captures filtering options for listing groups.
type GroupFilter struct {
	Search          string
	IncludeInactive bool
	Page            int
	PageSize        int
}
