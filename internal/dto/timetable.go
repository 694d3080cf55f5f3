package dto

import (
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
)

// GenerateTimetableRequest asks for a fresh timetable for one group and date.
type GenerateTimetableRequest struct {
	GroupID string `json:"group_id" validate:"required,uuid"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
}

// GenerateTimetableResponse reports what was stored. Skipped lists grid slots left
// empty, which is not an error.
type GenerateTimetableResponse struct {
	GroupID string                  `json:"group_id"`
	Date    string                  `json:"date"`
	Created int                     `json:"created"`
	Skipped []scheduler.SkippedSlot `json:"skipped"`
	Entries []models.TimetableEntry `json:"entries"`
}

// TimetableQuery filters the joined timetable view and its exports.
type TimetableQuery struct {
	GroupID   string `form:"group_id" json:"group_id" validate:"omitempty,uuid"`
	TeacherID string `form:"teacher_id" json:"teacher_id" validate:"omitempty,uuid"`
	Date      string `form:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	Search    string `form:"search" json:"search" validate:"max=255"`
}
