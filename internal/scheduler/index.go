package scheduler

import (
	"strings"

	"github.com/noah-isme/timetable-api/internal/models"
)

type blockKey struct {
	resourceID string
	day        string
	clock      string
}

// ConstraintIndex answers whether a teacher is blocked at a weekday and start time.
// Matching is exact HH:MM equality; durations and overlaps are not considered.
type ConstraintIndex struct {
	blocked map[blockKey]string
}

// NewConstraintIndex indexes active teacher constraints. Every constraint type blocks
// except those listed in softTypes (compared case-insensitively).
func NewConstraintIndex(constraints []models.Constraint, softTypes ...string) *ConstraintIndex {
	soft := make(map[string]struct{}, len(softTypes))
	for _, t := range softTypes {
		soft[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}

	idx := &ConstraintIndex{blocked: make(map[blockKey]string)}
	for _, c := range constraints {
		if !c.Active || c.ResourceType != models.ResourceTeacher {
			continue
		}
		if _, ok := soft[strings.ToLower(c.ConstraintType)]; ok {
			continue
		}
		day, err := NormalizeDay(c.Day)
		if err != nil {
			continue
		}
		clock, err := NormalizeClock(c.Time)
		if err != nil {
			continue
		}
		idx.blocked[blockKey{resourceID: c.ResourceID, day: day, clock: clock}] = c.ConstraintType
	}
	return idx
}

// Blocks reports whether teacherID has a blocking constraint at (day, start).
func (i *ConstraintIndex) Blocks(teacherID, day, start string) bool {
	if i == nil {
		return false
	}
	_, ok := i.blocked[blockKey{resourceID: teacherID, day: day, clock: start}]
	return ok
}

// Len returns the number of indexed blocking keys.
func (i *ConstraintIndex) Len() int {
	if i == nil {
		return 0
	}
	return len(i.blocked)
}
