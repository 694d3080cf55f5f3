package scheduler

import "github.com/noah-isme/timetable-api/internal/models"

type busyKey struct {
	id    string
	day   string
	start string
}

// Busy records teachers and rooms already booked by other groups on the same date.
// A nil *Busy means no cross-group exclusion.
type Busy struct {
	teachers map[busyKey]struct{}
	rooms    map[busyKey]struct{}
}

// NewBusy builds the exclusion set from entries of other groups.
func NewBusy(entries []models.TimetableEntry) *Busy {
	b := &Busy{
		teachers: make(map[busyKey]struct{}, len(entries)),
		rooms:    make(map[busyKey]struct{}, len(entries)),
	}
	for _, e := range entries {
		b.teachers[busyKey{e.TeacherID, e.Day, e.StartTime}] = struct{}{}
		b.rooms[busyKey{e.RoomID, e.Day, e.StartTime}] = struct{}{}
	}
	return b
}

func (b *Busy) teacherBusy(id string, slot Slot) bool {
	if b == nil {
		return false
	}
	_, ok := b.teachers[busyKey{id, slot.Day, slot.Start}]
	return ok
}

func (b *Busy) roomBusy(id string, slot Slot) bool {
	if b == nil {
		return false
	}
	_, ok := b.rooms[busyKey{id, slot.Day, slot.Start}]
	return ok
}
