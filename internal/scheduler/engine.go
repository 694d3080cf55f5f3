package scheduler

import (
	"errors"
	"math/rand"
	"time"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Precondition failures. An empty teacher list is not one of them: it yields an
// empty timetable.
var (
	ErrNoRooms    = errors.New("no active rooms configured")
	ErrNoSubjects = errors.New("no subjects configured")
)

// Skip reasons reported for gaps.
const (
	SkipNoEligibleTeacher = "no_eligible_teacher"
	SkipNoFreeRoom        = "no_free_room"
)

// Rand is the random source used for every pick.
type Rand interface {
	Intn(n int) int
}

// NewRand returns a non-cryptographic source seeded from the clock. It is not safe
// for concurrent use; create one per generation.
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Input is a read snapshot of everything one generation needs.
type Input struct {
	GroupID  string
	Date     time.Time
	Teachers []models.Teacher
	Rooms    []models.Room
	Subjects []string
	Index    *ConstraintIndex
	Busy     *Busy
}

// SkippedSlot is a gap left in the grid.
type SkippedSlot struct {
	Slot
	Reason string `json:"reason"`
}

// Result is the outcome of one generation.
type Result struct {
	Entries []models.TimetableEntry
	Skipped []SkippedSlot
}

// Generate fills the weekly grid for one group. Every slot gets a uniformly random
// teacher among those not blocked at the slot start, a random room and a random
// subject. No capacity, subject or load rules are applied.
func Generate(in Input, rnd Rand) (*Result, error) {
	if len(in.Rooms) == 0 {
		return nil, ErrNoRooms
	}
	if len(in.Subjects) == 0 {
		return nil, ErrNoSubjects
	}
	if rnd == nil {
		rnd = NewRand()
	}

	grid := Slots()
	res := &Result{
		Entries: make([]models.TimetableEntry, 0, len(grid)),
		Skipped: make([]SkippedSlot, 0),
	}

	for _, slot := range grid {
		eligible := make([]models.Teacher, 0, len(in.Teachers))
		for _, t := range in.Teachers {
			if in.Index.Blocks(t.ID, slot.Day, slot.Start) || in.Busy.teacherBusy(t.ID, slot) {
				continue
			}
			eligible = append(eligible, t)
		}
		if len(eligible) == 0 {
			res.Skipped = append(res.Skipped, SkippedSlot{Slot: slot, Reason: SkipNoEligibleTeacher})
			continue
		}

		rooms := in.Rooms
		if in.Busy != nil {
			rooms = make([]models.Room, 0, len(in.Rooms))
			for _, r := range in.Rooms {
				if !in.Busy.roomBusy(r.ID, slot) {
					rooms = append(rooms, r)
				}
			}
			if len(rooms) == 0 {
				res.Skipped = append(res.Skipped, SkippedSlot{Slot: slot, Reason: SkipNoFreeRoom})
				continue
			}
		}

		teacher := eligible[rnd.Intn(len(eligible))]
		room := rooms[rnd.Intn(len(rooms))]
		subject := in.Subjects[rnd.Intn(len(in.Subjects))]

		res.Entries = append(res.Entries, models.TimetableEntry{
			GroupID:   in.GroupID,
			TeacherID: teacher.ID,
			RoomID:    room.ID,
			Subject:   subject,
			Day:       slot.Day,
			StartTime: slot.Start,
			EndTime:   slot.End,
			Date:      in.Date,
		})
	}
	return res, nil
}
