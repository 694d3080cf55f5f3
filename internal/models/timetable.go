package models

import "time"

// DateLayout is the wire and storage format of timetable dates.
const DateLayout = "2006-01-02"

// TimetableEntry is one generated lesson for a group on a date.
type TimetableEntry struct {
	ID        string    `db:"id" json:"id"`
	GroupID   string    `db:"group_id" json:"group_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	Subject   string    `db:"subject" json:"subject"`
	Day       string    `db:"day" json:"day"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TimetableView is an entry joined with display names. Names are empty when the
// referenced row no longer exists.
type TimetableView struct {
	TimetableEntry
	GroupName   string `db:"group_name" json:"group_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	RoomName    string `db:"room_name" json:"room_name"`
}

// TimetableFilter narrows the joined timetable view. Search is matched after the join.
type TimetableFilter struct {
	GroupID   string
	TeacherID string
	Date      *time.Time
	Search    string
}

// TimetableKey identifies the unit of replacement.
type TimetableKey struct {
	GroupID string
	Date    time.Time
}

// String renders the key for locks and logs.
func (k TimetableKey) String() string {
	return k.GroupID + "@" + k.Date.Format(DateLayout)
}
