package scheduler

// Slot is one cell of the weekly grid.
type Slot struct {
	Day   string `json:"day"`
	Start string `json:"start_time"`
	End   string `json:"end_time"`
}

type period struct {
	start, end string
}

var periods = []period{
	{"08:00", "10:00"},
	{"10:00", "12:00"},
	{"14:00", "16:00"},
	{"16:00", "18:00"},
}

// Slots returns the fixed grid, day-major, identical for every group and date.
// The returned slice is a fresh copy.
func Slots() []Slot {
	out := make([]Slot, 0, len(Weekdays)*len(periods))
	for _, day := range Weekdays {
		for _, p := range periods {
			out = append(out, Slot{Day: day, Start: p.start, End: p.end})
		}
	}
	return out
}
