package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Weekdays in grid order. Labels are the canonical storage form.
var Weekdays = []string{"lundi", "mardi", "mercredi", "jeudi", "vendredi"}

var dayAliases = map[string]string{
	"lundi":     "lundi",
	"mardi":     "mardi",
	"mercredi":  "mercredi",
	"jeudi":     "jeudi",
	"vendredi":  "vendredi",
	"samedi":    "samedi",
	"dimanche":  "dimanche",
	"monday":    "lundi",
	"tuesday":   "mardi",
	"wednesday": "mercredi",
	"thursday":  "jeudi",
	"friday":    "vendredi",
	"saturday":  "samedi",
	"sunday":    "dimanche",
}

var dayOffsets = map[string]int{
	"lundi":    0,
	"mardi":    1,
	"mercredi": 2,
	"jeudi":    3,
	"vendredi": 4,
	"samedi":   5,
	"dimanche": 6,
}

// NormalizeDay maps a French or English weekday name onto its canonical label.
func NormalizeDay(raw string) (string, error) {
	day, ok := dayAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("unknown day %q", raw)
	}
	return day, nil
}

// NormalizeClock validates a wall-clock time and renders it as zero-padded HH:MM.
// Seconds are accepted and dropped, matching the time columns of the legacy schema.
func NormalizeClock(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("invalid time %q, expected HH:MM", raw)
}

// DateOf returns the calendar date of day within the Monday-based week containing ref.
func DateOf(ref time.Time, day string) (time.Time, bool) {
	offset, ok := dayOffsets[day]
	if !ok {
		return time.Time{}, false
	}
	weekday := (int(ref.Weekday()) + 6) % 7
	monday := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location()).AddDate(0, 0, -weekday)
	return monday.AddDate(0, 0, offset), true
}
