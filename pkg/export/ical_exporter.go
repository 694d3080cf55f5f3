package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// Event is a single calendar occurrence.
type Event struct {
	UID         string
	Summary     string
	Location    string
	Description string
	Start       time.Time
	End         time.Time
}

// ICalExporter renders events into an RFC 5545 calendar.
type ICalExporter struct {
	productID string
	now       func() time.Time
}

// NewICalExporter constructs an iCalendar exporter.
func NewICalExporter() *ICalExporter {
	return &ICalExporter{
		productID: "-//timetable-api//timetable export//FR",
		now:       time.Now,
	}
}

// ContentType reports the MIME type of rendered output.
func (e *ICalExporter) ContentType() string {
	return "text/calendar; charset=utf-8"
}

// Render serialises events into a VCALENDAR document.
func (e *ICalExporter) Render(events []Event, calendarName string) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if calendarName != "" {
		cal.SetXWRCalName(calendarName)
	}

	stamp := e.now().UTC()
	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("ical event requires a uid")
		}
		if !ev.End.After(ev.Start) {
			return nil, fmt.Errorf("ical event %s ends before it starts", ev.UID)
		}
		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp)
		event.SetStartAt(ev.Start)
		event.SetEndAt(ev.End)
		event.SetSummary(ev.Summary)
		if ev.Location != "" {
			event.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
	}

	return []byte(cal.Serialize()), nil
}
