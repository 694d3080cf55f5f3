package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
)

// Supported export formats.
const (
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatICal = "ical"
	FormatXLSX = "xlsx"
)

var exportHeaders = []string{"Date", "Jour", "Début", "Fin", "Groupe", "Matière", "Enseignant", "Salle"}

type timetableQuerier interface {
	Query(ctx context.Context, q dto.TimetableQuery) ([]models.TimetableView, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

type xlsxRenderer interface {
	Render(data export.Dataset, sheet string) ([]byte, error)
	ContentType() string
}

type icalRenderer interface {
	Render(events []export.Event, calendarName string) ([]byte, error)
	ContentType() string
}

// ExportServiceConfig tunes rendered downloads.
type ExportServiceConfig struct {
	CalendarName string
	Location     *time.Location
}

// ExportFile is a rendered timetable ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the filtered timetable view into downloadable files.
type ExportService struct {
	timetable timetableQuerier
	csv       csvRenderer
	pdf       pdfRenderer
	xlsx      xlsxRenderer
	ical      icalRenderer
	logger    *zap.Logger
	cfg       ExportServiceConfig
}

// NewExportService constructs an ExportService. Nil renderers fall back to the pkg/export defaults.
func NewExportService(timetable timetableQuerier, cfg ExportServiceConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, xlsx xlsxRenderer, ical icalRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter()
	}
	if ical == nil {
		ical = export.NewICalExporter()
	}
	return &ExportService{timetable: timetable, csv: csv, pdf: pdf, xlsx: xlsx, ical: ical, logger: logger, cfg: cfg}
}

// Export renders the timetable matching q in the requested format.
func (s *ExportService) Export(ctx context.Context, format string, q dto.TimetableQuery) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	switch format {
	case FormatCSV, FormatPDF, FormatICal, FormatXLSX:
	default:
		appErr := appErrors.Clone(appErrors.ErrUnsupportedFormat, fmt.Sprintf("unsupported export format %q", format))
		appErr.Details = map[string]string{"supported": strings.Join([]string{FormatCSV, FormatPDF, FormatICal, FormatXLSX}, ",")}
		return nil, appErr
	}

	views, err := s.timetable.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	file := &ExportFile{Filename: buildFilename(q, format)}
	switch format {
	case FormatCSV:
		file.ContentType = s.csv.ContentType()
		file.Payload, err = s.csv.Render(buildDataset(views))
	case FormatPDF:
		file.ContentType = s.pdf.ContentType()
		file.Payload, err = s.pdf.Render(buildDataset(views), exportTitle(q))
	case FormatXLSX:
		file.ContentType = s.xlsx.ContentType()
		file.Payload, err = s.xlsx.Render(buildDataset(views), "Emploi du temps")
	case FormatICal:
		file.ContentType = s.ical.ContentType()
		var events []export.Event
		if events, err = s.buildEvents(views); err == nil {
			file.Payload, err = s.ical.Render(events, s.cfg.CalendarName)
		}
	}
	if err != nil {
		s.logger.Error("timetable export failed", zap.String("format", format), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to render export")
	}
	return file, nil
}

func buildDataset(views []models.TimetableView) export.Dataset {
	rows := make([]map[string]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, map[string]string{
			"Date":       v.Date.Format(models.DateLayout),
			"Jour":       v.Day,
			"Début":      v.StartTime,
			"Fin":        v.EndTime,
			"Groupe":     v.GroupName,
			"Matière":    v.Subject,
			"Enseignant": v.TeacherName,
			"Salle":      v.RoomName,
		})
	}
	return export.Dataset{Headers: exportHeaders, Rows: rows}
}

// buildEvents places each entry on the real calendar day of its weekday, in the
// Monday-based week of the generation date.
func (s *ExportService) buildEvents(views []models.TimetableView) ([]export.Event, error) {
	events := make([]export.Event, 0, len(views))
	for _, v := range views {
		day, ok := scheduler.DateOf(v.Date, v.Day)
		if !ok {
			return nil, fmt.Errorf("entry %s has unknown day %q", v.ID, v.Day)
		}
		start, err := atClock(day, v.StartTime, s.cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", v.ID, err)
		}
		end, err := atClock(day, v.EndTime, s.cfg.Location)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", v.ID, err)
		}

		summary := v.Subject
		if v.GroupName != "" {
			summary += " - " + v.GroupName
		}
		description := ""
		if v.TeacherName != "" {
			description = "Enseignant : " + v.TeacherName
		}
		events = append(events, export.Event{
			UID:         v.ID + "@timetable-api",
			Summary:     summary,
			Location:    v.RoomName,
			Description: description,
			Start:       start,
			End:         end,
		})
	}
	return events, nil
}

func atClock(day time.Time, clock string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q", clock)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), nil
}

func exportTitle(q dto.TimetableQuery) string {
	title := "Emploi du temps"
	if q.Date != "" {
		title += " - semaine du " + q.Date
	}
	return title
}

func buildFilename(q dto.TimetableQuery, format string) string {
	ext := format
	if format == FormatICal {
		ext = "ics"
	}
	group := q.GroupID
	if group == "" {
		group = "all"
	}
	date := q.Date
	if date == "" {
		date = "all"
	}
	return fmt.Sprintf("timetable_%s_%s.%s", sanitizeFilename(group), sanitizeFilename(date), ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
