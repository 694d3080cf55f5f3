package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"Jour", "Début", "Matière"},
		Rows: []map[string]string{
			{"Jour": "lundi", "Début": "08:00", "Matière": "Mathématiques"},
			{"Jour": "mardi", "Début": "10:00", "Matière": "Physique, TP"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Jour,Début,Matière", lines[0])
	assert.Equal(t, `mardi,10:00,"Physique, TP"`, lines[2])
}

func TestExportersRejectEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Dataset{}, "x")
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Emploi du temps - Groupe A")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(sampleDataset(), "Emploi du temps")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Emploi du temps")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Jour", "Début", "Matière"}, rows[0])
	assert.Equal(t, "Mathématiques", rows[1][2])
}

func TestICalExporterRender(t *testing.T) {
	exporter := NewICalExporter()
	exporter.now = func() time.Time { return time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC) }
	start := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)

	out, err := exporter.Render([]Event{{
		UID:      "entry-1",
		Summary:  "Physique",
		Location: "Salle 101",
		Start:    start,
		End:      start.Add(2 * time.Hour),
	}}, "Groupe A")
	require.NoError(t, err)

	body := string(out)
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "BEGIN:VEVENT")
	assert.Contains(t, body, "UID:entry-1")
	assert.Contains(t, body, "SUMMARY:Physique")
	assert.Contains(t, body, "DTSTART:20240902T080000Z")
	assert.Contains(t, body, "DTEND:20240902T100000Z")
}

func TestICalExporterRejectsInvertedEvent(t *testing.T) {
	start := time.Date(2024, 9, 2, 8, 0, 0, 0, time.UTC)
	_, err := NewICalExporter().Render([]Event{{UID: "e", Start: start, End: start}}, "")
	assert.Error(t, err)
}
