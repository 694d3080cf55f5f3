package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// XLSXExporter renders datasets into a single-sheet Excel workbook.
type XLSXExporter struct{}

// NewXLSXExporter constructs an Excel exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

// ContentType reports the MIME type of rendered output.
func (e *XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Render writes headers in bold on the first row followed by one row per record.
func (e *XLSXExporter) Render(data Dataset, sheet string) ([]byte, error) {
	if err := data.validate("xlsx"); err != nil {
		return nil, err
	}
	if sheet == "" {
		sheet = defaultSheet
	}
	if len([]rune(sheet)) > 31 {
		sheet = string([]rune(sheet)[:31])
	}

	f := excelize.NewFile()
	defer f.Close()

	if sheet != defaultSheet {
		idx, err := f.NewSheet(sheet)
		if err != nil {
			return nil, fmt.Errorf("create sheet: %w", err)
		}
		f.SetActiveSheet(idx)
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}

	header := make([]interface{}, len(data.Headers))
	for i, h := range data.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write xlsx headers: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(data.Headers), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, bold); err != nil {
		return nil, fmt.Errorf("style xlsx headers: %w", err)
	}

	for i, row := range data.Rows {
		record := data.Record(row)
		values := make([]interface{}, len(record))
		for j, v := range record {
			values[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write xlsx row: %w", err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(data.Headers))
	_ = f.SetColWidth(sheet, "A", lastCol, 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
