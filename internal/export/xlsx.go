package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the marksheet.
const SheetName = "Students"

// WriteXLSX writes the marksheet as a workbook with a single sheet. Marks, totals
// and percentages are numeric cells; missing marks are written as "-".
func WriteXLSX(w io.Writer, m *Marksheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, 0, len(m.Subjects)+4)
	for _, h := range m.Header() {
		header = append(header, h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for i, s := range m.Students {
		row := make([]any, 0, len(header))
		row = append(row, s.RollNo, s.Name)
		for _, subj := range m.Subjects {
			if v, ok := s.Marks[subj]; ok {
				row = append(row, v)
			} else {
				row = append(row, MissingMark)
			}
		}
		row = append(row, s.Total, s.Percentage)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	last, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", last, 14); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 28); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}
