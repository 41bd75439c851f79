package attendance

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/attendo/core"
)

var (
	exportHeader = []string{"Date", "Session", "Register No", "Name", "Section", "Status"}
	exportSheet  = "Attendance"

	ErrRosterHeader = errors.New("roster must have a header row with register_number, full_name and section columns")
)

func exportRow(rec RecordView) []string {
	return []string{rec.Date, string(rec.Session), rec.RegisterNumber, rec.FullName, rec.Section, string(rec.Status)}
}

// WriteCSV writes records as CSV, with a header row.
func WriteCSV(w io.Writer, records []RecordView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return errors.Wrap(err, "writing header")
	}
	for _, rec := range records {
		if err := cw.Write(exportRow(rec)); err != nil {
			return errors.Wrap(err, "writing record")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// WriteXLSX writes records as an Excel workbook with a single "Attendance" sheet.
func WriteXLSX(w io.Writer, records []RecordView) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return errors.Wrap(err, "naming sheet")
	}

	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, exportHeader)
	for _, rec := range records {
		rows = append(rows, exportRow(rec))
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return errors.Wrap(err, "locating cell")
		}
		values := make([]interface{}, 0, len(row))
		for _, v := range row {
			values = append(values, v)
		}
		if err = f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return errors.Wrap(err, "writing row")
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}
	return nil
}

// ParseStudentsCSV reads a roster CSV. The header row names the columns
// (register_number, full_name, section; "Register No" and "Name" are accepted too).
// Malformed CSV is reported as a *core.ValidationError.
func ParseStudentsCSV(r io.Reader) ([]NewStudent, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrRosterHeader
		}
		return nil, core.NewValidationError(errors.Wrap(err, "reading header"))
	}
	cols := map[string]int{}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "register_number", "register no", "register number", "reg no":
			cols["register_number"] = i
		case "full_name", "name", "full name":
			cols["full_name"] = i
		case "section":
			cols["section"] = i
		}
	}
	if len(cols) != 3 {
		return nil, ErrRosterHeader
	}

	var students []NewStudent
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.NewValidationError(errors.Wrap(err, "reading row"))
		}
		ns := NewStudent{
			RegisterNumber: row[cols["register_number"]],
			FullName:       row[cols["full_name"]],
			Section:        row[cols["section"]],
		}
		ns.Clean()
		students = append(students, ns)
	}
	return students, nil
}
