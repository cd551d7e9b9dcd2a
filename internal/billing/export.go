package billing

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CSVHeader is the fixed column set of the CSV export.
var CSVHeader = []string{"Datum", "Unterkunft", "Mitarbeiter", "Dauer", "Betrag"}

const (
	placeholder = "-"
	sheetName   = "Billing"
)

var amountPrinter = message.NewPrinter(language.German)

// FormatAmount renders an amount as a German euro value, e.g. "1.234,50 €"
// with a no-break space before the sign. A nil amount renders as "-".
func FormatAmount(amount *float64) string {
	if amount == nil {
		return placeholder
	}
	return amountPrinter.Sprintf("%.2f", *amount) + "\u00a0€"
}

// FormatDuration renders whole minutes as "Hh Mm". A nil duration renders as "-".
func FormatDuration(minutes *int) string {
	if minutes == nil {
		return placeholder
	}
	return fmt.Sprintf("%dh %dm", *minutes/60, *minutes%60)
}

// Record is the CSV projection of a row: date, property, staff names,
// duration label and amount label.
func (r Row) Record() []string {
	staff := strings.Join(r.StaffNames, ", ")
	if staff == "" {
		staff = placeholder
	}
	return []string{
		orPlaceholder(r.Date),
		orPlaceholder(r.Property),
		staff,
		FormatDuration(r.DurationMinutes),
		FormatAmount(r.Amount),
	}
}

// WriteCSV writes the report as semicolon separated values. Every field is
// double-quoted with embedded quotes doubled, and lines are joined by "\n"
// with no trailing newline.
func WriteCSV(w io.Writer, report Report) error {
	lines := make([]string, 0, len(report.Rows)+1)
	lines = append(lines, csvLine(CSVHeader))
	for _, row := range report.Rows {
		lines = append(lines, csvLine(row.Record()))
	}

	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// CSV returns the CSV export as bytes.
func CSV(report Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func csvLine(fields []string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ";")
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// WriteXLSX writes the report as a single-sheet workbook. Amounts and
// minutes are numeric cells; the last row holds the total.
func WriteXLSX(w io.Writer, report Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"Datum", "Unterkunft", "Mitarbeiter", "Minuten", "Betrag"}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	for i, row := range report.Rows {
		values := []interface{}{
			orPlaceholder(row.Date),
			orPlaceholder(row.Property),
			strings.Join(row.StaffNames, ", "),
			nil,
			nil,
		}
		if row.DurationMinutes != nil {
			values[3] = *row.DurationMinutes
		}
		if row.Amount != nil {
			values[4] = *row.Amount
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	totalRow := len(report.Rows) + 2
	totalLabel, _ := excelize.CoordinatesToCellName(4, totalRow)
	totalCell, _ := excelize.CoordinatesToCellName(5, totalRow)
	if err := f.SetCellValue(sheetName, totalLabel, "Summe"); err != nil {
		return fmt.Errorf("failed to write total label: %w", err)
	}
	if err := f.SetCellFloat(sheetName, totalCell, report.Total, -1, 64); err != nil {
		return fmt.Errorf("failed to write total: %w", err)
	}

	lastAmount, _ := excelize.CoordinatesToCellName(5, totalRow)
	if err := f.SetCellStyle(sheetName, "E2", lastAmount, amountStyle); err != nil {
		return fmt.Errorf("failed to style amounts: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
