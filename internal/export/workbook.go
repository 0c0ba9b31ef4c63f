// Package export builds the downloadable performance report.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"rumba/internal/core"
)

// Sheet names of the report workbook.
const (
	SheetSummary  = "Summary"
	SheetMonthly  = "Monthly"
	SheetExpenses = "Expenses"
)

// Filename is suggested to the browser on download.
const Filename = "rumba-report.xlsx"

// ContentType of the xlsx format.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Report is what the workbook is built from.
type Report struct {
	Year     int
	Snapshot core.DashboardSnapshot
	Monthly  []core.MonthlyPerformance
}

// Workbook renders r into a new workbook. The caller closes it.
func Workbook(r Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename summary sheet: %w", err)
	}
	for _, name := range []string{SheetMonthly, SheetExpenses} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	steps := []func(*excelize.File, int, Report) error{writeSummary, writeMonthly, writeExpenses}
	for _, step := range steps {
		if err := step(f, header, r); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Write renders r straight to w.
func Write(w io.Writer, r Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, header int, r Report) error {
	rows := [][]any{{"Metric", "Value", "Trend (%)"}}
	for _, c := range r.Snapshot.Totals.Cards() {
		trend := any(c.Trend)
		if c.Trendless {
			trend = ""
		}
		rows = append(rows, []any{c.Title, c.Value, trend})
	}
	g := r.Snapshot.Goal
	rows = append(rows,
		[]any{},
		[]any{g.Title, core.FormatAED(g.Achieved), fmt.Sprintf("%d%% of %s", g.Percent(), core.FormatAED(g.Target))},
	)
	return writeTable(f, SheetSummary, header, rows, 3)
}

func writeMonthly(f *excelize.File, header int, r Report) error {
	rows := [][]any{{"Month", "Events", "Revenue (AED)", "Expenses (AED)", "Profit (AED)", "ROI (%)"}}
	for _, m := range r.Monthly {
		rows = append(rows, []any{
			m.Month,
			m.Events,
			m.Revenue.InexactFloat64(),
			m.Expenses.InexactFloat64(),
			m.Profit().InexactFloat64(),
			m.ROI(),
		})
	}
	return writeTable(f, SheetMonthly, header, rows, 6)
}

func writeExpenses(f *excelize.File, header int, r Report) error {
	rows := [][]any{{"Category", "Amount (AED)"}}
	for _, c := range r.Snapshot.Categories {
		rows = append(rows, []any{c.Name, c.Amount.InexactFloat64()})
	}
	return writeTable(f, SheetExpenses, header, rows, 2)
}

func writeTable(f *excelize.File, sheet string, header int, rows [][]any, cols int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	last, err := excelize.ColumnNumberToName(cols)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", header); err != nil {
		return fmt.Errorf("style %s header: %w", sheet, err)
	}
	if err := f.SetColWidth(sheet, "A", last, 22); err != nil {
		return fmt.Errorf("size %s columns: %w", sheet, err)
	}
	return nil
}
