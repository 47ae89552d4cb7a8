// Package reports renders sales data into downloadable workbooks.
package reports

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"restaurant-api/models"

	"github.com/xuri/excelize/v2"
)

const (
	SalesSheet   = "Sales"
	SummarySheet = "Summary"
)

var salesHeader = []any{"Completed At", "Order", "Items", "Operator", "Total"}

// SalesRow is one completed order as it appears in the export.
type SalesRow struct {
	CompletedAt time.Time
	OrderID     uint
	Items       string
	Operator    string
	Total       float64
}

// Rows flattens orders for export. operator names who placed each order.
func Rows(orders []models.Order, operator func(models.Order) string) []SalesRow {
	rows := make([]SalesRow, 0, len(orders))
	for _, o := range orders {
		parts := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			name := it.Name
			if name == "" && it.MenuItem != nil {
				name = it.MenuItem.Name
			}
			parts = append(parts, fmt.Sprintf("%dx %s", it.Quantity, name))
		}
		rows = append(rows, SalesRow{
			CompletedAt: o.UpdatedAt,
			OrderID:     o.ID,
			Items:       strings.Join(parts, " | "),
			Operator:    operator(o),
			Total:       o.TotalAmount,
		})
	}
	return rows
}

// SalesWorkbook writes rows to a Sales sheet with a totals line and a small
// Summary sheet for the period.
func SalesWorkbook(rows []SalesRow, from, to time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SalesSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(SalesSheet, "A1", &salesHeader); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SalesSheet, "A1", "E1", bold); err != nil {
		return nil, err
	}

	var total float64
	for i, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			r.CompletedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("#%06d", r.OrderID),
			r.Items,
			r.Operator,
			r.Total,
		}
		if err := f.SetSheetRow(SalesSheet, cell, &row); err != nil {
			return nil, err
		}
		total += r.Total
	}

	last := len(rows) + 1
	totalRow := last + 1
	if err := f.SetCellValue(SalesSheet, fmt.Sprintf("D%d", totalRow), "Total"); err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		err = f.SetCellFormula(SalesSheet, fmt.Sprintf("E%d", totalRow), fmt.Sprintf("SUM(E2:E%d)", last))
	} else {
		err = f.SetCellValue(SalesSheet, fmt.Sprintf("E%d", totalRow), 0)
	}
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SalesSheet, "E2", fmt.Sprintf("E%d", totalRow), money); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(SalesSheet, fmt.Sprintf("D%d", totalRow), fmt.Sprintf("E%d", totalRow), bold); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(SalesSheet, "A", "B", 18)
	_ = f.SetColWidth(SalesSheet, "C", "C", 48)
	_ = f.SetColWidth(SalesSheet, "D", "E", 16)

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, err
	}
	summary := [][]any{
		{"From", from.Format(time.RFC3339)},
		{"To", to.Format(time.RFC3339)},
		{"Orders", len(rows)},
		{"Revenue", math.Round(total*100) / 100},
	}
	for i, line := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &line); err != nil {
			return nil, err
		}
	}
	_ = f.SetColWidth(SummarySheet, "A", "B", 28)
	return f, nil
}

// Bytes renders the workbook as .xlsx content and closes it.
func Bytes(f *excelize.File) ([]byte, error) {
	defer f.Close()
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
