package reports

import (
	"bytes"
	"testing"
	"time"

	"restaurant-api/models"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRowsFlattensOrders(t *testing.T) {
	done := time.Date(2026, 5, 1, 13, 30, 0, 0, time.UTC)
	orders := []models.Order{{
		ID:          42,
		TotalAmount: 28.97,
		UpdatedAt:   done,
		Items: []models.OrderItem{
			{Quantity: 2, Name: "Burger"},
			{Quantity: 1, MenuItem: &models.MenuItem{Name: "Cola"}},
		},
	}}
	rows := Rows(orders, func(models.Order) string { return "Counter" })
	require.Equal(t, []SalesRow{{
		CompletedAt: done,
		OrderID:     42,
		Items:       "2x Burger | 1x Cola",
		Operator:    "Counter",
		Total:       28.97,
	}}, rows)
}

func TestSalesWorkbook(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Second)
	rows := []SalesRow{
		{CompletedAt: from.Add(12 * time.Hour), OrderID: 7, Items: "1x Soup", Operator: "Cal", Total: 6.5},
		{CompletedAt: from.Add(13 * time.Hour), OrderID: 8, Items: "2x Tea", Operator: "Counter", Total: 4},
	}

	f, err := SalesWorkbook(rows, from, to)
	require.NoError(t, err)
	data, err := Bytes(f)
	require.NoError(t, err)

	back, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer back.Close()

	require.Equal(t, []string{SalesSheet, SummarySheet}, back.GetSheetList())

	header, err := back.GetCellValue(SalesSheet, "C1")
	require.NoError(t, err)
	require.Equal(t, "Items", header)

	id, err := back.GetCellValue(SalesSheet, "B3")
	require.NoError(t, err)
	require.Equal(t, "#000008", id)

	formula, err := back.GetCellFormula(SalesSheet, "E4")
	require.NoError(t, err)
	require.Equal(t, "SUM(E2:E3)", formula)

	count, err := back.GetCellValue(SummarySheet, "B3")
	require.NoError(t, err)
	require.Equal(t, "2", count)

	revenue, err := back.GetCellValue(SummarySheet, "B4")
	require.NoError(t, err)
	require.Equal(t, "10.5", revenue)
}

func TestEmptySalesWorkbook(t *testing.T) {
	f, err := SalesWorkbook(nil, time.Now(), time.Now())
	require.NoError(t, err)
	data, err := Bytes(f)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}
