package services

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"smarttravel/internal/utils"
)

const expenseSheet = "Expenses"

// GenerateXLSX writes the expense statement as a workbook with a summary footer.
func (s ReportService) GenerateXLSX(userID, tripID int64) ([]byte, string, error) {
	data, err := s.load(userID, tripID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEventf(s.RequestID, "reports", "generate_xlsx", "trip_id=%d", tripID)
	return buildExpenseXLSX(data)
}

func buildExpenseXLSX(d tripReportData) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", expenseSheet); err != nil {
		return nil, "", err
	}

	header := []any{"Date", "Category", "Description", "Amount"}
	if err := f.SetSheetRow(expenseSheet, "A1", &header); err != nil {
		return nil, "", err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, "", err
	}
	_ = f.SetCellStyle(expenseSheet, "A1", "D1", bold)
	_ = f.SetColWidth(expenseSheet, "A", "A", 12)
	_ = f.SetColWidth(expenseSheet, "B", "B", 20)
	_ = f.SetColWidth(expenseSheet, "C", "C", 40)
	_ = f.SetColWidth(expenseSheet, "D", "D", 14)

	row := 2
	for _, e := range d.Summary.Expenses {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := []any{dateOnly(e.CreatedAt), e.Category, e.Description, e.Amount}
		if err := f.SetSheetRow(expenseSheet, cell, &values); err != nil {
			return nil, "", err
		}
		row++
	}

	row++
	totals := [][]any{
		{"", "", "Budget", d.Summary.TripBudget},
		{"", "", "Spent", d.Summary.TotalSpent},
		{"", "", "Remaining", d.Summary.RemainingBudget},
	}
	for _, values := range totals {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(expenseSheet, cell, &values); err != nil {
			return nil, "", err
		}
		label, _ := excelize.CoordinatesToCellName(3, row)
		_ = f.SetCellStyle(expenseSheet, label, label, bold)
		row++
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), reportFilename(d.Trip, "xlsx"), nil
}
