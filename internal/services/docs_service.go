package services

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"

	"smarttravel/internal/domain/models"
	"smarttravel/internal/utils"
)

// ReportService renders a trip's expense statement as PDF or XLSX.
type ReportService struct {
	Expenses  ExpenseService
	RequestID string
	Now       func() time.Time
	Loader    func(userID, tripID int64) (tripReportData, error)
}

type tripReportData struct {
	Trip    models.Trip
	Summary models.ExpenseSummary
	At      time.Time
}

func (s ReportService) GeneratePDF(userID, tripID int64) ([]byte, string, error) {
	data, err := s.load(userID, tripID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEventf(s.RequestID, "reports", "generate_pdf", "trip_id=%d", tripID)
	return buildExpensePDF(data)
}

func (s ReportService) load(userID, tripID int64) (tripReportData, error) {
	if s.Loader != nil {
		return s.Loader(userID, tripID)
	}
	trip, summary, err := s.Expenses.Summary(userID, tripID)
	if err != nil {
		return tripReportData{}, err
	}
	at := time.Now()
	if s.Now != nil {
		at = s.Now()
	}
	return tripReportData{Trip: trip, Summary: summary, At: at}, nil
}

func buildExpensePDF(d tripReportData) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Trip Expenses", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "TRIP EXPENSES")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Trip        : %s", safe(d.Trip.TripName, "-")),
		fmt.Sprintf("Destination : %s", safe(d.Trip.Destination, "-")),
		fmt.Sprintf("Dates       : %s to %s", safe(d.Trip.StartDate, "-"), safe(d.Trip.EndDate, "-")),
		fmt.Sprintf("Generated   : %s", utils.FormatDateTime(d.At)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(35, 8, "Date", "1", 0, "", false, 0, "")
	pdf.CellFormat(45, 8, "Category", "1", 0, "", false, 0, "")
	pdf.CellFormat(70, 8, "Description", "1", 0, "", false, 0, "")
	pdf.CellFormat(35, 8, "Amount", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, e := range d.Summary.Expenses {
		pdf.CellFormat(35, 7, dateOnly(e.CreatedAt), "1", 0, "", false, 0, "")
		pdf.CellFormat(45, 7, clip(e.Category, 24), "1", 0, "", false, 0, "")
		pdf.CellFormat(70, 7, clip(safe(e.Description, "-"), 40), "1", 0, "", false, 0, "")
		pdf.CellFormat(35, 7, pdfAmount(e.Amount), "1", 1, "R", false, 0, "")
	}
	if len(d.Summary.Expenses) == 0 {
		pdf.CellFormat(185, 7, "No expenses recorded.", "1", 1, "C", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Budget    : "+pdfAmount(d.Summary.TripBudget))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Spent     : "+pdfAmount(d.Summary.TotalSpent))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Remaining : "+pdfAmount(d.Summary.RemainingBudget))
	pdf.Ln(7)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), reportFilename(d.Trip, "pdf"), nil
}

func reportFilename(t models.Trip, ext string) string {
	return fmt.Sprintf("EXPENSES_%d_%s.%s", t.ID, utils.SafeFilenamePart(t.TripName), ext)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func dateOnly(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return utils.FormatDate(t)
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}

// pdfAmount writes rupees as "Rs." since the core PDF fonts have no rupee glyph.
func pdfAmount(v float64) string {
	return strings.Replace(utils.FormatRupee(v), "₹", "Rs. ", 1)
}
