package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"finplan/internal/services"
)

// Column widths in mm, tuned for an A4 page with default margins.
var (
	expenseWidths = [5]float64{45, 25, 25, 50, 25}
	goalWidths    = [4]float64{40, 30, 30, 90}
)

// WritePDF renders the forecast report as a PDF document to w.
func WritePDF(w io.Writer, fc services.Forecast) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s's Dashboard", fc.User.Name), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, fmt.Sprintf("%s's Dashboard", fc.User.Name), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Expenses", "", 1, "L", false, 0, "")
	writeExpenseTable(pdf, fc)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Goals", "", 1, "L", false, 0, "")
	writeGoalTable(pdf, fc)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "Summary", "", 1, "L", false, 0, "")
	writeSummary(pdf, fc)

	return pdf.Output(w)
}

func writeExpenseTable(pdf *fpdf.Fpdf, fc services.Forecast) {
	// Header row, white on blue.
	pdf.SetFillColor(13, 110, 253)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range expenseHeader {
		pdf.CellFormat(expenseWidths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	for i, e := range fc.Expenses {
		setRowFill(pdf, i)
		cells := [5]string{
			e.Title,
			formatAmount(e.Amount.Amount()),
			string(e.Frequency),
			e.Description,
			e.RecordedAt.Format(dateLayout),
		}
		for j, c := range cells {
			pdf.CellFormat(expenseWidths[j], 7, c, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeGoalTable(pdf *fpdf.Fpdf, fc services.Forecast) {
	// Header row, white on green.
	pdf.SetFillColor(25, 135, 84)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 10)
	for i, h := range goalHeader {
		pdf.CellFormat(goalWidths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	for i, row := range goalRows(fc) {
		setRowFill(pdf, i)
		for j, c := range row {
			pdf.CellFormat(goalWidths[j], 7, c, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func writeSummary(pdf *fpdf.Fpdf, fc services.Forecast) {
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "", 10)
	rows := [][2]string{
		{"Monthly Income", formatAmount(fc.MonthlyIncome)},
		{"Monthly Expenses", formatAmount(fc.MonthlyExpenses)},
		{"Monthly Savings", formatAmount(fc.MonthlySavingRate)},
		{"Current Savings", formatAmount(fc.CurrentSavings)},
	}
	for i, r := range rows {
		setRowFill(pdf, i)
		pdf.CellFormat(60, 7, r[0], "1", 0, "L", true, 0, "")
		pdf.CellFormat(40, 7, r[1], "1", 0, "R", true, 0, "")
		pdf.Ln(-1)
	}
}

func setRowFill(pdf *fpdf.Fpdf, row int) {
	if row%2 == 0 {
		pdf.SetFillColor(245, 245, 245)
	} else {
		pdf.SetFillColor(211, 211, 211)
	}
}
