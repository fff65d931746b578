// Package export renders a forecast as a downloadable CSV or PDF
// report. Both formats carry the same two tables: the user's expenses
// and their goals with affordability status.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"finplan/internal/services"
)

const dateLayout = "02-01-2006"

var (
	expenseHeader = []string{"Title", "Amount", "Frequency", "Description", "Date"}
	goalHeader    = []string{"Title", "Target Amount", "Date Created", "Status"}
)

// WriteCSV writes the forecast report to w.
func WriteCSV(w io.Writer, fc services.Forecast) error {
	cw := csv.NewWriter(w)

	cw.Write([]string{"Expenses"})
	cw.Write(expenseHeader)
	for _, e := range fc.Expenses {
		cw.Write([]string{
			e.Title,
			formatAmount(e.Amount.Amount()),
			string(e.Frequency),
			e.Description,
			e.RecordedAt.Format(dateLayout),
		})
	}

	cw.Write(nil)
	cw.Write([]string{"Goals"})
	cw.Write(goalHeader)
	for _, row := range goalRows(fc) {
		cw.Write(row)
	}

	cw.Write(nil)
	cw.Write([]string{"Summary"})
	cw.Write([]string{"Monthly Income", formatAmount(fc.MonthlyIncome)})
	cw.Write([]string{"Monthly Expenses", formatAmount(fc.MonthlyExpenses)})
	cw.Write([]string{"Monthly Savings", formatAmount(fc.MonthlySavingRate)})
	cw.Write([]string{"Current Savings", formatAmount(fc.CurrentSavings)})

	cw.Flush()
	return cw.Error()
}

// goalRows pairs each prediction with its goal metadata. Predictions
// come back in priority order, so the goals are matched by ID.
func goalRows(fc services.Forecast) [][]string {
	rows := make([][]string, 0, len(fc.Predictions))
	for _, p := range fc.Predictions {
		rows = append(rows, []string{
			p.Title,
			formatAmount(p.Target),
			p.CreatedAt.Format(dateLayout),
			p.Message(),
		})
	}
	return rows
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
