package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"farmledger/internal/core"
)

// Filename returns the export file name for the given day.
func Filename(day time.Time) string {
	return fmt.Sprintf("farm-expenses-%s.csv", day.Format("2006-01-02"))
}

// ExportCSV writes the expense report: a title row, a blank row, a header,
// one row per expense in the given order, then the totals.
func ExportCSV(w io.Writer, expenses []core.Expense, s core.Summary) error {
	cw := csv.NewWriter(w)

	rows := [][]string{
		{"Expense Report", "", "", ""},
		{"", "", "", ""},
		{"Date", "Category", "Item", "Amount (₹)"},
	}
	for _, e := range expenses {
		rows = append(rows, []string{
			e.Date.String(),
			CategoryLabel(e.Category),
			e.Item,
			plainAmount(e.Amount),
		})
	}
	rows = append(rows,
		[]string{"", "", "Total Expenses", plainAmount(s.TotalExpenses)},
		[]string{"", "", "Total Income", plainAmount(s.TotalIncome)},
		[]string{"", "", "Profit", plainAmount(s.Profit)},
	)

	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
