// Package report turns ledger data into display strings and CSV exports.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"farmledger/internal/core"
)

const (
	currencySymbol = "₹"
	displayDate    = "02 Jan 2006"
)

// FormatMoney renders m with the rupee symbol, thousands separators and two
// decimals, e.g. "₹1,234.56" or "-₹1,200.00".
func FormatMoney(m core.Money) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%s.%02d", sign, currencySymbol, humanize.Comma(cents/100), cents%100)
}

// FormatDate renders an RFC3339 or YYYY-MM-DD value as "02 Jan 2006".
// Input that does not parse is returned as given.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.Format(displayDate)
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.Format(displayDate)
	}
	return raw
}

// CategoryLabel returns the display label of c, or c itself when unknown.
func CategoryLabel(c core.Category) string {
	return c.Label()
}

// plainAmount renders m without symbol or separators, e.g. "1234.56".
func plainAmount(m core.Money) string {
	return m.String()
}
