package core

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category
	Amount   Money
	Percent  decimal.Decimal // share of total expenses, 2 decimals
}

// Margin is profit as a percentage of total income. Valid is false when
// there is no income to divide by.
type Margin struct {
	Percent decimal.Decimal
	Valid   bool
}

// Summary is the derived view of a ledger. It is recomputed from the record
// set on every request and never stored.
type Summary struct {
	TotalExpenses Money
	TotalIncome   Money
	Profit        Money
	Margin        Margin
	ByCategory    []CategoryAmount
	ExpenseCount  int
}

// Summarize derives totals, profit, margin and the per-category breakdown.
// ByCategory is ordered by amount descending, ties by category name.
func Summarize(expenses []Expense, income Income) Summary {
	s := Summary{
		TotalIncome:  income.Total(),
		ExpenseCount: len(expenses),
	}

	byCat := map[Category]int64{}
	for _, e := range expenses {
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
		byCat[e.Category] += e.Amount.Cents
	}
	s.Profit = s.TotalIncome.Sub(s.TotalExpenses)
	s.Margin = marginOf(s.Profit, s.TotalIncome)

	s.ByCategory = make([]CategoryAmount, 0, len(byCat))
	for c, cents := range byCat {
		amt := Money{Cents: cents}
		s.ByCategory = append(s.ByCategory, CategoryAmount{
			Category: c,
			Amount:   amt,
			Percent:  percentOf(amt, s.TotalExpenses),
		})
	}
	slices.SortFunc(s.ByCategory, func(a, b CategoryAmount) int {
		if a.Amount.Cents != b.Amount.Cents {
			if a.Amount.Cents > b.Amount.Cents {
				return -1
			}
			return 1
		}
		return strings.Compare(string(a.Category), string(b.Category))
	})
	return s
}

// PercentageOfTotal returns the category's share of total expenses, or zero
// when the category is absent or there are no expenses.
func (s Summary) PercentageOfTotal(c Category) decimal.Decimal {
	for _, ca := range s.ByCategory {
		if ca.Category == c {
			return ca.Percent
		}
	}
	return decimal.Zero
}

func marginOf(profit, income Money) Margin {
	if income.Cents <= 0 {
		return Margin{}
	}
	return Margin{Percent: percentOf(profit, income), Valid: true}
}

// percentOf returns part/whole*100 rounded to two decimals, zero when whole is zero.
func percentOf(part, whole Money) decimal.Decimal {
	if whole.Cents == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(part.Cents).Mul(hundred).DivRound(decimal.NewFromInt(whole.Cents), 2)
}
