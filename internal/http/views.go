package http

import (
	"encoding/json"
	"time"

	"farmledger/internal/auth"
	"farmledger/internal/core"
	"farmledger/internal/report"
)

// Amounts are emitted as JSON numbers with two decimals, rendered from the
// integer cents so no float rounding is involved.

type expenseView struct {
	ID              string      `json:"id"`
	FarmID          string      `json:"farmId,omitempty"`
	Category        string      `json:"category"`
	CategoryLabel   string      `json:"categoryLabel"`
	Item            string      `json:"item"`
	Amount          json.Number `json:"amount"`
	AmountFormatted string      `json:"amountFormatted"`
	Date            string      `json:"date"`
	DateFormatted   string      `json:"dateFormatted"`
	Description     string      `json:"description,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:              e.ID,
		FarmID:          e.FarmID,
		Category:        string(e.Category),
		CategoryLabel:   report.CategoryLabel(e.Category),
		Item:            e.Item,
		Amount:          number(e.Amount),
		AmountFormatted: report.FormatMoney(e.Amount),
		Date:            e.Date.String(),
		DateFormatted:   report.FormatDate(e.Date.String()),
		Description:     e.Description,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func newExpenseViews(list []core.Expense) []expenseView {
	out := make([]expenseView, 0, len(list))
	for _, e := range list {
		out = append(out, newExpenseView(e))
	}
	return out
}

type incomeView struct {
	CropSales   json.Number `json:"cropSales"`
	OtherIncome json.Number `json:"otherIncome"`
}

func newIncomeView(inc core.Income) incomeView {
	return incomeView{CropSales: number(inc.CropSales), OtherIncome: number(inc.OtherIncome)}
}

type categoryAmountView struct {
	Category        string      `json:"category"`
	Label           string      `json:"label"`
	Amount          json.Number `json:"amount"`
	AmountFormatted string      `json:"amountFormatted"`
	Percent         json.Number `json:"percent"`
	PercentLabel    string      `json:"percentLabel"`
}

type summaryFormatted struct {
	TotalExpenses string `json:"totalExpenses"`
	TotalIncome   string `json:"totalIncome"`
	Profit        string `json:"profit"`
	Margin        string `json:"margin"`
}

type summaryView struct {
	TotalExpenses json.Number          `json:"totalExpenses"`
	TotalIncome   json.Number          `json:"totalIncome"`
	Profit        json.Number          `json:"profit"`
	Margin        *json.Number         `json:"margin"`
	ExpenseCount  int                  `json:"expenseCount"`
	ByCategory    []categoryAmountView `json:"byCategory"`
	Formatted     summaryFormatted     `json:"formatted"`
}

func newSummaryView(s core.Summary) summaryView {
	v := summaryView{
		TotalExpenses: number(s.TotalExpenses),
		TotalIncome:   number(s.TotalIncome),
		Profit:        number(s.Profit),
		ExpenseCount:  s.ExpenseCount,
		ByCategory:    make([]categoryAmountView, 0, len(s.ByCategory)),
		Formatted: summaryFormatted{
			TotalExpenses: report.FormatMoney(s.TotalExpenses),
			TotalIncome:   report.FormatMoney(s.TotalIncome),
			Profit:        report.FormatMoney(s.Profit),
			Margin:        "N/A",
		},
	}
	if s.Margin.Valid {
		m := json.Number(s.Margin.Percent.StringFixed(2))
		v.Margin = &m
		v.Formatted.Margin = s.Margin.Percent.StringFixed(2) + "%"
	}
	for _, c := range s.ByCategory {
		v.ByCategory = append(v.ByCategory, categoryAmountView{
			Category:        string(c.Category),
			Label:           report.CategoryLabel(c.Category),
			Amount:          number(c.Amount),
			AmountFormatted: report.FormatMoney(c.Amount),
			Percent:         json.Number(c.Percent.StringFixed(2)),
			PercentLabel:    c.Percent.StringFixed(1) + "%",
		})
	}
	return v
}

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"createdAt"`
}

// newUserView never carries the password hash.
func newUserView(u core.User) userView {
	return userView{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Location:  u.Location,
		CreatedAt: u.CreatedAt,
	}
}

func newSessionBody(b *JSONResponseBuilder, s auth.Session) *JSONResponseBuilder {
	return b.Field("token", s.Token).Field("user", newUserView(s.User))
}

type farmView struct {
	ID        string       `json:"id"`
	FarmName  string       `json:"farmName"`
	Location  string       `json:"location"`
	CropType  string       `json:"cropType"`
	Size      *json.Number `json:"size"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

func newFarmView(f core.Farm) farmView {
	v := farmView{
		ID:        f.ID,
		FarmName:  f.Name,
		Location:  f.Location,
		CropType:  f.CropType,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
	if f.Size.Valid {
		n := json.Number(f.Size.Decimal.String())
		v.Size = &n
	}
	return v
}

func newFarmViews(list []core.Farm) []farmView {
	out := make([]farmView, 0, len(list))
	for _, f := range list {
		out = append(out, newFarmView(f))
	}
	return out
}

type categoryView struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func number(m core.Money) json.Number {
	return json.Number(m.String())
}
