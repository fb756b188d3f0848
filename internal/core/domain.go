package core

import (
	"strings"
	"time"
)

const (
	Seeds       Category = "seeds"
	Fertilizers Category = "fertilizers"
	Pesticides  Category = "pesticides"
	Labor       Category = "labor"
	Equipment   Category = "equipment"
	Irrigation  Category = "irrigation"
	Transport   Category = "transport"
	LandRent    Category = "landRent"
	Other       Category = "other"
)

const (
	maxItemLen        = 200
	maxDescriptionLen = 1000
)

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          string
		OwnerID     string
		FarmID      string // optional
		Category    Category
		Item        string
		Amount      Money
		Date        Date
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// NewExpense carries the caller supplied fields of an expense. Amount is a
	// pointer so that a missing amount can be told apart from zero.
	NewExpense struct {
		Category    Category
		Item        string
		Amount      *Money
		Date        Date
		Description string
		FarmID      string
	}

	// ExpensePatch lists the fields an update replaces. Nil means "keep".
	ExpensePatch struct {
		Category    *Category
		Item        *string
		Amount      *Money
		Date        *Date
		Description *string
		FarmID      *string
	}

	Income struct {
		OwnerID     string
		CropSales   Money
		OtherIncome Money
		UpdatedAt   time.Time
	}

	User struct {
		ID           string
		Name         string
		Email        string
		Phone        string
		Location     string
		PasswordHash string
		CreatedAt    time.Time
	}

	// ProfilePatch lists the profile fields an update replaces.
	ProfilePatch struct {
		Name     *string
		Email    *string
		Phone    *string
		Location *string
	}
)

var categoryLabels = map[Category]string{
	Seeds:       "Seeds",
	Fertilizers: "Fertilizers",
	Pesticides:  "Pesticides",
	Labor:       "Labor",
	Equipment:   "Equipment",
	Irrigation:  "Irrigation",
	Transport:   "Transport",
	LandRent:    "Land Rent",
	Other:       "Other",
}

// Categories returns the fixed category set in display order.
func Categories() []Category {
	return []Category{Seeds, Fertilizers, Pesticides, Labor, Equipment, Irrigation, Transport, LandRent, Other}
}

// Label returns the display label, or the raw value for unknown categories.
func (c Category) Label() string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts a calendar date (2006-01-02) or a full RFC3339 timestamp,
// keeping only the calendar part.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return NewDate(t.Year(), int(t.Month()), t.Day()), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Add returns m+o.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}

// Sub returns m-o.
func (m Money) Sub(o Money) Money {
	return Money{Cents: m.Cents - o.Cents}
}

func (e Expense) Validate() error {
	var missing []string
	if strings.TrimSpace(string(e.Category)) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(e.Item) == "" {
		missing = append(missing, "item")
	}
	if e.Date.IsZero() {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return NewValidationError("Category, item, amount, and date are required", missing...)
	}
	if err := e.Amount.Validate(); err != nil {
		return NewValidationError("Amount must not be negative", "amount")
	}
	if len(e.Item) > maxItemLen {
		return NewValidationError("Item too long (max 200 characters)", "item")
	}
	if len(e.Description) > maxDescriptionLen {
		return NewValidationError("Description too long (max 1000 characters)", "description")
	}
	return nil
}

// Validate checks the required fields before an expense is built from n.
func (n NewExpense) Validate() error {
	var missing []string
	if strings.TrimSpace(string(n.Category)) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(n.Item) == "" {
		missing = append(missing, "item")
	}
	if n.Amount == nil {
		missing = append(missing, "amount")
	}
	if n.Date.IsZero() {
		missing = append(missing, "date")
	}
	if len(missing) > 0 {
		return NewValidationError("Category, item, amount, and date are required", missing...)
	}
	return nil
}

// Apply overwrites the fields of e that p supplies.
func (p ExpensePatch) Apply(e Expense) Expense {
	if p.Category != nil {
		e.Category = Category(strings.TrimSpace(string(*p.Category)))
	}
	if p.Item != nil {
		e.Item = strings.TrimSpace(*p.Item)
	}
	if p.Amount != nil {
		e.Amount = *p.Amount
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.Description != nil {
		e.Description = strings.TrimSpace(*p.Description)
	}
	if p.FarmID != nil {
		e.FarmID = strings.TrimSpace(*p.FarmID)
	}
	return e
}

// Empty reports whether the patch changes nothing.
func (p ExpensePatch) Empty() bool {
	return p.Category == nil && p.Item == nil && p.Amount == nil &&
		p.Date == nil && p.Description == nil && p.FarmID == nil
}

func (i Income) Validate() error {
	var bad []string
	if i.CropSales.Validate() != nil {
		bad = append(bad, "cropSales")
	}
	if i.OtherIncome.Validate() != nil {
		bad = append(bad, "otherIncome")
	}
	if len(bad) > 0 {
		return NewValidationError("Income values must not be negative", bad...)
	}
	return nil
}

// Total returns cropSales + otherIncome.
func (i Income) Total() Money {
	return i.CropSales.Add(i.OtherIncome)
}
