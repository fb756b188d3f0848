// This file turns JSON request bodies into ledger inputs. Amounts may be
// sent as JSON numbers or strings; both go through core.ParseMoney so the
// value never passes through a float.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"farmledger/internal/core"
	"farmledger/internal/notify"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = core.NewValidationError("Invalid request body")

// decodeJSON reads a single JSON object from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return core.NewValidationError("Request body too large")
		}
		return errInvalidBody
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return errInvalidBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errInvalidBody
	}
	return nil
}

// amountField is a money value that remembers whether it was sent and
// whether it parsed.
type amountField struct {
	set   bool
	null  bool
	value core.Money
	err   error
}

func (a *amountField) UnmarshalJSON(data []byte) error {
	a.set = true
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		a.null = true
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			a.err = core.ErrInvalidAmount
			return nil
		}
		raw = s
	}
	a.value, a.err = core.ParseMoney(raw)
	return nil
}

// money returns the parsed value, nil when absent or null.
func (a amountField) money(field string) (*core.Money, error) {
	if !a.set || a.null {
		return nil, nil
	}
	if a.err != nil {
		if errors.Is(a.err, core.ErrNegativeAmount) {
			return nil, core.NewValidationError("Amount must not be negative", field)
		}
		return nil, core.NewValidationError("Amount must be a valid number", field)
	}
	m := a.value
	return &m, nil
}

type expenseRequest struct {
	Category    *string     `json:"category"`
	Item        *string     `json:"item"`
	Amount      amountField `json:"amount"`
	Date        *string     `json:"date"`
	Description *string     `json:"description"`
	FarmID      *string     `json:"farmId"`
}

func (req expenseRequest) toNewExpense() (core.NewExpense, error) {
	amount, err := req.Amount.money("amount")
	if err != nil {
		return core.NewExpense{}, err
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		return core.NewExpense{}, err
	}
	in := core.NewExpense{
		Category:    core.Category(text(req.Category)),
		Item:        text(req.Item),
		Amount:      amount,
		Description: text(req.Description),
		FarmID:      text(req.FarmID),
	}
	if date != nil {
		in.Date = *date
	}
	return in, nil
}

// toPatch keeps only the supplied fields. A null amount cannot be applied
// and is rejected; blank text is passed through for the ledger to reject.
func (req expenseRequest) toPatch() (core.ExpensePatch, error) {
	var p core.ExpensePatch
	if req.Amount.set {
		if req.Amount.null {
			return p, core.NewValidationError("Amount must be a valid number", "amount")
		}
		amount, err := req.Amount.money("amount")
		if err != nil {
			return p, err
		}
		p.Amount = amount
	}
	if req.Date != nil {
		date, err := optionalDate(req.Date)
		if err != nil {
			return p, err
		}
		if date == nil {
			date = &core.Date{}
		}
		p.Date = date
	}
	if req.Category != nil {
		c := core.Category(text(req.Category))
		p.Category = &c
	}
	p.Item = textPtr(req.Item)
	p.Description = textPtr(req.Description)
	p.FarmID = textPtr(req.FarmID)
	return p, nil
}

type incomeRequest struct {
	CropSales   amountField `json:"cropSales"`
	OtherIncome amountField `json:"otherIncome"`
}

func (req incomeRequest) amounts() (crop, other *core.Money, err error) {
	if crop, err = req.CropSales.money("cropSales"); err != nil {
		return nil, nil, err
	}
	if other, err = req.OtherIncome.money("otherIncome"); err != nil {
		return nil, nil, err
	}
	return crop, other, nil
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (req contactRequest) form() notify.ContactForm {
	return notify.ContactForm{
		Name:    sanitizeInput(req.Name),
		Email:   sanitizeInput(req.Email),
		Phone:   sanitizeInput(req.Phone),
		Subject: sanitizeInput(req.Subject),
		Message: sanitizeInput(req.Message),
	}
}

func optionalDate(s *string) (*core.Date, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := core.ParseDate(*s)
	if err != nil {
		return nil, core.NewValidationError("Invalid date format, use YYYY-MM-DD", "date")
	}
	return &d, nil
}

func text(s *string) string {
	if s == nil {
		return ""
	}
	return sanitizeInput(*s)
}

func textPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
