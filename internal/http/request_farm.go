package http

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"farmledger/internal/core"
)

// sizeField is a farm size sent as a JSON number, a string or null.
type sizeField struct {
	set   bool
	value decimal.NullDecimal
	err   error
}

func (f *sizeField) UnmarshalJSON(data []byte) error {
	f.set = true
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			f.err = err
			return nil
		}
		if raw = strings.TrimSpace(s); raw == "" {
			return nil
		}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		f.err = err
		return nil
	}
	f.value = decimal.NewNullDecimal(d)
	return nil
}

func (f sizeField) size() (decimal.NullDecimal, error) {
	if f.err != nil {
		return decimal.NullDecimal{}, core.NewValidationError("Farm size must be a valid number", "size")
	}
	return f.value, nil
}

type farmRequest struct {
	FarmName *string   `json:"farmName"`
	Location *string   `json:"location"`
	CropType *string   `json:"cropType"`
	Size     sizeField `json:"size"`
}

func (req farmRequest) toNewFarm() (core.NewFarm, error) {
	size, err := req.Size.size()
	if err != nil {
		return core.NewFarm{}, err
	}
	return core.NewFarm{
		Name:     text(req.FarmName),
		Location: text(req.Location),
		CropType: text(req.CropType),
		Size:     size,
	}, nil
}

// toPatch keeps only the supplied fields; a null or blank size clears it.
func (req farmRequest) toPatch() (core.FarmPatch, error) {
	p := core.FarmPatch{
		Name:     textPtr(req.FarmName),
		Location: textPtr(req.Location),
		CropType: textPtr(req.CropType),
	}
	if req.Size.set {
		size, err := req.Size.size()
		if err != nil {
			return core.FarmPatch{}, err
		}
		p.Size = &size
	}
	return p, nil
}

type profileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
}

func (req profileRequest) patch() core.ProfilePatch {
	return core.ProfilePatch{
		Name:     textPtr(req.Name),
		Email:    textPtr(req.Email),
		Phone:    textPtr(req.Phone),
		Location: textPtr(req.Location),
	}
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}
