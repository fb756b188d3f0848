package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const maxFarmTextLen = 200

type (
	// Farm is a plot an owner keeps records for. Size is in acres and is
	// optional.
	Farm struct {
		ID        string
		OwnerID   string
		Name      string
		Location  string
		CropType  string
		Size      decimal.NullDecimal
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	NewFarm struct {
		Name     string
		Location string
		CropType string
		Size     decimal.NullDecimal
	}

	// FarmPatch lists the fields an update replaces. Nil means "keep"; a
	// non-nil Size with Valid=false clears the size.
	FarmPatch struct {
		Name     *string
		Location *string
		CropType *string
		Size     *decimal.NullDecimal
	}
)

func (f Farm) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return NewValidationError("Farm name is required", "farmName")
	}
	var long []string
	if len(f.Name) > maxFarmTextLen {
		long = append(long, "farmName")
	}
	if len(f.Location) > maxFarmTextLen {
		long = append(long, "location")
	}
	if len(f.CropType) > maxFarmTextLen {
		long = append(long, "cropType")
	}
	if len(long) > 0 {
		return NewValidationError("Farm details too long (max 200 characters)", long...)
	}
	if f.Size.Valid && f.Size.Decimal.IsNegative() {
		return NewValidationError("Farm size must not be negative", "size")
	}
	return nil
}

// Apply overwrites the fields of f that p supplies.
func (p FarmPatch) Apply(f Farm) Farm {
	if p.Name != nil {
		f.Name = strings.TrimSpace(*p.Name)
	}
	if p.Location != nil {
		f.Location = strings.TrimSpace(*p.Location)
	}
	if p.CropType != nil {
		f.CropType = strings.TrimSpace(*p.CropType)
	}
	if p.Size != nil {
		f.Size = *p.Size
	}
	return f
}

func (p FarmPatch) Empty() bool {
	return p.Name == nil && p.Location == nil && p.CropType == nil && p.Size == nil
}
