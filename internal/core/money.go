// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between minor units and decimal representations.
package core

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	westernGroups = regexp.MustCompile(`^[0-9]{1,3}(,[0-9]{3})+$`)
	indianGroups  = regexp.MustCompile(`^[0-9]{1,2}(,[0-9]{2})*,[0-9]{3}$`)
)

// ParseAmount converts a decimal string to minor units (paise) with proper rounding.
//
// The decimal separator is a dot. Commas are accepted only as thousands
// separators in Western (1,000,000) or Indian (10,00,000) grouping; any other
// comma is rejected. Half-up rounding applies on the third decimal place and
// zero is a valid amount.
// Returns ErrNegativeAmount for a leading minus sign and ErrInvalidAmount for
// anything else that is not a plain decimal.
//
// Examples:
//
//	ParseAmount("12.34") -> 1234, nil
//	ParseAmount("1,000") -> 100000, nil
//	ParseAmount("1,00,000") -> 10000000, nil
//	ParseAmount("12,34") -> 0, ErrInvalidAmount
//	ParseAmount("12.345") -> 1235, nil (rounds up)
//	ParseAmount("0") -> 0, nil
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "-") {
		return 0, ErrNegativeAmount
	}
	s = strings.TrimPrefix(s, "+")

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if strings.Contains(fracPart, ",") {
		return 0, ErrInvalidAmount
	}
	if strings.Contains(intPart, ",") {
		if !westernGroups.MatchString(intPart) && !indianGroups.MatchString(intPart) {
			return 0, ErrInvalidAmount
		}
		intPart = strings.ReplaceAll(intPart, ",", "")
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64-1 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	return iv*100 + fracCents, nil
}

// ParseMoney is ParseAmount returning a Money.
func ParseMoney(s string) (Money, error) {
	c, err := ParseAmount(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: c}, nil
}

// Decimal returns the amount in major units as an exact decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with two fixed decimals and no grouping, e.g. "1234.50".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}
