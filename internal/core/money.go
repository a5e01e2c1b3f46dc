// Package core provides the money type, domain records and the error
// taxonomy shared by the rest of the client.
//
// Amounts are decimal values; they are never carried as float64 so
// conversions and summaries do not drift.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MonetaryAmount is a value in a specific ISO-4217 currency
type MonetaryAmount struct {
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
}

// NewAmount builds a MonetaryAmount after normalizing the currency code
func NewAmount(value decimal.Decimal, currency string) MonetaryAmount {
	return MonetaryAmount{Value: value, Currency: NormalizeCurrency(currency)}
}

// Validate checks the amount is positive and the currency code is well formed
func (m MonetaryAmount) Validate() error {
	if !m.Value.IsPositive() {
		return &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	return ValidateCurrency(m.Currency)
}

// String renders the amount with two decimals followed by the currency code
func (m MonetaryAmount) String() string {
	return fmt.Sprintf("%s %s", m.Value.StringFixed(2), m.Currency)
}

// Round2 rounds to two decimal places, half away from zero.
// For the positive amounts handled here that is round-half-up.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ParseAmount parses a user-entered amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators.
// Empty, non-numeric, zero and negative input is rejected with a
// ValidationError before anything reaches the network.
//
// Examples:
//
//	ParseAmount("12.34") -> 12.34, nil
//	ParseAmount("12,34") -> 12.34, nil
//	ParseAmount("0")     -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "is required"}
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", ".")
	}
	if strings.HasPrefix(s, "+") {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "must be a plain number"}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Message: fmt.Sprintf("%q is not a number", s)}
	}
	if !d.IsPositive() {
		return decimal.Zero, &ValidationError{Field: "amount", Message: "must be greater than zero"}
	}
	return d, nil
}
