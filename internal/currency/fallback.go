// Package currency converts monetary amounts between ISO-4217 currencies.
//
// Rates come from the remote service first. When it cannot answer, a
// FallbackTable of approximate "1 USD = X" rates prices the pair instead,
// and the result says so.
package currency

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"alkansya/internal/core"
)

// ReferenceCurrency is the currency every fallback rate is quoted against
const ReferenceCurrency = "USD"

// FallbackTable is an immutable set of rates expressed as "1 USD = X".
// The zero value is an empty table that prices nothing.
type FallbackTable struct {
	rates map[string]decimal.Decimal
}

// NewFallbackTable copies rates into a table. Codes are normalized, every
// rate must be positive and USD is pinned to 1.
func NewFallbackTable(rates map[string]decimal.Decimal) (FallbackTable, error) {
	out := make(map[string]decimal.Decimal, len(rates)+1)
	for code, rate := range rates {
		c := core.NormalizeCurrency(code)
		if err := core.ValidateCurrency(c); err != nil {
			return FallbackTable{}, fmt.Errorf("fallback rate %q: %w", code, err)
		}
		if !rate.IsPositive() {
			return FallbackTable{}, fmt.Errorf("fallback rate %s=%s: must be positive", c, rate)
		}
		out[c] = rate
	}
	if r, ok := out[ReferenceCurrency]; ok && !r.Equal(decimal.NewFromInt(1)) {
		return FallbackTable{}, fmt.Errorf("fallback rate %s=%s: reference currency must be 1", ReferenceCurrency, r)
	}
	out[ReferenceCurrency] = decimal.NewFromInt(1)
	return FallbackTable{rates: out}, nil
}

// DefaultFallbackTable returns the built-in approximate rates
func DefaultFallbackTable() FallbackTable {
	t, _ := NewFallbackTable(map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(1),
		"EUR": decimal.RequireFromString("0.93"),
		"GBP": decimal.RequireFromString("0.79"),
		"JPY": decimal.RequireFromString("149.8"),
		"AUD": decimal.RequireFromString("1.52"),
		"CAD": decimal.RequireFromString("1.37"),
		"CHF": decimal.RequireFromString("0.90"),
		"CNY": decimal.RequireFromString("7.24"),
		"PHP": decimal.RequireFromString("56.5"),
	})
	return t
}

// ParseFallbackTable reads "USD=1,EUR=0.93,PHP=56.5"
func ParseFallbackTable(s string) (FallbackTable, error) {
	rates := make(map[string]decimal.Decimal)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		code, value, ok := strings.Cut(part, "=")
		if !ok {
			return FallbackTable{}, fmt.Errorf("fallback rate %q: expected CODE=RATE", part)
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return FallbackTable{}, fmt.Errorf("fallback rate %q: %w", part, err)
		}
		rates[code] = rate
	}
	if len(rates) == 0 {
		return FallbackTable{}, fmt.Errorf("fallback table is empty")
	}
	return NewFallbackTable(rates)
}

// Rate returns how many units of code one USD buys
func (t FallbackTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t.rates[core.NormalizeCurrency(code)]
	return r, ok
}

// CrossRate derives from->to as (1/rate[from]) * rate[to].
// Both currencies must be in the table.
func (t FallbackTable) CrossRate(from, to string) (decimal.Decimal, bool) {
	rf, ok := t.Rate(from)
	if !ok {
		return decimal.Zero, false
	}
	rt, ok := t.Rate(to)
	if !ok {
		return decimal.Zero, false
	}
	if core.NormalizeCurrency(from) == core.NormalizeCurrency(to) {
		return decimal.NewFromInt(1), true
	}
	return rt.Div(rf), true
}

// Rebase returns every rate in the table quoted against base
func (t FallbackTable) Rebase(base string) (map[string]decimal.Decimal, bool) {
	if _, ok := t.Rate(base); !ok {
		return nil, false
	}
	out := make(map[string]decimal.Decimal, len(t.rates))
	for code := range t.rates {
		out[code], _ = t.CrossRate(base, code)
	}
	return out, true
}

// Codes returns the currencies in the table, sorted
func (t FallbackTable) Codes() []string {
	codes := make([]string, 0, len(t.rates))
	for c := range t.rates {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func (t FallbackTable) Len() int {
	return len(t.rates)
}
