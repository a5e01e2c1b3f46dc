package currency

import (
	"context"

	"github.com/shopspring/decimal"

	"alkansya/internal/core"
)

// RateLister quotes rates and highlighted currencies from the server
type RateLister interface {
	Rate(ctx context.Context, token, from, to string) (decimal.Decimal, error)
	Rates(ctx context.Context, token, base string) (map[string]decimal.Decimal, error)
	Popular(ctx context.Context, token string) ([]core.PopularCurrency, error)
}

// Board answers rate listings, substituting the fallback table when the
// server cannot. Estimated reports whether the table was used.
type Board struct {
	remote RateLister
	table  FallbackTable
}

// NewBoard creates a rate board
func NewBoard(remote RateLister, table FallbackTable) *Board {
	return &Board{remote: remote, table: table}
}

// Rate returns the price of one unit of from in to
func (b *Board) Rate(ctx context.Context, token, from, to string) (rate decimal.Decimal, estimated bool, err error) {
	from, to = core.NormalizeCurrency(from), core.NormalizeCurrency(to)
	if err := core.ValidateCurrency(from); err != nil {
		return decimal.Zero, false, err
	}
	if err := core.ValidateCurrency(to); err != nil {
		return decimal.Zero, false, err
	}
	if from == to {
		return decimal.NewFromInt(1), false, nil
	}

	var remoteErr error
	if b.remote != nil {
		rate, remoteErr = b.remote.Rate(ctx, token, from, to)
		if remoteErr == nil {
			return rate, false, nil
		}
		if core.IsAuthError(remoteErr) {
			return decimal.Zero, false, remoteErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Zero, false, ctxErr
		}
	}

	rate, ok := b.table.CrossRate(from, to)
	if !ok {
		return decimal.Zero, false, &core.ConversionUnavailableError{From: from, To: to, Err: remoteErr}
	}
	return rate, true, nil
}

// Rates returns every known rate against base
func (b *Board) Rates(ctx context.Context, token, base string) (rates map[string]decimal.Decimal, estimated bool, err error) {
	base = core.NormalizeCurrency(base)
	if err := core.ValidateCurrency(base); err != nil {
		return nil, false, err
	}

	var remoteErr error
	if b.remote != nil {
		rates, remoteErr = b.remote.Rates(ctx, token, base)
		if remoteErr == nil && len(rates) > 0 {
			return rates, false, nil
		}
		if core.IsAuthError(remoteErr) {
			return nil, false, remoteErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
	}

	rates, ok := b.table.Rebase(base)
	if !ok {
		return nil, false, &core.ConversionUnavailableError{From: base, To: "*", Err: remoteErr}
	}
	return rates, true, nil
}

// Popular returns the highlighted currencies. The fallback list carries
// table rates and no change figures.
func (b *Board) Popular(ctx context.Context, token string) (list []core.PopularCurrency, estimated bool, err error) {
	if b.remote != nil {
		list, err = b.remote.Popular(ctx, token)
		if err == nil && len(list) > 0 {
			return list, false, nil
		}
		if core.IsAuthError(err) {
			return nil, false, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, false, ctxErr
		}
	}

	list = make([]core.PopularCurrency, 0, b.table.Len())
	for _, code := range b.table.Codes() {
		if code == ReferenceCurrency {
			continue
		}
		rate, _ := b.table.Rate(code)
		list = append(list, core.PopularCurrency{Code: code, Name: DisplayName(code), Rate: rate})
	}
	return list, true, nil
}

var names = map[string]string{
	"USD": "US Dollar",
	"EUR": "Euro",
	"GBP": "British Pound",
	"JPY": "Japanese Yen",
	"AUD": "Australian Dollar",
	"CAD": "Canadian Dollar",
	"CHF": "Swiss Franc",
	"CNY": "Chinese Yuan",
	"PHP": "Philippine Peso",
	"INR": "Indian Rupee",
	"SGD": "Singapore Dollar",
	"KRW": "South Korean Won",
	"HKD": "Hong Kong Dollar",
	"NZD": "New Zealand Dollar",
	"MXN": "Mexican Peso",
}

// DisplayName returns the English name of code, or the code itself
func DisplayName(code string) string {
	code = core.NormalizeCurrency(code)
	if n, ok := names[code]; ok {
		return n
	}
	return code
}
