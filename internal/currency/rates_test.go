package currency

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"alkansya/internal/core"
)

type fakeLister struct {
	rate    decimal.Decimal
	rates   map[string]decimal.Decimal
	popular []core.PopularCurrency
	err     error
}

func (f fakeLister) Rate(context.Context, string, string, string) (decimal.Decimal, error) {
	return f.rate, f.err
}

func (f fakeLister) Rates(context.Context, string, string) (map[string]decimal.Decimal, error) {
	return f.rates, f.err
}

func (f fakeLister) Popular(context.Context, string) ([]core.PopularCurrency, error) {
	return f.popular, f.err
}

func TestBoard_Rates(t *testing.T) {
	remote := fakeLister{rates: map[string]decimal.Decimal{"EUR": d("0.9")}}
	b := NewBoard(remote, DefaultFallbackTable())

	rates, estimated, err := b.Rates(context.Background(), "tok", "usd")
	if err != nil || estimated {
		t.Fatalf("Rates = %v, estimated=%v, err=%v", rates, estimated, err)
	}
	if !rates["EUR"].Equal(d("0.9")) {
		t.Errorf("EUR = %s", rates["EUR"])
	}
}

func TestBoard_RatesFallback(t *testing.T) {
	b := NewBoard(fakeLister{err: &core.TransientDataError{Op: "currency_rates"}}, DefaultFallbackTable())

	rates, estimated, err := b.Rates(context.Background(), "tok", "EUR")
	if err != nil {
		t.Fatalf("Rates: %v", err)
	}
	if !estimated {
		t.Error("expected estimated rates")
	}
	if !rates["EUR"].Equal(decimal.NewFromInt(1)) {
		t.Errorf("EUR against itself = %s", rates["EUR"])
	}
	if got := rates["GBP"].Mul(d("50")).Round(2).StringFixed(2); got != "42.47" {
		t.Errorf("50 EUR in GBP = %s, want 42.47", got)
	}

	_, _, err = b.Rates(context.Background(), "tok", "XAU")
	if !errors.Is(err, core.ErrConversionUnavailable) {
		t.Errorf("unknown base err = %v", err)
	}
}

func TestBoard_PopularFallback(t *testing.T) {
	b := NewBoard(fakeLister{err: &core.TransientDataError{Op: "currency_popular"}}, DefaultFallbackTable())

	list, estimated, err := b.Popular(context.Background(), "tok")
	if err != nil || !estimated {
		t.Fatalf("Popular estimated=%v err=%v", estimated, err)
	}
	for _, p := range list {
		if p.Code == ReferenceCurrency {
			t.Error("fallback list should not include the reference currency")
		}
		if p.Code == "PHP" && p.Name != "Philippine Peso" {
			t.Errorf("PHP name = %q", p.Name)
		}
	}
	if len(list) != DefaultFallbackTable().Len()-1 {
		t.Errorf("len = %d", len(list))
	}
}

func TestBoard_AuthErrorPropagates(t *testing.T) {
	b := NewBoard(fakeLister{err: &core.AuthError{Op: "currency_popular", Status: 401}}, DefaultFallbackTable())
	if _, _, err := b.Popular(context.Background(), "tok"); !core.IsAuthError(err) {
		t.Errorf("err = %v, want auth error", err)
	}
}

func TestBoard_Rate(t *testing.T) {
	transient := &core.TransientDataError{Op: "currency_rate"}
	tests := []struct {
		name          string
		remote        fakeLister
		from, to      string
		want          string
		wantEstimated bool
		wantErr       error
	}{
		{"remote", fakeLister{rate: d("0.85")}, "usd", "eur", "0.85", false, nil},
		{"identity", fakeLister{err: transient}, "PHP", "php", "1", false, nil},
		{"fallback cross rate", fakeLister{err: transient}, "EUR", "GBP", "0.8494623655913978", true, nil},
		{"unknown currency", fakeLister{err: transient}, "USD", "XAU", "", false, core.ErrConversionUnavailable},
		{"bad code", fakeLister{}, "US", "EUR", "", false, core.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, estimated, err := NewBoard(tt.remote, DefaultFallbackTable()).Rate(context.Background(), "tok", tt.from, tt.to)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if estimated != tt.wantEstimated {
				t.Errorf("estimated = %v, want %v", estimated, tt.wantEstimated)
			}
			if got := rate.Round(6); !got.Equal(d(tt.want).Round(6)) {
				t.Errorf("rate = %s, want %s", rate, tt.want)
			}
		})
	}
}

func TestBoard_RateAuthErrorPropagates(t *testing.T) {
	b := NewBoard(fakeLister{err: &core.AuthError{Op: "currency_rate", Status: 401}}, DefaultFallbackTable())
	if _, _, err := b.Rate(context.Background(), "tok", "USD", "EUR"); !core.IsAuthError(err) {
		t.Errorf("err = %v, want auth error", err)
	}
}
