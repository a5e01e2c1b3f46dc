package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected validation error, got %v", tc.in, err)
		}
	}
}

func TestRound2_HalfUp(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"1.005", "1.01"},
		{"1.004", "1"},
		{"42.4731182795698925", "42.47"},
		{"5650", "5650"},
		{"0.125", "0.13"},
	}
	for _, tc := range cases {
		got := Round2(decimal.RequireFromString(tc.in))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Errorf("Round2(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestMonetaryAmount_Validate(t *testing.T) {
	tests := []struct {
		name    string
		amount  MonetaryAmount
		wantErr bool
	}{
		{"valid", NewAmount(decimal.NewFromInt(10), "usd"), false},
		{"zero", NewAmount(decimal.Zero, "USD"), true},
		{"negative", NewAmount(decimal.NewFromInt(-5), "USD"), true},
		{"bad currency", NewAmount(decimal.NewFromInt(5), "US"), true},
		{"digits in currency", NewAmount(decimal.NewFromInt(5), "U5D"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.amount.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMonetaryAmount_String(t *testing.T) {
	m := NewAmount(decimal.RequireFromString("5650"), "php")
	if got := m.String(); got != "5650.00 PHP" {
		t.Errorf("String() = %q, want %q", got, "5650.00 PHP")
	}
}
