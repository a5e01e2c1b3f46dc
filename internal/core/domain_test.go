package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBudget_SpendingPercentage(t *testing.T) {
	tests := []struct {
		name   string
		budget string
		spent  string
		want   int
	}{
		{"half", "200", "100", 50},
		{"over budget clamps", "100", "150", 100},
		{"zero budget", "0", "10", 0},
		{"nothing spent", "100", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Budget{
				MonthlyBudget: decimal.RequireFromString(tt.budget),
				TotalSpent:    decimal.RequireFromString(tt.spent),
			}
			if got := b.SpendingPercentage(); got != tt.want {
				t.Errorf("SpendingPercentage() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBudget_Remaining(t *testing.T) {
	b := Budget{MonthlyBudget: decimal.NewFromInt(100), TotalSpent: decimal.RequireFromString("120.50")}
	if got := b.Remaining(); !got.Equal(decimal.RequireFromString("-20.50")) {
		t.Errorf("Remaining() = %s, want -20.50", got)
	}
}

func TestRecords_Validate(t *testing.T) {
	ten := decimal.NewFromInt(10)
	tests := []struct {
		name    string
		rec     interface{ Validate() error }
		wantErr bool
	}{
		{"valid expense", Expense{Subject: "Lunch", Category: "Food", Amount: ten, Currency: "PHP"}, false},
		{"expense missing subject", Expense{Category: "Food", Amount: ten, Currency: "PHP"}, true},
		{"expense zero amount", Expense{Subject: "Lunch", Category: "Food", Currency: "PHP"}, true},
		{"valid income", Income{Source: "Salary", Amount: ten, Currency: "USD"}, false},
		{"income negative", Income{Source: "Salary", Amount: ten.Neg(), Currency: "USD"}, true},
		{"valid budget", Budget{Category: "Food", MonthlyBudget: ten, Currency: "EUR", BudgetMonth: 5}, false},
		{"budget bad month", Budget{Category: "Food", MonthlyBudget: ten, Currency: "EUR", BudgetMonth: 13}, true},
		{"valid goal", SavingsGoal{Goal: "Car", TargetAmount: ten, Currency: "JPY"}, false},
		{"goal bad currency", SavingsGoal{Goal: "Car", TargetAmount: ten, Currency: "yen"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestErrorTaxonomy(t *testing.T) {
	auth := fmt.Errorf("load budgets: %w", &AuthError{Op: "budgets", Status: 401})
	if !IsAuthError(auth) {
		t.Error("wrapped AuthError should classify as auth")
	}
	if IsTransient(auth) {
		t.Error("AuthError should not classify as transient")
	}

	transient := &TransientDataError{Op: "incomes", Status: 503}
	if IsAuthError(transient) || !IsTransient(transient) {
		t.Error("TransientDataError misclassified")
	}

	conv := &ConversionUnavailableError{From: "USD", To: "XAU"}
	if !errors.Is(conv, ErrConversionUnavailable) {
		t.Error("ConversionUnavailableError should match ErrConversionUnavailable")
	}
}

func TestIsAuthStatusAndMessage(t *testing.T) {
	for _, code := range []int{401, 403} {
		if !IsAuthStatus(code) {
			t.Errorf("IsAuthStatus(%d) = false", code)
		}
	}
	for _, code := range []int{200, 404, 500} {
		if IsAuthStatus(code) {
			t.Errorf("IsAuthStatus(%d) = true", code)
		}
	}
	if !LooksLikeAuthMessage(`{"message":"Session expired, please log in"}`) {
		t.Error("expected session expired message to match")
	}
	if LooksLikeAuthMessage(`{"message":"internal error"}`) {
		t.Error("unexpected match")
	}
}

func TestFinancialSummary_IsZero(t *testing.T) {
	if !(FinancialSummary{}).IsZero() {
		t.Error("zero value should be empty")
	}
	s := FinancialSummary{TotalIncome: decimal.NewFromInt(1)}
	if s.IsZero() {
		t.Error("summary with income should not be empty")
	}
	if len(s.Amounts()) != 5 {
		t.Errorf("Amounts() len = %d, want 5", len(s.Amounts()))
	}
}
