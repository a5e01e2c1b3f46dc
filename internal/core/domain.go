package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending limit for one category
type Budget struct {
	ID            int64           `json:"id"`
	Category      string          `json:"category"`
	MonthlyBudget decimal.Decimal `json:"monthlyBudget"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	Currency      string          `json:"currency"`
	BudgetMonth   int             `json:"budgetMonth"` // 1-12
	BudgetYear    int             `json:"budgetYear"`
}

// Remaining returns the unspent part of the budget; negative when overspent
func (b Budget) Remaining() decimal.Decimal {
	return b.MonthlyBudget.Sub(b.TotalSpent)
}

// SpendingPercentage returns spent/budget as a whole percentage clamped to 0..100
func (b Budget) SpendingPercentage() int {
	if !b.MonthlyBudget.IsPositive() {
		return 0
	}
	pct := b.TotalSpent.Div(b.MonthlyBudget).Mul(decimal.NewFromInt(100)).IntPart()
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return int(pct)
	}
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return &ValidationError{Field: "category", Message: "is required"}
	}
	if b.BudgetMonth < 1 || b.BudgetMonth > 12 {
		return &ValidationError{Field: "budgetMonth", Message: "must be between 1 and 12"}
	}
	return MonetaryAmount{Value: b.MonthlyBudget, Currency: b.Currency}.Validate()
}

// Income is a single income record
type Income struct {
	ID       int64           `json:"id"`
	Source   string          `json:"source"`
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (i Income) Validate() error {
	if strings.TrimSpace(i.Source) == "" {
		return &ValidationError{Field: "source", Message: "is required"}
	}
	return MonetaryAmount{Value: i.Amount, Currency: i.Currency}.Validate()
}

// Expense is a single expense record
type Expense struct {
	ID       int64           `json:"id"`
	Subject  string          `json:"subject"`
	Category string          `json:"category"`
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.Subject) == "" {
		return &ValidationError{Field: "subject", Message: "is required"}
	}
	if strings.TrimSpace(e.Category) == "" {
		return &ValidationError{Field: "category", Message: "is required"}
	}
	return MonetaryAmount{Value: e.Amount, Currency: e.Currency}.Validate()
}

// SavingsGoal tracks progress toward a target amount
type SavingsGoal struct {
	ID            int64           `json:"id"`
	Goal          string          `json:"goal"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetDate    string          `json:"targetDate"`
	Currency      string          `json:"currency"`
}

func (g SavingsGoal) Validate() error {
	if strings.TrimSpace(g.Goal) == "" {
		return &ValidationError{Field: "goal", Message: "is required"}
	}
	if g.CurrentAmount.IsNegative() {
		return &ValidationError{Field: "currentAmount", Message: "must not be negative"}
	}
	return MonetaryAmount{Value: g.TargetAmount, Currency: g.Currency}.Validate()
}

// PopularCurrency is a quoted currency with its recent change
type PopularCurrency struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Rate          decimal.Decimal `json:"rate"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}
