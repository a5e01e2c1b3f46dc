package core

import "github.com/shopspring/decimal"

// MonthlySummary is one month of income and expenses for a year
type MonthlySummary struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// CategoryExpense is the total spent in a category for a month
type CategoryExpense struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// FinancialSummary aggregates a month. The zero value is the empty default
// used when the analytics endpoint cannot be reached.
type FinancialSummary struct {
	TotalIncome       decimal.Decimal `json:"totalIncome"`
	TotalExpenses     decimal.Decimal `json:"totalExpenses"`
	TotalBudget       decimal.Decimal `json:"totalBudget"`
	TotalSavings      decimal.Decimal `json:"totalSavings"`
	NetCashflow       decimal.Decimal `json:"netCashflow"`
	BudgetUtilization decimal.Decimal `json:"budgetUtilization"`
	SavingsRate       decimal.Decimal `json:"savingsRate"`
	Currency          string          `json:"currency"`
}

// IsZero reports whether the summary carries no figures
func (s FinancialSummary) IsZero() bool {
	return s.TotalIncome.IsZero() &&
		s.TotalExpenses.IsZero() &&
		s.TotalBudget.IsZero() &&
		s.TotalSavings.IsZero() &&
		s.NetCashflow.IsZero()
}

// Amounts returns the currency-denominated figures keyed by field name.
// Ratios (utilization, savings rate) are not amounts and are left out.
func (s FinancialSummary) Amounts() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"totalIncome":   s.TotalIncome,
		"totalExpenses": s.TotalExpenses,
		"totalBudget":   s.TotalBudget,
		"totalSavings":  s.TotalSavings,
		"netCashflow":   s.NetCashflow,
	}
}

// SavingsGoalProgress is the analytics view of a savings goal
type SavingsGoalProgress struct {
	Goal          string          `json:"goal"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`
	TargetAmount  decimal.Decimal `json:"targetAmount"`
	Progress      decimal.Decimal `json:"progress"`
	Percentage    decimal.Decimal `json:"percentage"`
	TargetDate    string          `json:"targetDate"`
	DaysRemaining int             `json:"daysRemaining"`
}
