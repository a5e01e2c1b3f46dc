package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"alkansya/internal/core"
)

// Remote resource paths
const (
	PathBudgets              = "api/budgets/user"
	PathIncomes              = "api/incomes/getIncomes"
	PathExpenses             = "expenses/getExpenses"
	PathSavingsGoals         = "api/savings-goals/getSavingsGoals"
	PathMonthlySummary       = "api/analytics/monthly-summary"
	PathExpenseCategories    = "api/analytics/expense-categories"
	PathFinancialSummary     = "api/analytics/financial-summary"
	PathSavingsGoalsProgress = "api/analytics/savings-goals-progress"
)

// Resource names used in errors, logs and metrics
const (
	ResourceBudgets              = "budgets"
	ResourceIncomes              = "incomes"
	ResourceExpenses             = "expenses"
	ResourceSavingsGoals         = "savings_goals"
	ResourceMonthlySummary       = "monthly_summary"
	ResourceExpenseCategories    = "expense_categories"
	ResourceFinancialSummary     = "financial_summary"
	ResourceSavingsGoalsProgress = "savings_goals_progress"
)

func (c *Client) Budgets(ctx context.Context, token string) ([]core.Budget, error) {
	var out []core.Budget
	err := c.do(ctx, call{op: ResourceBudgets, method: http.MethodGet, path: PathBudgets, token: token, auth: true, out: &out})
	return out, err
}

func (c *Client) Incomes(ctx context.Context, token string) ([]core.Income, error) {
	var out []core.Income
	err := c.do(ctx, call{op: ResourceIncomes, method: http.MethodGet, path: PathIncomes, token: token, auth: true, out: &out})
	return out, err
}

func (c *Client) Expenses(ctx context.Context, token string) ([]core.Expense, error) {
	var out []core.Expense
	err := c.do(ctx, call{op: ResourceExpenses, method: http.MethodGet, path: PathExpenses, token: token, auth: true, out: &out})
	return out, err
}

func (c *Client) SavingsGoals(ctx context.Context, token string) ([]core.SavingsGoal, error) {
	var out []core.SavingsGoal
	err := c.do(ctx, call{op: ResourceSavingsGoals, method: http.MethodGet, path: PathSavingsGoals, token: token, auth: true, out: &out})
	return out, err
}

// MonthlySummary returns income and expenses per month of year
func (c *Client) MonthlySummary(ctx context.Context, token string, year int) ([]core.MonthlySummary, error) {
	var out []core.MonthlySummary
	q := url.Values{"year": {strconv.Itoa(year)}}
	err := c.do(ctx, call{op: ResourceMonthlySummary, method: http.MethodGet, path: PathMonthlySummary, token: token, auth: true, query: q, out: &out})
	return out, err
}

// ExpenseCategories returns spending per category for a month
func (c *Client) ExpenseCategories(ctx context.Context, token string, month, year int) ([]core.CategoryExpense, error) {
	var out []core.CategoryExpense
	err := c.do(ctx, call{op: ResourceExpenseCategories, method: http.MethodGet, path: PathExpenseCategories, token: token, auth: true, query: period(month, year), out: &out})
	return out, err
}

// FinancialSummary returns the totals for a month
func (c *Client) FinancialSummary(ctx context.Context, token string, month, year int) (core.FinancialSummary, error) {
	var out core.FinancialSummary
	err := c.do(ctx, call{op: ResourceFinancialSummary, method: http.MethodGet, path: PathFinancialSummary, token: token, auth: true, query: period(month, year), out: &out})
	return out, err
}

func (c *Client) SavingsGoalsProgress(ctx context.Context, token string) ([]core.SavingsGoalProgress, error) {
	var out []core.SavingsGoalProgress
	err := c.do(ctx, call{op: ResourceSavingsGoalsProgress, method: http.MethodGet, path: PathSavingsGoalsProgress, token: token, auth: true, out: &out})
	return out, err
}

func period(month, year int) url.Values {
	return url.Values{
		"month": {strconv.Itoa(month)},
		"year":  {strconv.Itoa(year)},
	}
}
