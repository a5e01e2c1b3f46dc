package export

import (
	"strconv"

	"github.com/shopspring/decimal"

	"alkansya/internal/dashboard"
	ports "alkansya/internal/sheets"
)

// Tab names, one per dashboard resource plus the converted figures
const (
	TabBudgets           = "Budgets"
	TabIncomes           = "Incomes"
	TabExpenses          = "Expenses"
	TabSavingsGoals      = "Savings Goals"
	TabMonthlySummary    = "Monthly Summary"
	TabExpenseCategories = "Expense Categories"
	TabSummary           = "Summary"
	TabGoalsProgress     = "Goals Progress"
	TabDisplayCurrency   = "Display Currency"
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func itoa(i int64) string { return strconv.FormatInt(i, 10) }

// Tables lays out a dashboard report as one table per resource. The
// display currency table is present only when figures were converted.
func Tables(r dashboard.Report) []ports.Table {
	d := r.Data
	tables := make([]ports.Table, 0, 9)

	budgets := ports.Table{Name: TabBudgets, Header: []string{"ID", "Category", "Monthly Budget", "Total Spent", "Remaining", "Spent %", "Currency", "Month", "Year"}}
	for _, b := range d.Budgets {
		budgets.Rows = append(budgets.Rows, []string{
			itoa(b.ID), b.Category, money(b.MonthlyBudget), money(b.TotalSpent), money(b.Remaining()),
			strconv.Itoa(b.SpendingPercentage()), b.Currency, strconv.Itoa(b.BudgetMonth), strconv.Itoa(b.BudgetYear),
		})
	}
	tables = append(tables, budgets)

	incomes := ports.Table{Name: TabIncomes, Header: []string{"ID", "Source", "Date", "Amount", "Currency"}}
	for _, i := range d.Incomes {
		incomes.Rows = append(incomes.Rows, []string{itoa(i.ID), i.Source, i.Date, money(i.Amount), i.Currency})
	}
	tables = append(tables, incomes)

	expenses := ports.Table{Name: TabExpenses, Header: []string{"ID", "Subject", "Category", "Date", "Amount", "Currency"}}
	for _, e := range d.Expenses {
		expenses.Rows = append(expenses.Rows, []string{itoa(e.ID), e.Subject, e.Category, e.Date, money(e.Amount), e.Currency})
	}
	tables = append(tables, expenses)

	goals := ports.Table{Name: TabSavingsGoals, Header: []string{"ID", "Goal", "Target", "Current", "Target Date", "Currency"}}
	for _, g := range d.SavingsGoals {
		goals.Rows = append(goals.Rows, []string{itoa(g.ID), g.Goal, money(g.TargetAmount), money(g.CurrentAmount), g.TargetDate, g.Currency})
	}
	tables = append(tables, goals)

	monthly := ports.Table{Name: TabMonthlySummary, Header: []string{"Month", "Income", "Expenses"}}
	for _, m := range d.MonthlySummary {
		monthly.Rows = append(monthly.Rows, []string{m.Month, money(m.Income), money(m.Expenses)})
	}
	tables = append(tables, monthly)

	cats := ports.Table{Name: TabExpenseCategories, Header: []string{"Category", "Amount"}}
	for _, c := range d.ExpenseCategories {
		cats.Rows = append(cats.Rows, []string{c.Category, money(c.Amount)})
	}
	tables = append(tables, cats)

	s := d.Summary
	summary := ports.Table{Name: TabSummary, Header: []string{"Field", "Value"}}
	if !s.IsZero() {
		summary.Rows = [][]string{
			{"totalIncome", money(s.TotalIncome)},
			{"totalExpenses", money(s.TotalExpenses)},
			{"totalBudget", money(s.TotalBudget)},
			{"totalSavings", money(s.TotalSavings)},
			{"netCashflow", money(s.NetCashflow)},
			{"budgetUtilization", money(s.BudgetUtilization)},
			{"savingsRate", money(s.SavingsRate)},
			{"currency", s.Currency},
		}
	}
	tables = append(tables, summary)

	progress := ports.Table{Name: TabGoalsProgress, Header: []string{"Goal", "Current", "Target", "Progress", "Percentage", "Target Date", "Days Remaining"}}
	for _, p := range d.GoalsProgress {
		progress.Rows = append(progress.Rows, []string{
			p.Goal, money(p.CurrentAmount), money(p.TargetAmount), money(p.Progress), money(p.Percentage),
			p.TargetDate, strconv.Itoa(p.DaysRemaining),
		})
	}
	tables = append(tables, progress)

	if len(r.Figures) > 0 {
		fig := ports.Table{Name: TabDisplayCurrency, Header: []string{"Field", "Original", "From", "Converted", "To", "Rate", "Estimated", "Unavailable"}}
		for _, f := range r.Figures {
			fig.Rows = append(fig.Rows, []string{
				f.Field,
				money(f.Original.Value), f.Original.Currency,
				money(f.Converted.Value), f.Converted.Currency,
				f.Rate.String(),
				strconv.FormatBool(f.Estimated),
				strconv.FormatBool(f.Unavailable),
			})
		}
		tables = append(tables, fig)
	}

	return tables
}
