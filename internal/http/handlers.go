package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"alkansya/internal/core"
	"alkansya/internal/dashboard"
	"alkansya/internal/log"
)

type amountView struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

func newAmountView(m core.MonetaryAmount) amountView {
	return amountView{Value: m.Value.StringFixed(2), Currency: m.Currency}
}

type figureView struct {
	Field       string     `json:"field"`
	Original    amountView `json:"original"`
	Converted   amountView `json:"converted"`
	Rate        string     `json:"rate"`
	Estimated   bool       `json:"estimated"`
	Unavailable bool       `json:"unavailable"`
}

type dataView struct {
	Budgets           []core.Budget              `json:"budgets"`
	Incomes           []core.Income              `json:"incomes"`
	Expenses          []core.Expense             `json:"expenses"`
	SavingsGoals      []core.SavingsGoal         `json:"savingsGoals"`
	MonthlySummary    []core.MonthlySummary      `json:"monthlySummary"`
	ExpenseCategories []core.CategoryExpense     `json:"expenseCategories"`
	Summary           core.FinancialSummary      `json:"financialSummary"`
	GoalsProgress     []core.SavingsGoalProgress `json:"savingsGoalsProgress"`
}

type dashboardView struct {
	Period          string       `json:"period"`
	Outcome         string       `json:"outcome"`
	Failed          []string     `json:"failed,omitempty"`
	NoData          bool         `json:"noData"`
	Notice          string       `json:"notice,omitempty"`
	DisplayCurrency string       `json:"displayCurrency,omitempty"`
	Data            dataView     `json:"data"`
	Figures         []figureView `json:"figures,omitempty"`
	FetchedAt       time.Time    `json:"fetchedAt"`
	RefreshedAt     *time.Time   `json:"refreshedAt,omitempty"`
}

func newDashboardView(r dashboard.Report) dashboardView {
	d := r.Data
	v := dashboardView{
		Period:          r.Period.String(),
		Outcome:         r.Outcome.String(),
		Failed:          r.Failed,
		NoData:          r.NoData,
		Notice:          r.Notice,
		DisplayCurrency: r.DisplayCurrency,
		Data: dataView{
			Budgets:           d.Budgets,
			Incomes:           d.Incomes,
			Expenses:          d.Expenses,
			SavingsGoals:      d.SavingsGoals,
			MonthlySummary:    d.MonthlySummary,
			ExpenseCategories: d.ExpenseCategories,
			Summary:           d.Summary,
			GoalsProgress:     d.GoalsProgress,
		},
		FetchedAt: r.FetchedAt,
	}
	for _, f := range r.Figures {
		v.Figures = append(v.Figures, figureView{
			Field:       f.Field,
			Original:    newAmountView(f.Original),
			Converted:   newAmountView(f.Converted),
			Rate:        f.Rate.String(),
			Estimated:   f.Estimated,
			Unavailable: f.Unavailable,
		})
	}
	return v
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.deps.Snapshots.Latest()
	if !ok || snap.Err != nil || snap.Report.Redirect {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.deps.Snapshots.Latest()
	switch {
	case !ok:
		writeError(w, r, http.StatusServiceUnavailable, "dashboard not loaded yet", "")
	case snap.Err != nil:
		writeError(w, r, http.StatusBadGateway, snap.Err.Error(), "")
	case snap.Report.Redirect:
		writeError(w, r, http.StatusUnauthorized, "sign in required", snap.Report.Reason)
	default:
		v := newDashboardView(snap.Report)
		refreshed := snap.RefreshedAt
		v.RefreshedAt = &refreshed
		writeJSON(w, r, http.StatusOK, v)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.deps.Snapshots.Trigger()
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "refresh scheduled"})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, err := parsePeriod(chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid period", err.Error())
		return
	}

	report, err := s.deps.Loader.Load(ctx, period)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			writeError(w, r, http.StatusBadRequest, verr.Error(), "")
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Dashboard load failed",
			log.FieldOperation, log.OpFetch,
			log.FieldError, err.Error())
		writeError(w, r, http.StatusBadGateway, "dashboard load failed", "")
		return
	}
	if report.Redirect {
		writeError(w, r, http.StatusUnauthorized, "sign in required", report.Reason)
		return
	}
	writeJSON(w, r, http.StatusOK, newDashboardView(report))
}
