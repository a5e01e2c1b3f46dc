// Package dashboard assembles the signed-in user's monthly overview: it
// passes the session gate, fetches every resource concurrently and
// converts the summary figures into the display currency.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"alkansya/internal/aggregate"
	"alkansya/internal/api"
	"alkansya/internal/auth"
	"alkansya/internal/core"
	"alkansya/internal/currency"
	"alkansya/internal/log"
	"alkansya/internal/session"
)

// NoDataNotice is shown when nothing could be loaded
const NoDataNotice = "No financial data found for this period."

// PartialNotice is shown when some resources could not be loaded
const PartialNotice = "Some data could not be loaded; figures may be incomplete."

// Source is the remote API as the dashboard needs it
type Source interface {
	Budgets(ctx context.Context, token string) ([]core.Budget, error)
	Incomes(ctx context.Context, token string) ([]core.Income, error)
	Expenses(ctx context.Context, token string) ([]core.Expense, error)
	SavingsGoals(ctx context.Context, token string) ([]core.SavingsGoal, error)
	MonthlySummary(ctx context.Context, token string, year int) ([]core.MonthlySummary, error)
	ExpenseCategories(ctx context.Context, token string, month, year int) ([]core.CategoryExpense, error)
	FinancialSummary(ctx context.Context, token string, month, year int) (core.FinancialSummary, error)
	SavingsGoalsProgress(ctx context.Context, token string) ([]core.SavingsGoalProgress, error)
	ChangeCurrency(ctx context.Context, token, currency string) error
}

// Gate is the session gate
type Gate interface {
	Enter(ctx context.Context) auth.Decision
	Expire(ctx context.Context, epoch uint64, reason string)
}

// SessionUpdater writes back to the session if it did not change meanwhile
type SessionUpdater interface {
	UpdateIf(ctx context.Context, epoch uint64, fn func(*session.Session)) error
}

// Period is a calendar month
type Period struct {
	Month int
	Year  int
}

// CurrentPeriod returns the month containing now
func CurrentPeriod(now time.Time) Period {
	return Period{Month: int(now.Month()), Year: now.Year()}
}

func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return &core.ValidationError{Field: "month", Message: "must be between 1 and 12"}
	}
	if p.Year < 1970 || p.Year > 9999 {
		return &core.ValidationError{Field: "year", Message: "must be a four digit year"}
	}
	return nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Data holds one field per remote resource. Failed resources hold their
// empty default: an empty slice or a zero summary.
type Data struct {
	Budgets           []core.Budget
	Incomes           []core.Income
	Expenses          []core.Expense
	SavingsGoals      []core.SavingsGoal
	MonthlySummary    []core.MonthlySummary
	ExpenseCategories []core.CategoryExpense
	Summary           core.FinancialSummary
	GoalsProgress     []core.SavingsGoalProgress
}

// Empty reports whether no resource carried anything
func (d Data) Empty() bool {
	return len(d.Budgets) == 0 &&
		len(d.Incomes) == 0 &&
		len(d.Expenses) == 0 &&
		len(d.SavingsGoals) == 0 &&
		len(d.MonthlySummary) == 0 &&
		len(d.ExpenseCategories) == 0 &&
		d.Summary.IsZero() &&
		len(d.GoalsProgress) == 0
}

// Figure is one summary amount shown in the display currency.
// Estimated means a fallback rate was used; Unavailable means no rate could
// be found and Converted repeats Original.
type Figure struct {
	Field       string
	Original    core.MonetaryAmount
	Converted   core.MonetaryAmount
	Rate        decimal.Decimal
	Estimated   bool
	Unavailable bool
}

// Report is what Load returns
type Report struct {
	Period          Period
	Redirect        bool
	Reason          string
	Outcome         aggregate.Outcome
	Data            Data
	Failed          []string
	NoData          bool
	Notice          string
	DisplayCurrency string
	Figures         []Figure
	FetchedAt       time.Time
}

// Service loads dashboards
type Service struct {
	gate       Gate
	source     Source
	aggregator *aggregate.Aggregator
	converter  *currency.Converter
	sessions   SessionUpdater
	logger     *log.Logger
	now        func() time.Time
}

// Deps are the collaborators of a Service
type Deps struct {
	Gate       Gate
	Source     Source
	Aggregator *aggregate.Aggregator
	Converter  *currency.Converter
	Sessions   SessionUpdater
	Logger     *log.Logger
	Now        func() time.Time
}

// NewService creates a dashboard service
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = log.Discard()
	}
	agg := d.Aggregator
	if agg == nil {
		agg = aggregate.New(0, logger, nil)
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		gate:       d.Gate,
		source:     d.Source,
		aggregator: agg,
		converter:  d.Converter,
		sessions:   d.Sessions,
		logger:     logger.WithComponent(log.ComponentDashboard),
		now:        now,
	}
}

// summaryFields fixes the order figures are reported in
var summaryFields = []string{"totalIncome", "totalExpenses", "totalBudget", "totalSavings", "netCashflow"}

// Load builds the dashboard for period. A Redirect report means the
// session is gone and the caller must send the user to sign in.
func (s *Service) Load(ctx context.Context, period Period) (Report, error) {
	if err := period.Validate(); err != nil {
		return Report{}, err
	}

	decision := s.gate.Enter(ctx)
	if !decision.Proceed() {
		return Report{Period: period, Redirect: true, Reason: decision.Reason}, nil
	}

	res, err := aggregate.Collect(ctx, s.aggregator, decision.Token, func(data *Data) []aggregate.Request {
		return s.requests(data, period)
	})
	if err != nil {
		return Report{}, fmt.Errorf("fetch dashboard: %w", err)
	}
	data := res.Data

	report := Report{
		Period:    period,
		Outcome:   res.Outcome,
		FetchedAt: s.now(),
	}
	for _, f := range res.Failures {
		report.Failed = append(report.Failed, f.Resource)
	}

	if res.Outcome == aggregate.OutcomeAuthRequired {
		s.gate.Expire(ctx, decision.Epoch, auth.ReasonAuthRequired)
		report.Redirect = true
		report.Reason = auth.ReasonAuthRequired
		return report, nil
	}

	report.Data = data
	switch {
	case res.AllFailed() || data.Empty():
		report.NoData = true
		report.Notice = NoDataNotice
	case res.Outcome == aggregate.OutcomePartialFailure:
		report.Notice = PartialNotice
	}

	report.DisplayCurrency = core.NormalizeCurrency(decision.Currency)
	if !data.Summary.IsZero() {
		figures, err := s.convertSummary(ctx, data.Summary, report.DisplayCurrency, decision.Token)
		if core.IsAuthError(err) {
			s.gate.Expire(ctx, decision.Epoch, auth.ReasonAuthRequired)
			return Report{Period: period, Redirect: true, Reason: auth.ReasonAuthRequired, Outcome: aggregate.OutcomeAuthRequired}, nil
		}
		if err != nil {
			return Report{}, err
		}
		report.Figures = figures
	}

	s.logger.InfoContext(ctx, "Dashboard loaded",
		log.FieldOperation, log.OpFetch,
		log.FieldOutcome, report.Outcome.String(),
		log.FieldMonth, period.Month,
		log.FieldYear, period.Year,
		"failed", len(report.Failed))
	return report, nil
}

func (s *Service) requests(data *Data, p Period) []aggregate.Request {
	src := s.source
	return []aggregate.Request{
		aggregate.Bind(api.ResourceBudgets, &data.Budgets, []core.Budget{}, src.Budgets),
		aggregate.Bind(api.ResourceIncomes, &data.Incomes, []core.Income{}, src.Incomes),
		aggregate.Bind(api.ResourceExpenses, &data.Expenses, []core.Expense{}, src.Expenses),
		aggregate.Bind(api.ResourceSavingsGoals, &data.SavingsGoals, []core.SavingsGoal{}, src.SavingsGoals),
		aggregate.Bind(api.ResourceMonthlySummary, &data.MonthlySummary, []core.MonthlySummary{},
			func(ctx context.Context, token string) ([]core.MonthlySummary, error) {
				return src.MonthlySummary(ctx, token, p.Year)
			}),
		aggregate.Bind(api.ResourceExpenseCategories, &data.ExpenseCategories, []core.CategoryExpense{},
			func(ctx context.Context, token string) ([]core.CategoryExpense, error) {
				return src.ExpenseCategories(ctx, token, p.Month, p.Year)
			}),
		aggregate.Bind(api.ResourceFinancialSummary, &data.Summary, core.FinancialSummary{},
			func(ctx context.Context, token string) (core.FinancialSummary, error) {
				return src.FinancialSummary(ctx, token, p.Month, p.Year)
			}),
		aggregate.Bind(api.ResourceSavingsGoalsProgress, &data.GoalsProgress, []core.SavingsGoalProgress{}, src.SavingsGoalsProgress),
	}
}

// convertSummary converts each summary amount. Zero stays zero, negative
// amounts are converted by magnitude, and a pair nobody can price keeps
// the original amount flagged as unavailable.
func (s *Service) convertSummary(ctx context.Context, sum core.FinancialSummary, display, token string) ([]Figure, error) {
	from := core.NormalizeCurrency(sum.Currency)
	if from == "" {
		from = display
	}
	amounts := sum.Amounts()

	figures := make([]Figure, 0, len(summaryFields))
	for _, field := range summaryFields {
		v := amounts[field]
		fig := Figure{
			Field:     field,
			Original:  core.NewAmount(v, from),
			Converted: core.NewAmount(v, from),
			Rate:      decimal.NewFromInt(1),
		}
		if display == "" || from == display || v.IsZero() || s.converter == nil {
			if display != "" && v.IsZero() {
				fig.Converted = core.NewAmount(v, display)
			}
			figures = append(figures, fig)
			continue
		}

		res, err := s.converter.Convert(ctx, v.Abs(), from, display, token)
		var unavailable *core.ConversionUnavailableError
		switch {
		case errors.As(err, &unavailable):
			fig.Unavailable = true
		case err != nil:
			return nil, err
		default:
			converted := res.ConvertedAmount
			if v.IsNegative() {
				converted = converted.Neg()
			}
			fig.Converted = core.NewAmount(converted, display)
			fig.Rate = res.RateUsed
			fig.Estimated = res.SourceWasFallback
		}
		figures = append(figures, fig)
	}
	return figures, nil
}

// ChangeCurrency stores a new display currency on the server and in the
// session. If the session was replaced or cleared meanwhile, the local
// write is refused with session.ErrStaleSession.
func (s *Service) ChangeCurrency(ctx context.Context, code string) error {
	code = core.NormalizeCurrency(code)
	if err := core.ValidateCurrency(code); err != nil {
		return err
	}

	decision := s.gate.Enter(ctx)
	if !decision.Proceed() {
		return &core.AuthError{Op: api.OpChangeCurrency, Err: errors.New(decision.Reason)}
	}

	if err := s.source.ChangeCurrency(ctx, decision.Token, code); err != nil {
		if core.IsAuthError(err) {
			s.gate.Expire(ctx, decision.Epoch, auth.ReasonAuthRequired)
		}
		return err
	}

	if s.sessions == nil {
		return nil
	}
	return s.sessions.UpdateIf(ctx, decision.Epoch, func(sess *session.Session) {
		sess.Currency = code
	})
}
