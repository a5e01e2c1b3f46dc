package aggregate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"alkansya/internal/core"
	"alkansya/internal/log"
)

func ok[T any](v T, delay time.Duration) func(context.Context, string) (T, error) {
	return func(ctx context.Context, _ string) (T, error) {
		time.Sleep(delay)
		return v, nil
	}
}

func fail[T any](err error) func(context.Context, string) (T, error) {
	return func(context.Context, string) (T, error) {
		var zero T
		return zero, err
	}
}

func TestFetchAll_Outcomes(t *testing.T) {
	authErr := &core.AuthError{Op: "budgets", Status: 401}
	timeout := &core.TransientDataError{Op: "incomes", Err: context.DeadlineExceeded}

	tests := []struct {
		name        string
		budgetsErr  error
		incomesErr  error
		want        Outcome
		wantFailed  []string
		wantIncomes []int
	}{
		{"all ok", nil, nil, OutcomeOK, nil, []int{1, 2}},
		{"one timeout", nil, timeout, OutcomePartialFailure, []string{"incomes"}, []int{}},
		{"one auth", authErr, nil, OutcomeAuthRequired, []string{"budgets"}, []int{}},
		{"auth beats transient", authErr, timeout, OutcomeAuthRequired, []string{"budgets", "incomes"}, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			budgets := []string{"stale"}
			incomes := []int{99}
			goals := ""

			budgetFetch := ok([]string{"food"}, 0)
			if tt.budgetsErr != nil {
				budgetFetch = fail[[]string](tt.budgetsErr)
			}
			incomeFetch := ok([]int{1, 2}, 0)
			if tt.incomesErr != nil {
				incomeFetch = fail[[]int](tt.incomesErr)
			}

			a := New(0, nil, nil)
			report, err := a.FetchAll(context.Background(), "tok",
				Bind("budgets", &budgets, []string{}, budgetFetch),
				Bind("incomes", &incomes, []int{}, incomeFetch),
				Bind("goals", &goals, "", ok("save", 0)),
			)
			if err != nil {
				t.Fatalf("FetchAll: %v", err)
			}
			if report.Outcome != tt.want {
				t.Errorf("Outcome = %s, want %s", report.Outcome, tt.want)
			}
			for _, name := range tt.wantFailed {
				if !report.Failed(name) {
					t.Errorf("%s should be reported failed", name)
				}
			}
			if len(report.Failures) != len(tt.wantFailed) {
				t.Errorf("failures = %d, want %d", len(report.Failures), len(tt.wantFailed))
			}
			if len(incomes) != len(tt.wantIncomes) {
				t.Errorf("incomes = %v, want %v", incomes, tt.wantIncomes)
			}
			if tt.want == OutcomeAuthRequired && goals != "" {
				t.Errorf("successful data kept after auth failure: goals = %q", goals)
			}
			if tt.want == OutcomePartialFailure && goals != "save" {
				t.Errorf("goals = %q, want save", goals)
			}
		})
	}
}

func TestFetchAll_NoShortCircuit(t *testing.T) {
	var finished atomic.Int32
	slow := func(ctx context.Context, _ string) (int, error) {
		time.Sleep(30 * time.Millisecond)
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		finished.Add(1)
		return 1, nil
	}

	var a1, a2, a3 int
	report, err := New(0, nil, nil).FetchAll(context.Background(), "tok",
		Bind("fails", &a1, 0, fail[int](&core.AuthError{Op: "fails", Status: 403})),
		Bind("slow1", &a2, 0, slow),
		Bind("slow2", &a3, 0, slow),
	)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if finished.Load() != 2 {
		t.Errorf("finished = %d, want 2: failures must not cancel siblings", finished.Load())
	}
	if len(report.Succeeded) != 2 {
		t.Errorf("succeeded = %v", report.Succeeded)
	}
}

func TestFetchAll_RunsConcurrently(t *testing.T) {
	var a, b, c int
	start := time.Now()
	_, err := New(0, nil, nil).FetchAll(context.Background(), "tok",
		Bind("a", &a, 0, ok(1, 50*time.Millisecond)),
		Bind("b", &b, 0, ok(2, 50*time.Millisecond)),
		Bind("c", &c, 0, ok(3, 50*time.Millisecond)),
	)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 140*time.Millisecond {
		t.Errorf("took %v, requests did not run concurrently", elapsed)
	}
	if a != 1 || b != 2 || c != 3 {
		t.Errorf("values = %d %d %d", a, b, c)
	}
}

func TestFetchAll_AllFailed(t *testing.T) {
	var x, y []int
	boom := &core.TransientDataError{Op: "x", Status: 500}
	report, err := New(2, nil, nil).FetchAll(context.Background(), "tok",
		Bind("x", &x, []int{}, fail[[]int](boom)),
		Bind("y", &y, []int{}, fail[[]int](errors.New("plain error"))),
	)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if !report.AllFailed() || report.Outcome != OutcomePartialFailure {
		t.Errorf("report = %+v", report)
	}
	if x == nil || y == nil {
		t.Error("failed destinations should hold their empty default, not nil")
	}
}

func TestFetchAll_PanicIsTransient(t *testing.T) {
	var v int
	report, err := New(0, nil, nil).FetchAll(context.Background(), "tok",
		Bind("boom", &v, -1, func(context.Context, string) (int, error) { panic("kaboom") }),
	)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if report.Outcome != OutcomePartialFailure || !core.IsTransient(report.Failures[0].Err) {
		t.Errorf("report = %+v", report)
	}
	if v != -1 {
		t.Errorf("v = %d, want empty default -1", v)
	}
}

func TestFetchAll_InvalidRequests(t *testing.T) {
	var a, b int
	_, err := New(0, nil, nil).FetchAll(context.Background(), "tok",
		Bind("same", &a, 0, ok(1, 0)),
		Bind("same", &b, 0, ok(2, 0)),
	)
	if err == nil {
		t.Error("expected error for duplicate names")
	}

	_, err = New(0, nil, nil).FetchAll(context.Background(), "tok", Bind("", &a, 0, ok(1, 0)))
	if !errors.Is(err, core.ErrValidation) {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestFetchAll_PassesToken(t *testing.T) {
	var got string
	_, err := New(0, nil, nil).FetchAll(context.Background(), "secret",
		Bind("t", &got, "", func(_ context.Context, token string) (string, error) { return token, nil }),
	)
	if err != nil || got != "secret" {
		t.Errorf("got %q, err %v", got, err)
	}
}

func TestFetchAll_LogsEachFailureWithResource(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Handler: slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})})

	var a, b int
	_, err := New(0, logger, nil).FetchAll(context.Background(), "tok",
		Bind("budgets", &a, 0, fail[int](&core.TransientDataError{Op: "budgets", Status: 502})),
		Bind("expenses", &b, 0, fail[int](&core.TransientDataError{Op: "expenses", Status: 504})),
	)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}

	out := buf.String()
	for _, name := range []string{`"resource":"budgets"`, `"resource":"expenses"`} {
		if !strings.Contains(out, name) {
			t.Errorf("log output missing %s:\n%s", name, out)
		}
	}
}

type overview struct {
	Budgets []string
	Total   int
}

func TestCollect(t *testing.T) {
	authErr := &core.AuthError{Op: "total", Status: 401}
	tests := []struct {
		name     string
		totalErr error
		want     overview
		outcome  Outcome
	}{
		{"all ok", nil, overview{Budgets: []string{"food"}, Total: 42}, OutcomeOK},
		{"one transient", errors.New("boom"), overview{Budgets: []string{"food"}, Total: -1}, OutcomePartialFailure},
		{"auth clears everything", authErr, overview{Budgets: []string{}, Total: -1}, OutcomeAuthRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := ok(42, 0)
			if tt.totalErr != nil {
				total = fail[int](tt.totalErr)
			}
			res, err := Collect(context.Background(), New(0, nil, nil), "tok", func(o *overview) []Request {
				return []Request{
					Bind("budgets", &o.Budgets, []string{}, ok([]string{"food"}, 0)),
					Bind("total", &o.Total, -1, total),
				}
			})
			if err != nil {
				t.Fatalf("Collect: %v", err)
			}
			if res.Outcome != tt.outcome {
				t.Errorf("outcome = %s, want %s", res.Outcome, tt.outcome)
			}
			if res.Data.Total != tt.want.Total || len(res.Data.Budgets) != len(tt.want.Budgets) {
				t.Errorf("data = %+v, want %+v", res.Data, tt.want)
			}
			if (tt.totalErr != nil) != res.Failed("total") {
				t.Errorf("Failed(total) = %v", res.Failed("total"))
			}
		})
	}
}

func TestCollect_InvalidRequests(t *testing.T) {
	_, err := Collect(context.Background(), New(0, nil, nil), "tok", func(o *overview) []Request {
		return []Request{
			Bind("x", &o.Total, 0, ok(1, 0)),
			Bind("x", &o.Total, 0, ok(2, 0)),
		}
	})
	if err == nil {
		t.Error("duplicate names should fail")
	}
}

func TestOutcome_String(t *testing.T) {
	if OutcomeAuthRequired.String() != "auth_required" || OutcomeOK.String() != "ok" {
		t.Error("unexpected outcome names")
	}
}
