// Package aggregate fetches independent remote resources concurrently and
// merges their outcomes.
//
// Every request runs to completion; one failure never cancels the others.
// A failed resource is replaced by its typed empty default, and the overall
// outcome is AuthRequired if any failure was an auth failure, otherwise
// PartialFailure if anything failed, otherwise OK.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"alkansya/internal/core"
	"alkansya/internal/log"
	"alkansya/internal/metrics"
)

// Outcome is the merged result of a FetchAll
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomePartialFailure
	OutcomeAuthRequired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomePartialFailure:
		return "partial_failure"
	case OutcomeAuthRequired:
		return "auth_required"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Request is one named resource bound to its destination
type Request struct {
	name  string
	fetch func(ctx context.Context, token string) (commit func(), err error)
	reset func()
}

// Name returns the resource name
func (r Request) Name() string { return r.name }

// Bind ties a fetch to dst. On success dst receives the fetched value; on
// failure it receives empty. dst is only written after every request has
// settled, from the calling goroutine.
func Bind[T any](name string, dst *T, empty T, fetch func(ctx context.Context, token string) (T, error)) Request {
	return Request{
		name: name,
		fetch: func(ctx context.Context, token string) (func(), error) {
			v, err := fetch(ctx, token)
			if err != nil {
				return nil, err
			}
			return func() { *dst = v }, nil
		},
		reset: func() { *dst = empty },
	}
}

// Failure records one failed resource
type Failure struct {
	Resource string
	Err      error
}

// Auth reports whether the failure requires re-authentication
func (f Failure) Auth() bool { return core.IsAuthError(f.Err) }

// Report is what FetchAll hands back
type Report struct {
	Outcome   Outcome
	Total     int
	Succeeded []string
	Failures  []Failure
	Duration  time.Duration
}

// AllFailed reports whether every request failed
func (r Report) AllFailed() bool {
	return r.Total > 0 && len(r.Failures) == r.Total
}

// Failed reports whether the named resource failed
func (r Report) Failed(name string) bool {
	for _, f := range r.Failures {
		if f.Resource == name {
			return true
		}
	}
	return false
}

// Err returns the first auth failure, or nil
func (r Report) Err() error {
	for _, f := range r.Failures {
		if f.Auth() {
			return f.Err
		}
	}
	return nil
}

// Aggregator runs request sets
type Aggregator struct {
	limit      int
	logger     *log.Logger
	structured *log.StructuredLogger
	metrics    metrics.Recorder
}

// New creates an aggregator. limit caps concurrent fetches; 0 runs all at once.
func New(limit int, logger *log.Logger, rec metrics.Recorder) *Aggregator {
	if logger == nil {
		logger = log.Discard()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	logger = logger.WithComponent(log.ComponentAggregate)
	return &Aggregator{
		limit:      limit,
		logger:     logger,
		structured: log.NewStructuredLogger(logger),
		metrics:    rec,
	}
}

var errDuplicate = errors.New("duplicate resource name")

type slot struct {
	commit func()
	err    error
}

// FetchAll runs every request concurrently and waits for all of them.
// The error is non-nil only when the request set itself is invalid.
//
// With OutcomeAuthRequired every destination is reset to its empty default,
// since data fetched under a dead session must not be shown.
func (a *Aggregator) FetchAll(ctx context.Context, token string, reqs ...Request) (Report, error) {
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		if r.name == "" {
			return Report{}, &core.ValidationError{Field: "resource", Message: "name is required"}
		}
		if _, dup := seen[r.name]; dup {
			return Report{}, fmt.Errorf("%w: %s", errDuplicate, r.name)
		}
		seen[r.name] = struct{}{}
	}

	start := time.Now()
	slots := make([]slot, len(reqs))

	var g errgroup.Group
	if a.limit > 0 {
		g.SetLimit(a.limit)
	}
	for i, r := range reqs {
		g.Go(func() error {
			slots[i] = a.run(ctx, token, r)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Total: len(reqs), Duration: time.Since(start)}
	for i, r := range reqs {
		s := slots[i]
		if s.err != nil {
			report.Failures = append(report.Failures, Failure{Resource: r.name, Err: s.err})
			kind := errorKind(s.err)
			a.structured.LogResourceFailure(ctx, r.name, kind, s.err)
			a.metrics.RecordResourceFailure(r.name, kind)
			r.reset()
			continue
		}
		report.Succeeded = append(report.Succeeded, r.name)
		s.commit()
	}

	report.Outcome = outcomeOf(report.Failures)
	if report.Outcome == OutcomeAuthRequired {
		for _, r := range reqs {
			r.reset()
		}
	}

	a.metrics.RecordAggregate(report.Outcome.String(), report.Duration)
	a.logger.DebugContext(ctx, "Aggregate fetch settled",
		log.FieldOutcome, report.Outcome.String(),
		log.FieldDuration, report.Duration.Milliseconds(),
		"failed", len(report.Failures),
		"total", report.Total)
	return report, nil
}

// Result is a value assembled from several resources together with the
// report of how their fetches went.
type Result[T any] struct {
	Data T
	Report
}

// Collect fetches into a fresh T. build binds one request per field of the
// T it is given. Failed fields hold their empty defaults, and with
// OutcomeAuthRequired every field does.
func Collect[T any](ctx context.Context, a *Aggregator, token string, build func(dst *T) []Request) (Result[T], error) {
	var res Result[T]
	report, err := a.FetchAll(ctx, token, build(&res.Data)...)
	if err != nil {
		return Result[T]{}, err
	}
	res.Report = report
	return res, nil
}

func (a *Aggregator) run(ctx context.Context, token string, r Request) (s slot) {
	defer func() {
		if p := recover(); p != nil {
			s = slot{err: &core.TransientDataError{Op: r.name, Err: fmt.Errorf("panic: %v", p)}}
		}
	}()
	commit, err := r.fetch(ctx, token)
	if err == nil && commit == nil {
		err = &core.TransientDataError{Op: r.name, Err: errors.New("fetch returned no value")}
	}
	return slot{commit: commit, err: err}
}

func outcomeOf(failures []Failure) Outcome {
	out := OutcomeOK
	for _, f := range failures {
		if f.Auth() {
			return OutcomeAuthRequired
		}
		out = OutcomePartialFailure
	}
	return out
}

func errorKind(err error) string {
	switch {
	case core.IsAuthError(err):
		return log.ErrorTypeAuth
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return log.ErrorTypeNetwork
	default:
		return log.ErrorTypeTransient
	}
}
