package currency

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrSuperseded is returned to a conversion whose result arrived after a
// newer request was issued through the same Tracker.
var ErrSuperseded = errors.New("conversion superseded by a newer request")

// Tracker serializes conversions for one input field: each new request
// cancels the one in flight, and only the latest result is delivered.
type Tracker struct {
	conv *Converter

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewTracker creates a tracker over conv
func NewTracker(conv *Converter) *Tracker {
	return &Tracker{conv: conv}
}

// Convert runs a conversion and cancels any earlier one still running.
// A result overtaken by a later call is discarded with ErrSuperseded.
func (t *Tracker) Convert(ctx context.Context, amount decimal.Decimal, from, to, token string) (Result, error) {
	return t.run(ctx, amount, from, to, token, nil)
}

// Apply runs a conversion like Convert and hands its outcome to apply only
// if no newer request was issued meanwhile. apply runs before a newer
// request can start, so a value it writes is never older than one a later
// Apply writes. Apply reports whether apply was called.
func (t *Tracker) Apply(ctx context.Context, amount decimal.Decimal, from, to, token string, apply func(Result, error)) bool {
	_, err := t.run(ctx, amount, from, to, token, apply)
	return !errors.Is(err, ErrSuperseded)
}

func (t *Tracker) run(ctx context.Context, amount decimal.Decimal, from, to, token string, apply func(Result, error)) (Result, error) {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	mine := t.seq
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	t.mu.Unlock()

	res, err := t.conv.Convert(ctx, amount, from, to, token)

	t.mu.Lock()
	defer t.mu.Unlock()
	if mine != t.seq {
		cancel()
		return Result{}, ErrSuperseded
	}
	t.cancel = nil
	cancel()
	if apply != nil {
		apply(res, err)
	}
	return res, err
}

// Cancel aborts the conversion in flight, if any
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.seq++
}
