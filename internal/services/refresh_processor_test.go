package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"alkansya/internal/aggregate"
	"alkansya/internal/amqp"
	"alkansya/internal/auth"
	"alkansya/internal/core"
	"alkansya/internal/dashboard"
	"alkansya/internal/export"
)

type fakeLoader struct {
	mu      sync.Mutex
	calls   int32
	report  dashboard.Report
	err     error
	periods []dashboard.Period
}

func (f *fakeLoader) Load(_ context.Context, p dashboard.Period) (dashboard.Report, error) {
	atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.periods = append(f.periods, p)
	r := f.report
	r.Period = p
	return r, f.err
}

func (f *fakeLoader) Calls() int { return int(atomic.LoadInt32(&f.calls)) }

type fakeExporter struct {
	calls int32
}

func (f *fakeExporter) Export(context.Context, dashboard.Report) (export.Result, error) {
	atomic.AddInt32(&f.calls, 1)
	return export.Result{Destination: export.DestinationCSV}, nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDefaultRefreshProcessorConfig(t *testing.T) {
	config := DefaultRefreshProcessorConfig()
	if config.Interval != 5*time.Minute {
		t.Errorf("expected Interval 5m, got %v", config.Interval)
	}
	if config.ExportOnRefresh {
		t.Error("export should be off by default")
	}

	p := NewRefreshProcessor(&fakeLoader{}, nil, RefreshProcessorConfig{}, nil)
	if p.config.Interval != 5*time.Minute {
		t.Errorf("zero interval should take the default, got %v", p.config.Interval)
	}
}

func TestRefreshProcessor_RefreshOnce(t *testing.T) {
	loader := &fakeLoader{report: dashboard.Report{Outcome: aggregate.OutcomeOK}}
	exp := &fakeExporter{}
	p := NewRefreshProcessor(loader, exp, RefreshProcessorConfig{Interval: time.Hour, ExportOnRefresh: true}, nil)
	p.now = func() time.Time { return time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC) }

	if _, ok := p.Latest(); ok {
		t.Fatal("snapshot before any refresh")
	}

	snap := p.RefreshOnce(context.Background())
	if snap.Err != nil || snap.Refreshes != 1 {
		t.Errorf("snapshot = %+v", snap)
	}
	if got := loader.periods[0]; got != (dashboard.Period{Month: 3, Year: 2025}) {
		t.Errorf("period = %+v", got)
	}
	if atomic.LoadInt32(&exp.calls) != 1 {
		t.Errorf("export calls = %d", exp.calls)
	}

	latest, ok := p.Latest()
	if !ok || latest.Report.Outcome != aggregate.OutcomeOK {
		t.Errorf("latest = %+v, %v", latest, ok)
	}
}

func TestRefreshProcessor_NoExportOnRedirectOrError(t *testing.T) {
	tests := []struct {
		name   string
		loader *fakeLoader
	}{
		{"redirect", &fakeLoader{report: dashboard.Report{Redirect: true, Reason: auth.ReasonNoToken}}},
		{"error", &fakeLoader{err: errors.New("boom")}},
		{"no data", &fakeLoader{report: dashboard.Report{NoData: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := &fakeExporter{}
			p := NewRefreshProcessor(tt.loader, exp, RefreshProcessorConfig{Interval: time.Hour, ExportOnRefresh: true}, nil)
			p.RefreshOnce(context.Background())
			if exp.calls != 0 {
				t.Errorf("export calls = %d, want 0", exp.calls)
			}
			if _, ok := p.Latest(); !ok {
				t.Error("failed refresh should still be recorded")
			}
		})
	}
}

func TestRefreshProcessor_StartStop(t *testing.T) {
	loader := &fakeLoader{}
	p := NewRefreshProcessor(loader, nil, RefreshProcessorConfig{Interval: time.Hour}, nil)

	if p.IsRunning() {
		t.Error("processor should not be running initially")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(ctx); err == nil {
		t.Error("expected error when starting already running processor")
	}

	// refreshes immediately on startup
	waitFor(t, func() bool { return loader.Calls() >= 1 })

	p.Trigger()
	waitFor(t, func() bool { return loader.Calls() >= 2 })

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.IsRunning() {
		t.Error("processor still running after Stop")
	}
}

func TestRefreshProcessor_StopNotRunning(t *testing.T) {
	p := NewRefreshProcessor(&fakeLoader{}, nil, DefaultRefreshProcessorConfig(), nil)
	if err := p.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestRefreshProcessor_HandleSessionEvent(t *testing.T) {
	p := NewRefreshProcessor(&fakeLoader{}, nil, DefaultRefreshProcessorConfig(), nil)
	ctx := context.Background()
	p.RefreshOnce(ctx)

	if err := p.HandleSessionEvent(ctx, amqp.NewSessionEventMessage(auth.EventExpired, "u1", "")); err != nil {
		t.Fatal(err)
	}
	if _, ok := p.Latest(); ok {
		t.Error("expired session should drop the snapshot")
	}

	if err := p.HandleSessionEvent(ctx, amqp.NewSessionEventMessage(auth.EventLogin, "u1", "")); err != nil {
		t.Fatal(err)
	}
	select {
	case <-p.kickCh:
	default:
		t.Error("login should trigger a refresh")
	}

	if err := p.HandleSessionEvent(ctx, amqp.NewSessionEventMessage("session.unknown", "", "")); err != nil {
		t.Errorf("unknown events are ignored, got %v", err)
	}
}

// blockingLoader holds Load until release is closed
type blockingLoader struct {
	started chan struct{}
	release chan struct{}
	report  dashboard.Report
}

func (b *blockingLoader) Load(ctx context.Context, p dashboard.Period) (dashboard.Report, error) {
	close(b.started)
	<-b.release
	r := b.report
	r.Period = p
	return r, nil
}

func TestRefreshProcessor_LogoutDuringLoadDropsResult(t *testing.T) {
	for _, event := range []string{auth.EventLogout, auth.EventExpired} {
		t.Run(event, func(t *testing.T) {
			loader := &blockingLoader{
				started: make(chan struct{}),
				release: make(chan struct{}),
				report: dashboard.Report{
					Outcome: aggregate.OutcomeOK,
					Data:    dashboard.Data{Budgets: []core.Budget{{ID: 1, Category: "old-user"}}},
				},
			}
			exp := &fakeExporter{}
			p := NewRefreshProcessor(loader, exp, RefreshProcessorConfig{Interval: time.Hour, ExportOnRefresh: true}, nil)

			done := make(chan Snapshot)
			go func() { done <- p.RefreshOnce(context.Background()) }()

			<-loader.started
			if err := p.HandleSessionEvent(context.Background(), &amqp.SessionEventMessage{Event: event}); err != nil {
				t.Fatal(err)
			}
			close(loader.release)
			<-done

			if snap, ok := p.Latest(); ok {
				t.Errorf("stale dashboard kept after %s: %+v", event, snap.Report.Data.Budgets)
			}
			if atomic.LoadInt32(&exp.calls) != 0 {
				t.Error("stale dashboard should not be exported")
			}

			// the next refresh in the new generation is stored again
			loader.started = make(chan struct{})
			p.RefreshOnce(context.Background())
			if _, ok := p.Latest(); !ok {
				t.Error("refresh after the reset should be stored")
			}
		})
	}
}
