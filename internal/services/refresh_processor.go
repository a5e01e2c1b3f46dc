package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"alkansya/internal/amqp"
	"alkansya/internal/auth"
	"alkansya/internal/dashboard"
	"alkansya/internal/export"
	"alkansya/internal/log"
)

// DashboardLoader loads the dashboard for a period
type DashboardLoader interface {
	Load(ctx context.Context, period dashboard.Period) (dashboard.Report, error)
}

// DashboardExporter writes a loaded dashboard somewhere
type DashboardExporter interface {
	Export(ctx context.Context, report dashboard.Report) (export.Result, error)
}

// RefreshProcessorConfig holds configuration for the refresh processor
type RefreshProcessorConfig struct {
	// Interval is how often the dashboard is reloaded (default: 5m)
	Interval time.Duration

	// ExportOnRefresh exports every successful refresh that carries data
	ExportOnRefresh bool
}

// DefaultRefreshProcessorConfig returns sensible defaults
func DefaultRefreshProcessorConfig() RefreshProcessorConfig {
	return RefreshProcessorConfig{
		Interval: 5 * time.Minute,
	}
}

// Snapshot is the outcome of the latest refresh
type Snapshot struct {
	Report      dashboard.Report
	Err         error
	RefreshedAt time.Time
	Refreshes   int64
}

// RefreshProcessor reloads the dashboard on an interval and keeps the latest result
type RefreshProcessor struct {
	loader   DashboardLoader
	exporter DashboardExporter
	config   RefreshProcessorConfig
	logger   *log.Logger
	now      func() time.Time

	snapMu    sync.RWMutex
	snapshot  Snapshot
	hasResult bool
	// generation is bumped by Reset; a refresh that started in an older
	// generation is discarded
	generation uint64

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	kickCh  chan struct{}
}

// NewRefreshProcessor creates a new refresh processor. exporter may be nil.
func NewRefreshProcessor(loader DashboardLoader, exporter DashboardExporter, config RefreshProcessorConfig, logger *log.Logger) *RefreshProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultRefreshProcessorConfig().Interval
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &RefreshProcessor{
		loader:   loader,
		exporter: exporter,
		config:   config,
		logger:   logger.WithComponent(log.ComponentWorker),
		now:      time.Now,
		kickCh:   make(chan struct{}, 1),
	}
}

// Start begins the refresh loop. Returns an error if already running.
func (p *RefreshProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("refresh processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	p.logger.InfoContext(ctx, "Refresh processor started",
		"interval", p.config.Interval,
		"export", p.config.ExportOnRefresh)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *RefreshProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		p.logger.InfoContext(ctx, "Refresh processor stopped gracefully")
	case <-ctx.Done():
		p.logger.WarnContext(ctx, "Refresh processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *RefreshProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Trigger asks the loop for an immediate refresh. Extra triggers coalesce.
func (p *RefreshProcessor) Trigger() {
	select {
	case p.kickCh <- struct{}{}:
	default:
	}
}

// Latest returns the most recent snapshot, if any refresh completed
func (p *RefreshProcessor) Latest() (Snapshot, bool) {
	p.snapMu.RLock()
	defer p.snapMu.RUnlock()
	return p.snapshot, p.hasResult
}

// Reset drops the stored snapshot
func (p *RefreshProcessor) Reset() {
	p.snapMu.Lock()
	defer p.snapMu.Unlock()
	p.snapshot = Snapshot{Refreshes: p.snapshot.Refreshes}
	p.hasResult = false
	p.generation++
}

func (p *RefreshProcessor) currentGeneration() uint64 {
	p.snapMu.RLock()
	defer p.snapMu.RUnlock()
	return p.generation
}

// HandleSessionEvent reacts to session lifecycle events: a login triggers a
// refresh, a logout or expiry drops the stored dashboard.
func (p *RefreshProcessor) HandleSessionEvent(ctx context.Context, msg *amqp.SessionEventMessage) error {
	switch msg.Event {
	case auth.EventLogin:
		p.Trigger()
	case auth.EventLogout, auth.EventExpired:
		p.Reset()
	default:
		p.logger.DebugContext(ctx, "Ignoring session event", "event", msg.Event)
		return nil
	}
	p.logger.InfoContext(ctx, "Handled session event",
		"event", msg.Event,
		log.FieldUserID, msg.UserID)
	return nil
}

func (p *RefreshProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	// Refresh immediately on startup
	p.RefreshOnce(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RefreshOnce(ctx)
		case <-p.kickCh:
			p.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce loads the current month and stores the result. If the
// session ended while the load was in flight, the result is dropped and
// the returned snapshot is not stored.
func (p *RefreshProcessor) RefreshOnce(ctx context.Context) Snapshot {
	start := p.now()
	period := dashboard.CurrentPeriod(start)
	gen := p.currentGeneration()

	report, err := p.loader.Load(ctx, period)
	if p.currentGeneration() != gen {
		p.logger.InfoContext(ctx, "Dropping dashboard refresh for an ended session",
			log.FieldOperation, log.OpRefresh,
			"period", period.String())
		return Snapshot{Report: report, Err: err, RefreshedAt: p.now()}
	}

	switch {
	case err != nil:
		p.logger.ErrorContext(ctx, "Dashboard refresh failed",
			log.FieldOperation, log.OpRefresh,
			log.FieldError, err.Error())
	case report.Redirect:
		p.logger.WarnContext(ctx, "Dashboard refresh needs sign in",
			log.FieldOperation, log.OpRefresh,
			log.FieldReason, report.Reason)
	default:
		p.logger.InfoContext(ctx, "Dashboard refreshed",
			log.FieldOperation, log.OpRefresh,
			log.FieldOutcome, report.Outcome.String(),
			"period", period.String(),
			log.FieldDuration, p.now().Sub(start).Milliseconds())
		if p.config.ExportOnRefresh && p.exporter != nil && !report.NoData {
			if res, xerr := p.exporter.Export(ctx, report); xerr != nil {
				p.logger.ErrorContext(ctx, "Dashboard export failed",
					log.FieldOperation, log.OpExport,
					log.FieldError, xerr.Error())
			} else {
				p.logger.InfoContext(ctx, "Dashboard exported",
					log.FieldOperation, log.OpExport,
					"destination", res.Destination)
			}
		}
	}

	p.snapMu.Lock()
	defer p.snapMu.Unlock()
	if p.generation != gen {
		return Snapshot{Report: report, Err: err, RefreshedAt: p.now()}
	}
	p.snapshot = Snapshot{
		Report:      report,
		Err:         err,
		RefreshedAt: p.now(),
		Refreshes:   p.snapshot.Refreshes + 1,
	}
	p.hasResult = true
	return p.snapshot
}
