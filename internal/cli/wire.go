package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/shopspring/decimal"

	"alkansya/internal/aggregate"
	"alkansya/internal/amqp"
	"alkansya/internal/api"
	"alkansya/internal/auth"
	"alkansya/internal/backend"
	"alkansya/internal/cache"
	"alkansya/internal/config"
	"alkansya/internal/currency"
	"alkansya/internal/dashboard"
	"alkansya/internal/export"
	"alkansya/internal/log"
	"alkansya/internal/metrics"
	"alkansya/internal/session"
	ports "alkansya/internal/sheets"
	"alkansya/internal/sheets/google"
)

// App is the assembled client core
type App struct {
	Config     *config.Config
	Logger     *log.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Collector
	API        *api.Client
	Sessions   *session.Manager
	Validator  *auth.Validator
	Gate       *auth.Gate
	Converter  *currency.Converter
	Tracker    *currency.Tracker
	Rates      *currency.Board
	Aggregator *aggregate.Aggregator
	Dashboard  *dashboard.Service
	Exporter   *export.Service

	// Events is nil unless AMQP_URL is set and the broker was reachable
	Events *amqp.Client

	caches   *cache.Manager
	cleanups []func() error
}

// Wire assembles every component from cfg. Optional integrations (AMQP,
// Google Sheets) that fail to initialize are logged and left out.
func Wire(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	app := &App{Config: cfg, Logger: logger}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = metrics.NewCollector(app.Registry)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	if store.Cleanup != nil {
		app.cleanups = append(app.cleanups, store.Cleanup)
	}
	app.Sessions = session.NewManager(store.Store)

	app.API, err = api.New(api.Config{
		BaseURL:      cfg.APIBaseURL,
		ValidatePath: cfg.ValidatePath,
		Timeout:      cfg.HTTPTimeout,
		RateLimit:    cfg.APIRateLimit,
		RateBurst:    cfg.APIRateBurst,
		Metrics:      app.Metrics,
	}, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Validator = auth.NewValidator(app.API, cfg.TokenClockSkew, logger)

	gateOpts := []auth.GateOption{
		auth.WithAuthenticator(app.API),
		auth.WithMetrics(app.Metrics),
	}
	if cfg.HasAMQP() {
		events, err := amqp.NewClient(amqp.Config{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Queue:    cfg.AMQPQueue,
		}, logger)
		if err != nil {
			logger.Warn("Session events disabled, AMQP broker unreachable", log.FieldError, err.Error())
		} else {
			app.Events = events
			app.cleanups = append(app.cleanups, events.Close)
			gateOpts = append(gateOpts, auth.WithEvents(events))
		}
	}
	app.Gate = auth.NewGate(app.Sessions, app.Validator, logger, gateOpts...)

	table, err := fallbackTable(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	convOpts := []currency.Option{currency.WithMetrics(app.Metrics)}
	if cfg.RateCacheTTL > 0 {
		rateCache := cache.NewLRUCache[decimal.Decimal](cfg.RateCacheSize, cfg.RateCacheTTL)
		app.caches = cache.NewManager(logger)
		app.caches.Register(rateCache)
		app.caches.StartCleanup(cleanupInterval(cfg.RateCacheTTL))
		convOpts = append(convOpts, currency.WithRateCache(rateCache))
	}
	app.Converter = currency.NewConverter(app.API, table, logger, convOpts...)
	app.Tracker = currency.NewTracker(app.Converter)
	app.Rates = currency.NewBoard(app.API, table)

	app.Aggregator = aggregate.New(cfg.AggregateConcurrency, logger, app.Metrics)
	app.Dashboard = dashboard.NewService(dashboard.Deps{
		Gate:       app.Gate,
		Source:     app.API,
		Aggregator: app.Aggregator,
		Converter:  app.Converter,
		Sessions:   app.Sessions,
		Logger:     logger,
	})

	var sheetsWriter ports.TableWriter
	if cfg.HasSheetsExport() {
		client, err := google.NewFromOptions(ctx, google.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
			OAuthClientJSON: cfg.GoogleOAuthClientJSON,
			OAuthClientFile: cfg.GoogleOAuthClientFile,
			OAuthTokenFile:  cfg.GoogleOAuthTokenFile,
		}, logger)
		if err != nil {
			logger.Warn("Google Sheets export disabled, writing CSV only", log.FieldError, err.Error())
		} else {
			sheetsWriter = client
		}
	}
	var csvWriter ports.TableWriter
	if cfg.ExportDir != "" {
		csvWriter = export.NewCSVWriter(cfg.ExportDir)
	}
	app.Exporter = export.NewService(sheetsWriter, csvWriter, logger)

	logger.Info("Client core assembled",
		log.FieldOperation, log.OpStartup,
		log.FieldBackend, cfg.SessionBackend,
		"api", cfg.APIBaseURL,
		"fallback_currencies", table.Len(),
		"session_events", app.Events != nil,
		"sheets_export", sheetsWriter != nil)
	return app, nil
}

func fallbackTable(cfg *config.Config) (currency.FallbackTable, error) {
	if cfg.FallbackRates == "" {
		return currency.DefaultFallbackTable(), nil
	}
	table, err := currency.ParseFallbackTable(cfg.FallbackRates)
	if err != nil {
		return currency.FallbackTable{}, fmt.Errorf("FALLBACK_RATES: %w", err)
	}
	return table, nil
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return time.Minute
	}
	return ttl
}

// Close releases the session store, broker connection and cache janitor
func (a *App) Close() error {
	if a.caches != nil {
		a.caches.Stop()
	}
	if a.Tracker != nil {
		a.Tracker.Cancel()
	}
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.cleanups = nil
	return errors.Join(errs...)
}
