package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"alkansya/internal/cli"
	apphttp "alkansya/internal/http"
	"alkansya/internal/log"
	"alkansya/internal/services"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(cli.SetupLogger("info", "text"))
	if err != nil {
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentWorker)
	logger.Info("Starting alkansya-watch", log.FieldOperation, log.OpStartup)

	app, err := cli.Wire(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", log.FieldError, err.Error())
		os.Exit(1)
	}

	proc := services.NewRefreshProcessor(app.Dashboard, app.Exporter, services.RefreshProcessorConfig{
		Interval:        cfg.WatchInterval,
		ExportOnRefresh: cfg.WatchExport,
	}, logger)

	srv := apphttp.NewServer(":"+cfg.WatchPort, apphttp.Deps{
		Snapshots: proc,
		Loader:    app.Dashboard,
		Gatherer:  app.Registry,
		Logger:    logger,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", log.FieldError, err.Error())
		}
		if err := proc.Stop(shutdownCtx); err != nil {
			logger.Warn("Refresh processor stop failed", log.FieldError, err.Error())
		}
		if err := app.Close(); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err.Error())
		}
	})

	if err := proc.Start(ctx); err != nil {
		logger.Error("Failed to start refresh processor", log.FieldError, err.Error())
		os.Exit(1)
	}

	if app.Events != nil {
		go func() {
			if err := app.Events.ConsumeSessionEvents(ctx, proc.HandleSessionEvent); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Session event consumption failed", log.FieldError, err.Error())
			}
		}()
	} else {
		logger.Info("Session events disabled, relying on the refresh interval")
	}

	go func() {
		logger.Info("Watch server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", log.FieldError, err.Error())
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(ctx, done)
}
