package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/config"
	"github.com/aleister1102/pagemonitor/internal/datastore"
	"github.com/aleister1102/pagemonitor/internal/extractor"
	"github.com/aleister1102/pagemonitor/internal/fetcher"
	"github.com/aleister1102/pagemonitor/internal/logger"
	"github.com/aleister1102/pagemonitor/internal/metrics"
	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/aleister1102/pagemonitor/internal/monitor"
	"github.com/aleister1102/pagemonitor/internal/notifier"
	"github.com/aleister1102/pagemonitor/internal/urlhandler"

	"github.com/rs/zerolog"
)

// application holds everything a subcommand needs once configuration is loaded.
type application struct {
	cfg     *config.GlobalConfig
	logger  zerolog.Logger
	service *monitor.Service
	store   *datastore.SQLiteSnapshotStore
	metrics *metrics.Recorder
	closers []func() error
}

// loadConfig reads, overrides and validates the configuration, then builds
// the application logger.
func loadConfig(opts *rootOptions) (*config.GlobalConfig, zerolog.Logger, error) {
	bootstrap := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	cfg, err := config.LoadGlobalConfig(opts.configPath, bootstrap)
	if err != nil {
		return nil, bootstrap, common.WrapError(err, "could not load global config")
	}
	if opts.targetsFile != "" {
		cfg.MonitorConfig.TargetsFile = opts.targetsFile
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, bootstrap, err
	}

	zLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, bootstrap, common.WrapError(err, "could not initialize logger")
	}
	return cfg, zLogger, nil
}

// newApplication wires the monitor service from the configuration.
func newApplication(opts *rootOptions) (*application, error) {
	cfg, zLogger, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	app := &application{cfg: cfg, logger: zLogger}

	f, err := fetcher.NewBuilder(zLogger).
		WithTimeout(cfg.MonitorConfig.HTTPTimeout()).
		WithUserAgent(cfg.MonitorConfig.UserAgent).
		WithRequestDelay(cfg.MonitorConfig.RequestDelay()).
		WithMaxContentSize(int(cfg.MonitorConfig.MaxContentSize)).
		WithInsecureSkipVerify(cfg.MonitorConfig.InsecureSkipVerify).
		Build()
	if err != nil {
		return nil, common.WrapError(err, "failed to create fetcher")
	}

	store, err := datastore.NewSQLiteSnapshotStore(cfg.StorageConfig.SnapshotDBPath, zLogger)
	if err != nil {
		return nil, common.WrapError(err, "failed to open snapshot store")
	}
	app.store = store
	app.closers = append(app.closers, store.Close)

	deps := monitor.Dependencies{
		Fetcher:   f,
		Extractor: extractor.NewExtractor(extractorOptions(cfg.ExtractorConfig), zLogger),
		Store:     store,
		History:   store,
	}

	if cfg.StorageConfig.ArchiveDir != "" {
		archive, err := datastore.NewChangeArchive(cfg.StorageConfig.ArchiveDir, cfg.StorageConfig.CompressionCodec, zLogger)
		if err != nil {
			app.Close()
			return nil, common.WrapError(err, "failed to create change archive")
		}
		deps.Archive = archive
	}

	n, err := notifier.NewFromConfig(cfg.NotificationConfig, nil, zLogger)
	if err != nil {
		app.Close()
		return nil, common.WrapError(err, "failed to create notifier")
	}
	deps.Notifications = notifier.NewNotificationHelper(n, cfg.NotificationConfig, zLogger)

	if cfg.MetricsConfig.ListenAddr != "" {
		app.metrics = metrics.NewRecorder()
		deps.Metrics = app.metrics
	}

	if cfg.LogConfig.LogFile != "" {
		logCfg := cfg.LogConfig
		deps.CycleLogger = func(cycleID string) (zerolog.Logger, func(), error) {
			cycleLogger, err := logger.NewWithCycleID(logCfg, cycleID)
			if err != nil {
				return zerolog.Logger{}, nil, err
			}
			return *cycleLogger.GetZerolog(), func() { _ = cycleLogger.Close() }, nil
		}
	}

	app.service, err = monitor.NewService(deps, monitor.Options{
		MaxConcurrentChecks: cfg.MonitorConfig.MaxConcurrentChecks,
		BypassCache:         cfg.MonitorConfig.BypassCache,
	}, zLogger)
	if err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// loadTargets reads the configured target list.
func (app *application) loadTargets() ([]models.Target, error) {
	return urlhandler.LoadTargets(app.cfg.MonitorConfig.TargetsFile, app.logger)
}

// logLastCycle reports when the previous run last completed a cycle.
func (app *application) logLastCycle(ctx context.Context) {
	last, err := app.store.GetLastCycleTime(ctx)
	switch {
	case errors.Is(err, common.ErrRecordNotFound):
		app.logger.Info().Msg("No completed cycle recorded yet")
	case err != nil:
		app.logger.Warn().Err(err).Msg("Failed to read cycle history")
	default:
		app.logger.Info().Time("last_cycle_time", last).Dur("since", time.Since(last)).Msg("Resuming after last completed cycle")
	}
}

// serveMetrics starts the metrics endpoint when configured and returns a
// function stopping it.
func (app *application) serveMetrics() func() {
	if app.metrics == nil {
		return func() {}
	}
	server := metrics.NewServer(app.cfg.MetricsConfig.ListenAddr, app.metrics, app.logger)
	server.Start()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			app.logger.Warn().Err(err).Msg("Failed to stop metrics server")
		}
	}
}

// Close releases the snapshot store and other resources.
func (app *application) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](); err != nil {
			app.logger.Warn().Err(err).Msg("Failed to release resource")
		}
	}
	app.closers = nil
}

func extractorOptions(cfg config.ExtractorConfig) extractor.Options {
	return extractor.Options{
		MaxAtomItems:         cfg.MaxAtomItems,
		MaxHTMLLinks:         cfg.MaxHTMLLinks,
		MaxJSONItems:         cfg.MaxJSONItems,
		XMLElementScanLimit:  cfg.XMLElementScanLimit,
		XMLTextLimit:         cfg.XMLTextLimit,
		XMLRawFallbackChars:  cfg.XMLRawFallbackChars,
		JSONProbeKeys:        cfg.JSONProbeKeys,
		JSONPreferredKeys:    cfg.JSONPreferredKeys,
		JSONFallbackKeyCount: cfg.JSONFallbackKeyCount,
	}
}
