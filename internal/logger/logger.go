package logger

import (
	"io"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/config"
	"github.com/rs/zerolog"
)

// Logger represents the main logger with configuration
type Logger struct {
	zerolog zerolog.Logger
	config  LoggerConfig
	closers []io.Closer
}

// GetZerolog returns the underlying zerolog instance
func (l *Logger) GetZerolog() *zerolog.Logger {
	return &l.zerolog
}

// Config returns the resolved logger configuration
func (l *Logger) Config() LoggerConfig {
	return l.config
}

// Close releases any log files held by the logger.
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	l.closers = nil
	return common.CombineErrors(errs)
}

// New creates the application logger from the log section of the config
func New(cfg config.LogConfig) (zerolog.Logger, error) {
	logger, err := NewLoggerBuilder().WithConfig(cfg).Build()
	if err != nil {
		return zerolog.Logger{}, err
	}
	return *logger.GetZerolog(), nil
}

// NewWithCycleID creates a logger whose file output is kept per poll cycle.
// It leaves the process-wide logging setup alone; the caller closes it when
// the cycle ends.
func NewWithCycleID(cfg config.LogConfig, cycleID string) (*Logger, error) {
	return NewLoggerBuilder().
		WithConfig(cfg).
		WithCycleID(cycleID).
		WithStdLogRedirect(false).
		Build()
}
