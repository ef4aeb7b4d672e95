package logger

import (
	"io"
	stdlog "log"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/config"
	"github.com/rs/zerolog"
)

// LoggerBuilder provides fluent interface for building loggers
type LoggerBuilder struct {
	config    LoggerConfig
	factory   *WriterFactory
	converter *ConfigConverter
}

// NewLoggerBuilder creates a new logger builder
func NewLoggerBuilder() *LoggerBuilder {
	return &LoggerBuilder{
		config:    DefaultLoggerConfig(),
		factory:   NewWriterFactory(),
		converter: NewConfigConverter(),
	}
}

// WithConfig sets the logger configuration, keeping the cycle and stdlog
// settings already chosen on the builder
func (lb *LoggerBuilder) WithConfig(cfg config.LogConfig) *LoggerBuilder {
	loggerConfig, _ := lb.converter.ConvertConfig(cfg)
	loggerConfig.RedirectStdLog = lb.config.RedirectStdLog
	loggerConfig.CycleID = lb.config.CycleID
	lb.config = loggerConfig
	return lb
}

// WithCycleID sets the cycle ID for organizing logs by poll cycle
func (lb *LoggerBuilder) WithCycleID(cycleID string) *LoggerBuilder {
	lb.config.CycleID = cycleID
	return lb
}

// WithStdLogRedirect controls whether Build points the standard library
// logger at the new logger. It is on by default.
func (lb *LoggerBuilder) WithStdLogRedirect(enabled bool) *LoggerBuilder {
	lb.config.RedirectStdLog = enabled
	return lb
}

// WithConsoleOutput redirects console output away from stderr
func (lb *LoggerBuilder) WithConsoleOutput(w io.Writer) *LoggerBuilder {
	lb.factory.consoleOut = w
	return lb
}

// Build creates the logger instance
func (lb *LoggerBuilder) Build() (*Logger, error) {
	if err := lb.config.Validate(); err != nil {
		return nil, err
	}

	writers, closers := lb.createWriters()
	if len(writers) == 0 {
		return nil, common.NewError("no output writers configured")
	}

	multiWriter := zerolog.MultiLevelWriter(writers...)
	logContext := zerolog.New(multiWriter).
		Level(lb.config.Level).
		With().
		Timestamp()
	if lb.config.CycleID != "" {
		logContext = logContext.Str("cycle_id", lb.config.CycleID)
	}
	zerologInstance := logContext.Logger()

	if lb.config.RedirectStdLog {
		zerolog.SetGlobalLevel(lb.config.Level)
		lb.configureStandardLog(zerologInstance)
	}

	return &Logger{
		zerolog: zerologInstance,
		config:  lb.config,
		closers: closers,
	}, nil
}

func (lb *LoggerBuilder) createWriters() ([]io.Writer, []io.Closer) {
	var writers []io.Writer
	var closers []io.Closer

	if lb.config.EnableConsole {
		writers = append(writers, lb.factory.CreateConsoleWriter(lb.config.Format))
	}

	if lb.config.EnableFile {
		fileWriter, closer := lb.factory.CreateFileWriter(lb.config)
		writers = append(writers, fileWriter)
		closers = append(closers, closer)
	}

	return writers, closers
}

// configureStandardLog sends the standard library logger through zerolog
func (lb *LoggerBuilder) configureStandardLog(logger zerolog.Logger) {
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)
}
