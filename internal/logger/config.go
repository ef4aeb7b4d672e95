package logger

import (
	"path/filepath"
	"strings"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/rs/zerolog"
)

// LoggerConfig is the resolved setup a LoggerBuilder works from
type LoggerConfig struct {
	Level         zerolog.Level
	Format        LogFormat
	EnableConsole bool
	EnableFile    bool
	FilePath      string
	MaxSizeMB     int
	MaxBackups    int

	// RedirectStdLog points the standard library logger and the global
	// level at the built logger. Per-cycle loggers leave both alone.
	RedirectStdLog bool

	// CycleID is stamped on every entry as cycle_id. With UseSubdirs it also
	// moves the log file under monitors/<cycle_id>/.
	CycleID    string
	UseSubdirs bool
}

// LogFormat represents available log formats
type LogFormat int

const (
	FormatJSON LogFormat = iota
	FormatConsole
	FormatText
)

// String returns string representation of LogFormat
func (lf LogFormat) String() string {
	switch lf {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	default:
		return "console"
	}
}

// DefaultLoggerConfig returns the console-only process logger setup
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:          zerolog.InfoLevel,
		Format:         FormatConsole,
		EnableConsole:  true,
		MaxSizeMB:      100,
		MaxBackups:     3,
		RedirectStdLog: true,
	}
}

// Validate reports settings Build cannot honour.
func (c LoggerConfig) Validate() error {
	if c.EnableFile && c.FilePath == "" {
		return common.NewValidationError("file_path", c.FilePath, "file path required when file logging enabled")
	}
	if c.MaxSizeMB <= 0 {
		return common.NewValidationError("max_size_mb", c.MaxSizeMB, "max size must be positive")
	}
	// The cycle id becomes a directory name.
	if c.CycleID == "." || c.CycleID == ".." || strings.ContainsAny(c.CycleID, `/\`) {
		return common.NewValidationError("cycle_id", c.CycleID, "cycle id must be a single path element")
	}
	return nil
}

// LogPath returns <dir>/monitors/<cycle_id>/<file> for per-cycle logs and
// the configured path otherwise.
func (c LoggerConfig) LogPath() string {
	if !c.UseSubdirs || c.CycleID == "" {
		return c.FilePath
	}
	return filepath.Join(filepath.Dir(c.FilePath), "monitors", c.CycleID, filepath.Base(c.FilePath))
}
