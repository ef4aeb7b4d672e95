package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aleister1102/pagemonitor/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	_, err := New(config.NewDefaultLogConfig())
	require.NoError(t, err)
}

func TestConvertConfig(t *testing.T) {
	cc := NewConfigConverter()

	lc, err := cc.ConvertConfig(config.LogConfig{LogLevel: "DEBUG", LogFormat: "json", LogFile: "logs/app.log"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, lc.Level)
	assert.Equal(t, FormatJSON, lc.Format)
	assert.True(t, lc.EnableFile)
	assert.Equal(t, config.DefaultMaxLogSizeMB, lc.MaxSizeMB)
	assert.Equal(t, config.DefaultMaxLogBackups, lc.MaxBackups)

	lc, err = cc.ConvertConfig(config.LogConfig{LogLevel: "loud"})
	assert.Error(t, err)
	assert.Equal(t, zerolog.InfoLevel, lc.Level)
	assert.Equal(t, FormatConsole, lc.Format)
	assert.False(t, lc.EnableFile)
}

func TestParseFormat(t *testing.T) {
	p := NewLogFormatParser()
	assert.Equal(t, FormatJSON, p.ParseFormat(" JSON "))
	assert.Equal(t, FormatText, p.ParseFormat("text"))
	assert.Equal(t, FormatConsole, p.ParseFormat("console"))
	assert.Equal(t, FormatConsole, p.ParseFormat("unknown"))
	assert.Equal(t, "text", FormatText.String())
}

func TestBuild_JSONConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerBuilder().
		WithConfig(config.LogConfig{LogLevel: "info", LogFormat: "json"}).
		WithConsoleOutput(&buf).
		Build()
	require.NoError(t, err)

	l.GetZerolog().Info().Str("target_id", "books").Msg("checked")
	l.GetZerolog().Debug().Msg("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "books", entry["target_id"])
	assert.Equal(t, "checked", entry["message"])
}

func TestNewWithCycleID_WritesUnderMonitorsDir(t *testing.T) {
	dir := t.TempDir()
	cfg := config.LogConfig{LogLevel: "info", LogFormat: "json", LogFile: filepath.Join(dir, "pagemonitor.log")}

	l, err := NewWithCycleID(cfg, "cycle-42")
	require.NoError(t, err)
	l.GetZerolog().Info().Msg("cycle started")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, "monitors", "cycle-42", "pagemonitor.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "cycle started")
	assert.Contains(t, string(data), `"cycle_id":"cycle-42"`)
}

func TestLoggerConfig_LogPath(t *testing.T) {
	assert.Equal(t, "logs/app.log", LoggerConfig{FilePath: "logs/app.log", UseSubdirs: true}.LogPath())
	assert.Equal(t, "logs/app.log", LoggerConfig{FilePath: "logs/app.log", CycleID: "c1"}.LogPath())
	assert.Equal(t, filepath.Join("logs", "monitors", "c1", "app.log"),
		LoggerConfig{FilePath: "logs/app.log", CycleID: "c1", UseSubdirs: true}.LogPath())
}

func TestLoggerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*LoggerConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*LoggerConfig) {}},
		{name: "cycle id", mutate: func(c *LoggerConfig) { c.CycleID = "monitor-20240309-070501-ab12cd34" }},
		{name: "file without path", mutate: func(c *LoggerConfig) { c.EnableFile = true }, wantErr: true},
		{name: "zero max size", mutate: func(c *LoggerConfig) { c.MaxSizeMB = 0 }, wantErr: true},
		{name: "cycle id with separator", mutate: func(c *LoggerConfig) { c.CycleID = "../escape" }, wantErr: true},
		{name: "cycle id parent dir", mutate: func(c *LoggerConfig) { c.CycleID = ".." }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultLoggerConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuild_CycleLoggerStampsCycleID(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewLoggerBuilder().
		WithConfig(config.LogConfig{LogLevel: "info", LogFormat: "json"}).
		WithCycleID("cycle-7").
		WithStdLogRedirect(false).
		WithConsoleOutput(&buf).
		Build()
	require.NoError(t, err)
	assert.False(t, l.Config().RedirectStdLog)

	l.GetZerolog().Info().Msg("polled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "cycle-7", entry["cycle_id"])
}

func TestBuild_InvalidConfig(t *testing.T) {
	lb := NewLoggerBuilder()
	lb.config.EnableFile = true
	lb.config.FilePath = ""

	_, err := lb.Build()
	assert.Error(t, err)
}
