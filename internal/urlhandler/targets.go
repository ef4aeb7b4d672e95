package urlhandler

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// targetFile is the YAML/JSON layout of a target list.
type targetFile struct {
	Targets []models.Target `yaml:"targets"`
}

// LoadTargets reads the ordered target list from filePath. The format follows
// the extension: .csv (header row naming the columns), .yaml/.yml/.json
// (a "targets" list), anything else one URL per line.
//
// Records without an id or url are skipped and never reported as failures.
// Only an unreadable file is an error.
func LoadTargets(filePath string, logger zerolog.Logger) ([]models.Target, error) {
	fileLogger := logger.With().Str("file_path", filePath).Logger()

	data, err := readTargetFile(filePath)
	if err != nil {
		fileLogger.Error().Err(err).Msg("Failed to read target file")
		return nil, err
	}

	var raw []models.Target
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		raw, err = parseCSVTargets(data)
	case ".yaml", ".yml", ".json":
		raw, err = parseYAMLTargets(data)
	default:
		raw, err = parseURLListTargets(data)
	}
	if err != nil {
		fileLogger.Error().Err(err).Msg("Failed to parse target file")
		return nil, common.WrapErrorf(err, "parsing target file %s", filePath)
	}

	targets := BuildTargets(raw, fileLogger)
	fileLogger.Info().
		Int("records", len(raw)).
		Int("targets", len(targets)).
		Int("skipped", len(raw)-len(targets)).
		Msg("Loaded targets")
	if len(targets) == 0 {
		fileLogger.Warn().Msg("Target file contains no usable targets")
	}
	return targets, nil
}

// BuildTargets applies the record rules to raw entries: fields are trimmed,
// entries missing id or url are dropped, name defaults to id and the first
// occurrence of an id wins.
func BuildTargets(raw []models.Target, logger zerolog.Logger) []models.Target {
	targets := make([]models.Target, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for i, record := range raw {
		target := models.Target{
			ID:       strings.TrimSpace(record.ID),
			Name:     strings.TrimSpace(record.Name),
			URL:      strings.TrimSpace(record.URL),
			Selector: strings.TrimSpace(record.Selector),
			Keyword:  strings.TrimSpace(record.Keyword),
		}

		if target.ID == "" {
			logger.Debug().Err(common.NewConfigError(i+1, "id", "missing")).Msg("Skipping target")
			continue
		}
		if target.URL == "" {
			logger.Debug().Err(common.NewConfigError(i+1, "url", "missing")).Msg("Skipping target")
			continue
		}
		if seen[target.ID] {
			logger.Warn().Err(common.NewConfigError(i+1, "id", "duplicate "+target.ID)).Msg("Skipping target")
			continue
		}
		if target.Name == "" {
			target.Name = target.ID
		}

		seen[target.ID] = true
		targets = append(targets, target)
	}
	return targets
}

func readTargetFile(filePath string) ([]byte, error) {
	info, err := os.Stat(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s (cause: %v)", ErrReadingFile, filePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrReadingFile, filePath)
	}

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrPermission) {
		return nil, fmt.Errorf("%w: %s", ErrFilePermission, filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s (cause: %v)", ErrReadingFile, filePath, err)
	}
	return data, nil
}

func parseCSVTargets(data []byte) ([]models.Target, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["url"]; !ok {
		return nil, fmt.Errorf("%w: missing url column in %v", ErrUnsupportedCSV, header)
	}

	field := func(row []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var targets []models.Target
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		targets = append(targets, models.Target{
			ID:       field(row, "id"),
			Name:     field(row, "name"),
			URL:      field(row, "url"),
			Selector: field(row, "selector"),
			Keyword:  field(row, "keyword"),
		})
	}
	return targets, nil
}

func parseYAMLTargets(data []byte) ([]models.Target, error) {
	var file targetFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return file.Targets, nil
}

// parseURLListTargets reads one URL per line; the sanitized URL doubles as id.
func parseURLListTargets(data []byte) ([]models.Target, error) {
	var targets []models.Target
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		normalized, err := NormalizeURL(line)
		if err != nil {
			targets = append(targets, models.Target{})
			continue
		}
		targets = append(targets, models.Target{ID: SanitizeFilename(normalized), URL: normalized})
	}
	return targets, scanner.Err()
}
