package datastore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/models"
	"github.com/aleister1102/pagemonitor/internal/urlhandler"

	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

const archiveDateLayout = "2006-01-02"

// ChangeArchive appends the events of a cycle to a per-cycle Parquet file
// under <base>/<yyyy-mm-dd>/<cycle_id>.parquet.
type ChangeArchive struct {
	basePath        string
	compressionType string
	logger          zerolog.Logger
}

// NewChangeArchive creates an archive rooted at basePath. compressionType is
// one of zstd, gzip, snappy or none; anything else falls back to zstd.
func NewChangeArchive(basePath, compressionType string, logger zerolog.Logger) (*ChangeArchive, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, common.NewValidationError("basePath", basePath, "archive directory cannot be empty")
	}
	return &ChangeArchive{
		basePath:        basePath,
		compressionType: strings.ToLower(compressionType),
		logger:          logger.With().Str("component", "ChangeArchive").Logger(),
	}, nil
}

// Write stores events under cycleID and returns the file path. No file is
// created when there are no events.
func (a *ChangeArchive) Write(ctx context.Context, cycleID string, cycleTime time.Time, events []models.ChangeEvent) (string, error) {
	if len(events) == 0 {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", common.WrapError(err, "archive cancelled")
	}

	records := make([]models.ParquetChangeRecord, 0, len(events))
	for _, event := range events {
		records = append(records, toParquetRecord(cycleID, event))
	}

	filePath, err := a.prepareOutputFile(cycleID, cycleTime)
	if err != nil {
		return "", err
	}

	written, err := a.writeToParquetFile(filePath, records)
	if err != nil {
		return "", err
	}

	a.logger.Info().
		Str("file_path", filePath).
		Str("cycle_id", cycleID).
		Int("records_written", written).
		Msg("Archived cycle events")
	return filePath, nil
}

func (a *ChangeArchive) prepareOutputFile(cycleID string, cycleTime time.Time) (string, error) {
	dir := filepath.Join(a.basePath, cycleTime.UTC().Format(archiveDateLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", common.WrapError(err, "failed to create archive directory: "+dir)
	}
	return filepath.Join(dir, urlhandler.SanitizeFilename(cycleID)+".parquet"), nil
}

func (a *ChangeArchive) writeToParquetFile(filePath string, records []models.ParquetChangeRecord) (int, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return 0, common.WrapError(err, "failed to create parquet file: "+filePath)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[models.ParquetChangeRecord](file, a.compressionOption())
	written, err := writer.Write(records)
	if err != nil {
		return 0, common.WrapError(err, "failed to write change records to parquet file")
	}
	if err := writer.Close(); err != nil {
		return 0, common.WrapError(err, "failed to finalize parquet file")
	}
	return written, nil
}

func (a *ChangeArchive) compressionOption() parquet.WriterOption {
	switch a.compressionType {
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	case "none":
		return parquet.Compression(&parquet.Uncompressed)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}

// ReadFile reads every record of one archive file.
func (a *ChangeArchive) ReadFile(filePath string) ([]models.ParquetChangeRecord, error) {
	return readChangeRecords(filePath, a.logger)
}

// ReadDay reads every archived record of the given day, ordered by detection time.
func (a *ChangeArchive) ReadDay(day time.Time) ([]models.ParquetChangeRecord, error) {
	pattern := filepath.Join(a.basePath, day.UTC().Format(archiveDateLayout), "*.parquet")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive files: %w", err)
	}

	var records []models.ParquetChangeRecord
	for _, file := range files {
		fileRecords, err := readChangeRecords(file, a.logger)
		if err != nil {
			return nil, err
		}
		records = append(records, fileRecords...)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].DetectedAt < records[j].DetectedAt
	})
	return records, nil
}

func readChangeRecords(filePath string, logger zerolog.Logger) ([]models.ParquetChangeRecord, error) {
	osFile, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ParquetChangeRecord{}, nil
		}
		return nil, fmt.Errorf("failed to open archive file '%s': %w", filePath, err)
	}
	defer osFile.Close()

	stat, err := osFile.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat archive file '%s': %w", filePath, err)
	}
	if stat.Size() == 0 {
		return []models.ParquetChangeRecord{}, nil
	}

	pqFile, err := parquet.OpenFile(osFile, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file '%s': %w", filePath, err)
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	var records []models.ParquetChangeRecord
	for {
		var record models.ParquetChangeRecord
		if err := reader.Read(&record); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			logger.Error().Err(err).Str("file", filePath).Msg("Error reading record from Parquet file")
			return nil, fmt.Errorf("error reading record from parquet file '%s': %w", filePath, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func toParquetRecord(cycleID string, event models.ChangeEvent) models.ParquetChangeRecord {
	return models.ParquetChangeRecord{
		CycleID:       cycleID,
		TargetID:      event.Target.ID,
		TargetName:    event.Target.DisplayName(),
		TargetURL:     event.Target.URL,
		Kind:          string(event.Kind),
		BeforePreview: StringPtrOrNil(event.BeforePreview),
		AfterPreview:  StringPtrOrNil(event.AfterPreview),
		Detail:        StringPtrOrNil(strings.Join(event.DetailLines, "\n")),
		Error:         StringPtrOrNil(event.Error),
		DetectedAt:    models.TimeToUnixMilli(event.DetectedAt),
	}
}

// StringPtrOrNil converts string to pointer, or nil if string is empty
func StringPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
