package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/pagemonitor/internal/common"
	"github.com/aleister1102/pagemonitor/internal/models"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// Cycle statuses recorded in cycle_history.
const (
	CycleStatusStarted   = "STARTED"
	CycleStatusCompleted = "COMPLETED"
	CycleStatusFailed    = "FAILED"
)

// CycleSummary is the outcome tally written when a cycle completes.
type CycleSummary struct {
	Status        string
	Counts        map[models.Outcome]int
	Notifications int
	ArchivePath   string
	Message       string
}

// SQLiteSnapshotStore persists snapshots and cycle history in a SQLite file.
type SQLiteSnapshotStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteSnapshotStore opens (creating if needed) the database at path and ensures the schema.
func NewSQLiteSnapshotStore(path string, logger zerolog.Logger) (*SQLiteSnapshotStore, error) {
	logger = logger.With().Str("component", "SQLiteSnapshotStore").Logger()
	logger.Info().Str("db_path", path).Msg("Initializing snapshot database connection")

	if path != ":memory:" {
		dbDir := filepath.Dir(path)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error().Err(err).Str("directory", dbDir).Msg("Failed to create snapshot database directory")
			return nil, fmt.Errorf("failed to create snapshot database directory %s: %w", dbDir, err)
		}
	}

	dbInstance, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error().Err(err).Str("db_path", path).Msg("Failed to open snapshot database")
		return nil, fmt.Errorf("sql.Open failed for %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	dbInstance.SetMaxOpenConns(1)

	store := &SQLiteSnapshotStore{
		db:     dbInstance,
		logger: logger,
	}

	if err := store.InitSchema(context.Background()); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	logger.Info().Str("path", path).Msg("Database initialized and schema verified.")
	return store, nil
}

// Close closes the database connection.
func (s *SQLiteSnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// InitSchema creates the snapshots and cycle_history tables if they don't already exist.
func (s *SQLiteSnapshotStore) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS snapshots (
		target_id TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		preview TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		etag TEXT NOT NULL DEFAULT '',
		last_modified TEXT NOT NULL DEFAULT '',
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS cycle_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		cycle_id TEXT UNIQUE,
		cycle_start_time DATETIME NOT NULL,
		cycle_end_time DATETIME,
		status TEXT NOT NULL,
		num_targets INTEGER,
		first_seen INTEGER DEFAULT 0,
		changed INTEGER DEFAULT 0,
		unchanged INTEGER DEFAULT 0,
		fetch_failed INTEGER DEFAULT 0,
		parse_failed INTEGER DEFAULT 0,
		notifications INTEGER DEFAULT 0,
		archive_path TEXT,
		message TEXT
	);
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		s.logger.Error().Err(err).Msg("DB: Failed to initialize schema")
		return err
	}
	s.logger.Debug().Msg("DB: Schema initialized successfully (snapshots and cycle_history tables ensured).")
	return nil
}

const snapshotColumns = `target_id, fingerprint, preview, detail, etag, last_modified, updated_at`

func (s *SQLiteSnapshotStore) Get(ctx context.Context, targetID string) (models.SnapshotRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE target_id = ?`, targetID)
	_, record, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SnapshotRecord{}, false, nil
	}
	if err != nil {
		return models.SnapshotRecord{}, false, fmt.Errorf("failed to query snapshot for %s: %w", targetID, err)
	}
	return record, true, nil
}

func (s *SQLiteSnapshotStore) Put(ctx context.Context, targetID string, record models.SnapshotRecord) error {
	return s.PutAll(ctx, map[string]models.SnapshotRecord{targetID: record})
}

func (s *SQLiteSnapshotStore) LoadAll(ctx context.Context) (map[string]models.SnapshotRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	records := make(map[string]models.SnapshotRecord)
	for rows.Next() {
		id, record, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		records[id] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}

	s.logger.Debug().Int("count", len(records)).Msg("Loaded snapshots")
	return records, nil
}

func (s *SQLiteSnapshotStore) PutAll(ctx context.Context, records map[string]models.SnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO snapshots (`+snapshotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(target_id) DO UPDATE SET
		fingerprint = excluded.fingerprint,
		preview = excluded.preview,
		detail = excluded.detail,
		etag = excluded.etag,
		last_modified = excluded.last_modified,
		updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare snapshot upsert: %w", err)
	}
	defer stmt.Close()

	for id, record := range records {
		_, err := stmt.ExecContext(ctx,
			id,
			record.Fingerprint,
			record.Preview,
			strings.Join(record.Detail, "\n"),
			record.Validators.ETag,
			record.Validators.LastModified,
			record.UpdatedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert snapshot for %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshots: %w", err)
	}
	s.logger.Debug().Int("count", len(records)).Msg("Committed snapshots")
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (string, models.SnapshotRecord, error) {
	var (
		id     string
		detail string
		record models.SnapshotRecord
	)
	err := row.Scan(
		&id,
		&record.Fingerprint,
		&record.Preview,
		&detail,
		&record.Validators.ETag,
		&record.Validators.LastModified,
		&record.UpdatedAt,
	)
	if err != nil {
		return "", models.SnapshotRecord{}, err
	}
	if detail != "" {
		record.Detail = strings.Split(detail, "\n")
	}
	return id, record, nil
}

// RecordCycleStart inserts a new cycle_history row with status STARTED and returns its ID.
func (s *SQLiteSnapshotStore) RecordCycleStart(ctx context.Context, cycleID string, numTargets int, startTime time.Time) (int64, error) {
	query := `INSERT INTO cycle_history (cycle_id, num_targets, cycle_start_time, status) VALUES (?, ?, ?, ?)`
	result, err := s.db.ExecContext(ctx, query, cycleID, numTargets, startTime.UTC(), CycleStatusStarted)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("Failed to record cycle start")
		return 0, fmt.Errorf("failed to insert cycle start record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}
	s.logger.Debug().Int64("db_id", id).Str("cycle_id", cycleID).Msg("Recorded cycle start in DB")
	return id, nil
}

// UpdateCycleCompletion fills in the end time and outcome tally of a cycle_history row.
func (s *SQLiteSnapshotStore) UpdateCycleCompletion(ctx context.Context, dbCycleID int64, endTime time.Time, summary CycleSummary) error {
	query := `UPDATE cycle_history SET cycle_end_time = ?, status = ?, first_seen = ?, changed = ?, unchanged = ?,
		fetch_failed = ?, parse_failed = ?, notifications = ?, archive_path = ?, message = ? WHERE id = ?`
	_, err := s.db.ExecContext(ctx, query,
		endTime.UTC(),
		summary.Status,
		summary.Counts[models.OutcomeFirstSeen],
		summary.Counts[models.OutcomeChanged],
		summary.Counts[models.OutcomeUnchanged],
		summary.Counts[models.OutcomeFetchFailed],
		summary.Counts[models.OutcomeParseFailed],
		summary.Notifications,
		sql.NullString{String: summary.ArchivePath, Valid: summary.ArchivePath != ""},
		sql.NullString{String: summary.Message, Valid: summary.Message != ""},
		dbCycleID,
	)
	if err != nil {
		s.logger.Error().Err(err).Int64("db_id", dbCycleID).Msg("Failed to update cycle completion")
		return fmt.Errorf("failed to update cycle completion for ID %d: %w", dbCycleID, err)
	}
	s.logger.Debug().Int64("db_id", dbCycleID).Str("status", summary.Status).Msg("Updated cycle completion in DB")
	return nil
}

// GetLastCycleTime returns the start time of the most recent completed cycle,
// or common.ErrRecordNotFound when none has completed yet.
func (s *SQLiteSnapshotStore) GetLastCycleTime(ctx context.Context) (time.Time, error) {
	query := `SELECT cycle_start_time FROM cycle_history WHERE status = ? ORDER BY cycle_start_time DESC LIMIT 1`
	var startTime time.Time
	err := s.db.QueryRowContext(ctx, query, CycleStatusCompleted).Scan(&startTime)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, common.ErrRecordNotFound
		}
		return time.Time{}, fmt.Errorf("failed to query last cycle start time: %w", err)
	}
	return startTime, nil
}
