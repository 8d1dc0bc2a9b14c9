package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mercator-hq/quotegate/pkg/config"
	"mercator-hq/quotegate/pkg/runs"
)

// SQLiteStorage implements runs.Storage on a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	config config.RunsSQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the ledger database at
// cfg.Path and applies the schema.
func NewSQLiteStorage(cfg config.RunsSQLiteConfig) (*SQLiteStorage, error) {
	logger := slog.Default().With("component", "runs.storage.sqlite")

	if dir := filepath.Dir(cfg.Path); dir != "." && cfg.Path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, runs.NewStorageError("sqlite", "mkdir", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, runs.NewStorageError("sqlite", "open", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	s := &SQLiteStorage{db: db, config: cfg, logger: logger}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("run ledger opened",
		"path", cfg.Path,
		"wal_mode", cfg.WALMode,
		"max_open_conns", cfg.MaxOpenConns,
	)
	return s, nil
}

func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return runs.NewStorageError("sqlite", "enable_wal", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return runs.NewStorageError("sqlite", "set_busy_timeout", err)
	}
	if _, err := s.db.Exec(Schema); err != nil {
		return runs.NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return runs.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return runs.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return runs.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}
	return nil
}

// Store inserts record. Storing an existing id replaces it.
func (s *SQLiteStorage) Store(ctx context.Context, record *runs.Record) error {
	inputs, err := json.Marshal(record.Inputs)
	if err != nil {
		return runs.NewStorageError("sqlite", "store", err)
	}
	defaulted, _ := json.Marshal(record.Defaulted)
	invalid, _ := json.Marshal(record.InvalidFields)
	snapshot, _ := json.Marshal(record.LastSnapshot)

	query := `INSERT OR REPLACE INTO runs (` + runColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		record.ID, record.RequestID, record.Token,
		record.Status, nullString(record.Error),
		record.StartedAt.UTC(), record.RecordedAt.UTC(),
		record.Duration.Milliseconds(), record.GateWait.Milliseconds(),
		record.Attempts, record.StaleReads,
		record.InputHash, string(inputs), string(defaulted), string(invalid), record.ContactEmail,
		record.Decision, record.RiskClass, record.ActualMargin, record.Locked, record.HoursDefaulted,
		string(snapshot),
	)
	if err != nil {
		return runs.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Get returns the record with id.
func (s *SQLiteStorage) Get(ctx context.Context, id string) (*runs.Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	if err != nil {
		return nil, runs.NewStorageError("sqlite", "get", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, runs.NewStorageError("sqlite", "get", err)
		}
		return nil, runs.ErrNotFound
	}
	record, err := scanRow(rows)
	if err != nil {
		return nil, runs.NewStorageError("sqlite", "scan", err)
	}
	return record, nil
}

// Query returns matching records ordered by started_at.
func (s *SQLiteStorage) Query(ctx context.Context, q *runs.Query) ([]*runs.Record, error) {
	where, args := buildWhereClause(q)

	sqlQuery := "SELECT " + runColumns + " FROM runs" + where
	order := "DESC"
	if q.SortOrder == "asc" {
		order = "ASC"
	}
	sqlQuery += " ORDER BY started_at " + order + ", id " + order

	limit := -1
	if q.Limit > 0 {
		limit = q.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	if q.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, runs.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*runs.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, runs.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, runs.NewStorageError("sqlite", "query", err)
	}
	return records, nil
}

// Count returns the number of matching records.
func (s *SQLiteStorage) Count(ctx context.Context, q *runs.Query) (int64, error) {
	where, args := buildWhereClause(q)

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs"+where, args...).Scan(&count); err != nil {
		return 0, runs.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes matching records.
func (s *SQLiteStorage) Delete(ctx context.Context, q *runs.Query) (int64, error) {
	where, args := buildWhereClause(q)

	result, err := s.db.ExecContext(ctx, "DELETE FROM runs"+where, args...)
	if err != nil {
		return 0, runs.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, runs.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return runs.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("run ledger closed")
	return nil
}

// buildWhereClause returns " WHERE ..." (or "") and its arguments.
func buildWhereClause(q *runs.Query) (string, []any) {
	var conditions []string
	var args []any

	if q.StartTime != nil {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, q.StartTime.UTC())
	}
	if q.EndTime != nil {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, q.EndTime.UTC())
	}
	if q.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, q.Status)
	}
	if q.Token != "" {
		conditions = append(conditions, "token = ?")
		args = append(args, q.Token)
	}
	if q.RequestID != "" {
		conditions = append(conditions, "request_id = ?")
		args = append(args, q.RequestID)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanRow(rows *sql.Rows) (*runs.Record, error) {
	var (
		record                               runs.Record
		errText, inputHash, contactEmail     sql.NullString
		decision, riskClass                  sql.NullString
		inputs, defaulted, invalid, snapshot sql.NullString
		durationMS, gateWaitMS               int64
		actualMargin                         sql.NullFloat64
		locked, hoursDefaulted               sql.NullBool
	)

	err := rows.Scan(
		&record.ID, &record.RequestID, &record.Token,
		&record.Status, &errText,
		&record.StartedAt, &record.RecordedAt,
		&durationMS, &gateWaitMS,
		&record.Attempts, &record.StaleReads,
		&inputHash, &inputs, &defaulted, &invalid, &contactEmail,
		&decision, &riskClass, &actualMargin, &locked, &hoursDefaulted,
		&snapshot,
	)
	if err != nil {
		return nil, err
	}

	record.Error = errText.String
	record.InputHash = inputHash.String
	record.ContactEmail = contactEmail.String
	record.Decision = decision.String
	record.RiskClass = riskClass.String
	record.ActualMargin = actualMargin.Float64
	record.Locked = locked.Bool
	record.HoursDefaulted = hoursDefaulted.Bool
	record.Duration = time.Duration(durationMS) * time.Millisecond
	record.GateWait = time.Duration(gateWaitMS) * time.Millisecond

	if err := unmarshalColumn(inputs, &record.Inputs); err != nil {
		return nil, fmt.Errorf("inputs: %w", err)
	}
	if err := unmarshalColumn(defaulted, &record.Defaulted); err != nil {
		return nil, fmt.Errorf("defaulted: %w", err)
	}
	if err := unmarshalColumn(invalid, &record.InvalidFields); err != nil {
		return nil, fmt.Errorf("invalid_fields: %w", err)
	}
	if err := unmarshalColumn(snapshot, &record.LastSnapshot); err != nil {
		return nil, fmt.Errorf("last_snapshot: %w", err)
	}
	return &record, nil
}

func unmarshalColumn(col sql.NullString, v any) error {
	if !col.Valid || col.String == "" || col.String == "null" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), v)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ runs.Storage = (*SQLiteStorage)(nil)
