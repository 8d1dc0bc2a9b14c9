// Package sqlite implements the engine port on a SQLite file shared with an
// external recompute process.
//
// The input slot is the input_slot table (one row per field) and the output
// table is output_table (ordered key/value rows). quotegate writes inputs and
// reads outputs; the recompute process reads inputs with ReadInputs and
// replaces the outputs with PublishOutputs.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"mercator-hq/quotegate/pkg/engine"
)

// Config configures the SQLite engine.
type Config struct {
	// Path is the database file path.
	Path string

	// BusyTimeout is how long to wait for the file lock.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// Engine is an engine.Engine backed by a SQLite file.
type Engine struct {
	db        *sql.DB
	closeOnce sync.Once

	upsertStmt *sql.Stmt
	readStmt   *sql.Stmt
}

// New opens (and if needed creates) the shared database.
func New(cfg Config) (*Engine, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	e := &Engine{db: db}
	if err := e.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := e.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return e, nil
}

func (e *Engine) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS input_slot (
		key TEXT PRIMARY KEY,
		value TEXT,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS output_table (
		position INTEGER PRIMARY KEY,
		key TEXT NOT NULL,
		value TEXT
	);
	`
	_, err := e.db.Exec(schema)
	return err
}

func (e *Engine) prepareStatements() error {
	var err error

	e.upsertStmt, err = e.db.Prepare(`
		INSERT INTO input_slot (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert statement: %w", err)
	}

	e.readStmt, err = e.db.Prepare(`SELECT key, value FROM output_table ORDER BY position`)
	if err != nil {
		return fmt.Errorf("failed to prepare read statement: %w", err)
	}

	return nil
}

// WriteInputs implements engine.Engine. All fields of one call are committed
// in a single transaction.
func (e *Engine) WriteInputs(ctx context.Context, fields []engine.Field) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt := tx.StmtContext(ctx, e.upsertStmt)
	now := time.Now().UnixNano()
	for _, f := range fields {
		if _, err := stmt.ExecContext(ctx, f.Key, cellText(f.Value), now); err != nil {
			return fmt.Errorf("failed to write %q: %w", f.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit inputs: %w", err)
	}
	return nil
}

// ReadOutputs implements engine.Engine. A NULL value reads as nil.
func (e *Engine) ReadOutputs(ctx context.Context) ([]engine.Row, error) {
	rows, err := e.readStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read outputs: %w", err)
	}
	defer rows.Close()

	var out []engine.Row
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan output row: %w", err)
		}
		if value.Valid {
			out = append(out, engine.Row{key, value.String})
		} else {
			out = append(out, engine.Row{key, nil})
		}
	}
	return out, rows.Err()
}

// ReadInputs returns the current input slot. It is used by the recompute
// process.
func (e *Engine) ReadInputs(ctx context.Context) (map[string]string, error) {
	rows, err := e.db.QueryContext(ctx, `SELECT key, value FROM input_slot`)
	if err != nil {
		return nil, fmt.Errorf("failed to read inputs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan input row: %w", err)
		}
		out[key] = value.String
	}
	return out, rows.Err()
}

// PublishOutputs atomically replaces the output table. Each row's first
// cell is the key and its second cell (if any) the value.
func (e *Engine) PublishOutputs(ctx context.Context, rows []engine.Row) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM output_table`); err != nil {
		return fmt.Errorf("failed to clear outputs: %w", err)
	}
	for i, r := range rows {
		if len(r) == 0 {
			continue
		}
		var value any
		if len(r) > 1 {
			value = cellText(r[1])
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO output_table (position, key, value) VALUES (?, ?, ?)`,
			i, cellText(r[0]), value,
		); err != nil {
			return fmt.Errorf("failed to publish row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit outputs: %w", err)
	}
	return nil
}

// Close closes the database.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		if e.upsertStmt != nil {
			e.upsertStmt.Close()
		}
		if e.readStmt != nil {
			e.readStmt.Close()
		}
		err = e.db.Close()
	})
	return err
}

// cellText renders a cell value as stored text. Nil stays NULL.
func cellText(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
