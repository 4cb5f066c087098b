package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteRecorder persists Records to a SQLite "runs" table, which
// NewSQLiteRecorder creates if it does not exist. Grounded on the teacher's store/sqlite.SqliteCheckpointStore
// (same sql.Open + CREATE TABLE IF NOT EXISTS shape), adapted from a
// checkpoint-per-node-name schema to a run-per-row one.
type SQLiteRecorder struct {
	db        *sql.DB
	tableName string
}

// SQLiteOptions configures a SQLiteRecorder.
type SQLiteOptions struct {
	Path      string
	TableName string // default "runs"
}

// NewSQLiteRecorder opens (creating if necessary) the SQLite database at
// opts.Path and ensures the runs table exists.
func NewSQLiteRecorder(opts SQLiteOptions) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("history: opening sqlite database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "runs"
	}
	r := &SQLiteRecorder{db: db, tableName: tableName}
	if err := r.initSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRecorder) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME NOT NULL,
			reason TEXT NOT NULL,
			message TEXT,
			prompt_tokens INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			calls INTEGER NOT NULL,
			total_cost REAL NOT NULL
		);
	`, r.tableName)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("history: creating schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (r *SQLiteRecorder) Close() error { return r.db.Close() }

func (r *SQLiteRecorder) Record(ctx context.Context, rec Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, started_at, finished_at, reason, message, prompt_tokens, completion_tokens, calls, total_cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			started_at = excluded.started_at,
			finished_at = excluded.finished_at,
			reason = excluded.reason,
			message = excluded.message,
			prompt_tokens = excluded.prompt_tokens,
			completion_tokens = excluded.completion_tokens,
			calls = excluded.calls,
			total_cost = excluded.total_cost
	`, r.tableName)

	_, err := r.db.ExecContext(ctx, query,
		rec.RunID,
		rec.StartedAt,
		rec.FinishedAt,
		string(rec.Reason),
		rec.Message,
		rec.Usage.PromptTokens,
		rec.Usage.CompletionTokens,
		rec.Usage.Calls,
		rec.Usage.TotalCost,
	)
	if err != nil {
		return fmt.Errorf("history: recording run %s: %w", rec.RunID, err)
	}
	return nil
}

var _ Recorder = (*SQLiteRecorder)(nil)
