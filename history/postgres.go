package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGPool is the slice of *pgxpool.Pool PostgresRecorder needs, narrowed so
// tests can substitute github.com/pashagolub/pgxmock/v3 in place of a live
// connection. Grounded on the teacher's store/postgres.DBPool.
type PGPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRecorder persists Records to a Postgres "runs" table.
type PostgresRecorder struct {
	pool      PGPool
	tableName string
}

// PostgresOptions configures a PostgresRecorder.
type PostgresOptions struct {
	ConnString string
	TableName  string // default "runs"
}

// NewPostgresRecorder opens a connection pool and ensures the runs table
// exists.
func NewPostgresRecorder(ctx context.Context, opts PostgresOptions) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("history: creating postgres pool: %w", err)
	}
	r := NewPostgresRecorderWithPool(pool, opts.TableName)
	if err := r.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return r, nil
}

// NewPostgresRecorderWithPool wraps an already-constructed pool, letting
// tests inject a pgxmock.PgxPoolIface in place of a live connection.
func NewPostgresRecorderWithPool(pool PGPool, tableName string) *PostgresRecorder {
	if tableName == "" {
		tableName = "runs"
	}
	return &PostgresRecorder{pool: pool, tableName: tableName}
}

func (r *PostgresRecorder) initSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT PRIMARY KEY,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL,
			reason TEXT NOT NULL,
			message TEXT,
			prompt_tokens INTEGER NOT NULL,
			completion_tokens INTEGER NOT NULL,
			calls INTEGER NOT NULL,
			total_cost DOUBLE PRECISION NOT NULL
		);
	`, r.tableName)
	_, err := r.pool.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("history: creating schema: %w", err)
	}
	return nil
}

func (r *PostgresRecorder) Record(ctx context.Context, rec Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, started_at, finished_at, reason, message, prompt_tokens, completion_tokens, calls, total_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (run_id) DO UPDATE SET
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			reason = EXCLUDED.reason,
			message = EXCLUDED.message,
			prompt_tokens = EXCLUDED.prompt_tokens,
			completion_tokens = EXCLUDED.completion_tokens,
			calls = EXCLUDED.calls,
			total_cost = EXCLUDED.total_cost
	`, r.tableName)

	_, err := r.pool.Exec(ctx, query,
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

var _ Recorder = (*PostgresRecorder)(nil)
