package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/cannoliai/cannoli/graph"
	"github.com/cannoliai/cannoli/history"
)

func TestPostgresRecorderRecordsRun(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO runs").
		WithArgs("run-pg", pgxmock.AnyArg(), pgxmock.AnyArg(), "complete", "", 10, 5, 1, 0.02).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	r := history.NewPostgresRecorderWithPool(mock, "")
	ctx := context.Background()

	rec := history.Record{
		RunID:      "run-pg",
		StartedAt:  time.Unix(100, 0),
		FinishedAt: time.Unix(200, 0),
		Reason:     graph.FinishComplete,
		Usage:      graph.Usage{PromptTokens: 10, CompletionTokens: 5, Calls: 1, TotalCost: 0.02},
	}
	require.NoError(t, r.Record(ctx, rec))
	require.NoError(t, mock.ExpectationsWereMet())
}
