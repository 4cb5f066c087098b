package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cannoliai/cannoli/graph"
	"github.com/cannoliai/cannoli/history"
)

func TestMemoryRecorderRecordsAndListsOldestFirst(t *testing.T) {
	m := history.NewMemoryRecorder(0)
	ctx := context.Background()

	first := history.Record{RunID: "run-1", Reason: graph.FinishComplete, StartedAt: time.Unix(1, 0), FinishedAt: time.Unix(2, 0)}
	second := history.Record{RunID: "run-2", Reason: graph.FinishError, Message: "boom", StartedAt: time.Unix(3, 0), FinishedAt: time.Unix(4, 0)}

	require.NoError(t, m.Record(ctx, first))
	require.NoError(t, m.Record(ctx, second))

	recent := m.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, graph.ID("run-1"), recent[0].RunID)
	assert.Equal(t, graph.ID("run-2"), recent[1].RunID)
	assert.Equal(t, "boom", recent[1].Message)
}

func TestMemoryRecorderEvictsOldestBeyondCapacity(t *testing.T) {
	m := history.NewMemoryRecorder(2)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, m.Record(ctx, history.Record{RunID: graph.ID(string(rune('a' + i - 1)))}))
	}

	recent := m.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, graph.ID("b"), recent[0].RunID)
	assert.Equal(t, graph.ID("c"), recent[1].RunID)
}
