package audit

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []Event {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []Event{
		{
			RunID: "run-1", TaskID: "t-1", TaskName: "generate_script", AgentRole: "script_generator",
			Status: "completed", StartedAt: start, FinishedAt: start.Add(time.Second),
		},
		{
			RunID: "run-1", TaskID: "t-2", TaskName: "generate_art_direction", AgentRole: "art_director",
			Status: "failed", Error: "model offline", StartedAt: start.Add(time.Second), FinishedAt: start.Add(2 * time.Second),
		},
		{
			RunID: "run-2", TaskID: "t-3", TaskName: "refine_script", AgentRole: "script_refiner",
			Status: "completed", StartedAt: start.Add(time.Minute), FinishedAt: start.Add(time.Minute + time.Second),
		},
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	for _, ev := range sampleEvents() {
		require.NoError(t, store.Record(ctx, ev))
	}

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t-1", all[0].TaskID)
	assert.Equal(t, "t-3", all[2].TaskID)

	run1, err := store.List(ctx, Filter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, run1, 2)
	assert.Equal(t, "generate_script", run1[0].TaskName)
	assert.Equal(t, "generate_art_direction", run1[1].TaskName)

	failed, err := store.List(ctx, Filter{Status: "failed"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "model offline", failed[0].Error)
	assert.Equal(t, "art_director", failed[0].AgentRole)

	refine, err := store.List(ctx, Filter{TaskName: "refine_script"})
	require.NoError(t, err)
	require.Len(t, refine, 1)
	assert.Equal(t, "run-2", refine[0].RunID)
	assert.True(t, refine[0].StartedAt.Equal(sampleEvents()[2].StartedAt))

	limited, err := store.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	db, err := sql.Open("sqlite", "file:stage_audit_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	exerciseStore(t, store)
}

func TestOpenSQLite(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)

	store, err := OpenSQLite("file:open_sqlite_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Record(context.Background(), sampleEvents()[0]))
	events, err := store.List(context.Background(), Filter{RunID: "run-1"})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestNewSQLiteStoreRejectsNilDB(t *testing.T) {
	_, err := NewSQLiteStore(nil)
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	var store Store = Discard{}
	require.NoError(t, store.Record(context.Background(), sampleEvents()[0]))
	events, err := store.List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Empty(t, events)
}
