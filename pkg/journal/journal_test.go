package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xpurge/pkg/logger"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), logger.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRunLifecycle(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	runID, err := j.StartRun(ctx, "delete", "alice", "all time")
	require.NoError(t, err)

	require.NoError(t, j.RecordAction(ctx, Action{RunID: runID, TargetID: "1", Kind: "delete", Outcome: "ok"}))
	require.NoError(t, j.RecordAction(ctx, Action{RunID: runID, TargetID: "2", Kind: "delete", Outcome: "failed", Error: "boom"}))
	require.NoError(t, j.FinishRun(ctx, runID, StateAborted, Counts{Batches: 1, Fetched: 2, Acted: 1}, "action failed for id 2"))

	runs, err := j.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, runID, r.ID)
	assert.Equal(t, StateAborted, r.State)
	assert.Equal(t, Counts{Batches: 1, Fetched: 2, Acted: 1}, r.Counts)
	assert.Equal(t, "alice", r.Username)
	assert.False(t, r.StartedAt.IsZero())
	assert.False(t, r.FinishedAt.IsZero())

	actions, err := j.Actions(ctx, runID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "1", actions[0].TargetID)
	assert.Equal(t, "boom", actions[1].Error)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		j.now = func() time.Time { return at }
		id, err := j.StartRun(ctx, "unlike", "alice", "")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := j.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.Equal(t, StateRunning, runs[0].State)
}

func TestFinishUnknownRun(t *testing.T) {
	j := openTest(t)
	assert.Error(t, j.FinishRun(context.Background(), "missing", StateDone, Counts{}, ""))
}

func TestActionRequiresRun(t *testing.T) {
	j := openTest(t)
	err := j.RecordAction(context.Background(), Action{RunID: "missing", TargetID: "1", Kind: "delete", Outcome: "ok"})
	assert.Error(t, err)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path, logger.NewNopLogger())
	require.NoError(t, err)
	_, err = j.StartRun(ctx, "delete", "alice", "")
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(path, logger.NewNopLogger())
	require.NoError(t, err)
	defer j.Close()

	runs, err := j.RecentRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
