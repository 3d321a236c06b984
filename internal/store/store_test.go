package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dupsweep/internal/domain"
	"dupsweep/internal/services"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func member(path string) domain.HashedSample {
	return domain.HashedSample{Sample: domain.Sample{Record: domain.FileRecord{Path: path, Size: 4}}}
}

func sampleResults() (services.ScanResult, services.ActionResult) {
	scan := services.ScanResult{
		RunID:           uuid.NewString(),
		RootPath:        "/data",
		Files:           10,
		CandidateGroups: 2,
		Groups: []domain.DuplicateGroup{
			{Digest: "aa", Size: 4, Members: []domain.HashedSample{member("/data/a"), member("/data/x/a")}},
			{Digest: "bb", Size: 4, Members: []domain.HashedSample{member("/data/b"), member("/data/y/b"), member("/data/z/b")}},
		},
		Duration: time.Second,
	}
	action := services.ActionResult{
		Type:             domain.ActionMove,
		Groups:           2,
		Kept:             []string{"/data/a", "/data/b"},
		Moved:            map[string]string{"/data/x/a": "/q/1", "/data/y/b": "/q/2"},
		SuccessCount:     2,
		FailureCount:     1,
		ReclaimableBytes: 8,
		Duration:         time.Millisecond,
		Message:          "move complete",
	}
	return scan, action
}

func TestNewRun(t *testing.T) {
	scan, action := sampleResults()
	started := time.Now()

	run, files := NewRun(started, scan, action)

	assert.Equal(t, scan.RunID, run.ID)
	assert.Equal(t, "move", run.Action)
	assert.Equal(t, 2, run.DuplicateGroups)
	assert.Equal(t, time.Second+time.Millisecond, run.Duration)
	require.Len(t, files, 5)
	assert.True(t, files[0].Kept)
	assert.False(t, files[1].Kept)
	assert.Equal(t, "/q/1", files[1].MovedTo)
	assert.Equal(t, 1, files[4].GroupIndex)
	assert.Empty(t, files[4].MovedTo)
}

func TestStore_RecordAndReadBack(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	scan, action := sampleResults()
	started := time.Unix(1_700_000_000, 123)
	run, files := NewRun(started, scan, action)

	require.NoError(t, store.RecordRun(ctx, run, files))

	loaded, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Root, loaded.Root)
	assert.True(t, started.Equal(loaded.StartedAt))
	assert.Equal(t, run.Duration, loaded.Duration)
	assert.Equal(t, uint64(8), loaded.ReclaimableBytes)
	assert.Equal(t, 1, loaded.Failed)

	stored, err := store.DuplicateFiles(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, stored, 5)
	assert.Equal(t, "/data/a", stored[0].Path)
	assert.True(t, stored[0].Kept)
	assert.Equal(t, "/q/1", stored[1].MovedTo)
	assert.Equal(t, "/data/b", stored[2].Path)
	assert.Equal(t, uint64(4), stored[2].Size)
}

func TestStore_ListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Now()
	var ids []string
	for i := 0; i < 3; i++ {
		scan, action := sampleResults()
		run, _ := NewRun(base.Add(time.Duration(i)*time.Minute), scan, action)
		require.NoError(t, store.RecordRun(ctx, run, nil))
		ids = append(ids, run.ID)
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].ID, runs[1].ID, runs[2].ID})

	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestStore_DuplicateRunIsRejected(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	scan, action := sampleResults()
	run, files := NewRun(time.Now(), scan, action)
	require.NoError(t, store.RecordRun(ctx, run, files))

	err := store.RecordRun(ctx, run, files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), run.ID)

	// the failed attempt left nothing behind
	stored, err := store.DuplicateFiles(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 5)
}

func TestStore_UnknownRun(t *testing.T) {
	_, err := openStore(t).GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestStore_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := Open(path)
	require.NoError(t, err)
	scan, action := sampleResults()
	run, files := NewRun(time.Now(), scan, action)
	require.NoError(t, store.RecordRun(context.Background(), run, files))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()
	runs, err := reopened.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
}
