package retention

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openscribe/openscribe/pkg/jobstore"
)

func TestSchedule_DeletesDirAndRecord(t *testing.T) {
	root := t.TempDir()
	store := jobstore.NewStore()

	dir := filepath.Join(root, "job-1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "talk.mp3"), []byte("audio"), 0o644))
	_, err := store.Create("job-1", "talk.mp3", dir)
	require.NoError(t, err)

	m := New(store, root, 20*time.Millisecond, time.Hour, zap.NewNop())
	m.Schedule("job-1", dir)

	// Both artifacts still exist right after completion.
	_, err = os.Stat(dir)
	require.NoError(t, err)
	_, err = store.Get("job-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, statErr := os.Stat(dir)
		_, getErr := store.Get("job-1")
		return os.IsNotExist(statErr) && getErr == jobstore.ErrNotFound
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSchedule_DoubleCleanupIsHarmless(t *testing.T) {
	root := t.TempDir()
	store := jobstore.NewStore()

	dir := filepath.Join(root, "job-1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	_, err := store.Create("job-1", "talk.mp3", dir)
	require.NoError(t, err)

	m := New(store, root, 10*time.Millisecond, time.Hour, zap.NewNop())
	m.Schedule("job-1", dir)
	m.Schedule("job-1", dir)

	require.Eventually(t, func() bool {
		_, statErr := os.Stat(dir)
		return os.IsNotExist(statErr)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, store.Len())
}

func TestSweep_DeletesOnlyStaleDirs(t *testing.T) {
	root := t.TempDir()
	store := jobstore.NewStore()
	m := New(store, root, time.Minute, 30*time.Minute, zap.NewNop())

	stale := filepath.Join(root, "stale-job")
	fresh := filepath.Join(root, "fresh-job")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.MkdirAll(fresh, 0o755))

	// A file at the root must never be touched by the sweep.
	file := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("keep"), 0o644))

	old := time.Now().Add(-40 * time.Minute)
	require.NoError(t, os.Chtimes(stale, old, old))

	require.NoError(t, m.SweepOrphans())

	_, err := os.Stat(stale)
	assert.True(t, os.IsNotExist(err), "stale dir should be deleted")
	_, err = os.Stat(fresh)
	assert.NoError(t, err, "fresh dir should be retained")
	_, err = os.Stat(file)
	assert.NoError(t, err, "plain files are not swept")
}

func TestSweep_DryRunCountsWithoutDeleting(t *testing.T) {
	root := t.TempDir()
	m := New(jobstore.NewStore(), root, time.Minute, 30*time.Minute, zap.NewNop())

	stale := filepath.Join(root, "stale-job")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	count, err := m.Sweep(30*time.Minute, true)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = os.Stat(stale)
	assert.NoError(t, err, "dry run must not delete")
}

func TestSweep_MissingRootIsFine(t *testing.T) {
	m := New(jobstore.NewStore(), filepath.Join(t.TempDir(), "nope"), time.Minute, time.Minute, zap.NewNop())

	count, err := m.Sweep(time.Minute, false)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
