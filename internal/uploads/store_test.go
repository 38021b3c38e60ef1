package uploads

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "pastcheck/pkg/domain"
	"pastcheck/pkg/platform/sentinel"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir(), 7*24*time.Hour, slog.Default())
	require.NoError(t, err)
	return store
}

func TestSaveAndRead(t *testing.T) {
	store := newStore(t)
	jobID := id.NewJobID()
	data := []byte("photo-bytes")

	ref, err := store.Save(jobID, data)
	require.NoError(t, err)
	assert.Contains(t, ref, jobID.String())

	got, err := store.Read(ref)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestReadMissing(t *testing.T) {
	store := newStore(t)

	_, err := store.Read(filepath.Join(t.TempDir(), "nope.img"))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := newStore(t)
	ref, err := store.Save(id.NewJobID(), []byte("x"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ref))
	require.NoError(t, store.Delete(ref), "deleting a missing file is not an error")

	_, err = store.Read(ref)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, 7*24*time.Hour, slog.Default())
	require.NoError(t, err)

	freshRef, err := store.Save(id.NewJobID(), []byte("fresh"))
	require.NoError(t, err)
	staleRef, err := store.Save(id.NewJobID(), []byte("stale"))
	require.NoError(t, err)

	// Age the stale file past the retention cutoff.
	old := time.Now().Add(-8 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(staleRef, old, old))

	removed, err := store.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Read(freshRef)
	assert.NoError(t, err)
	_, err = store.Read(staleRef)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestUploadPermissions(t *testing.T) {
	store := newStore(t)
	ref, err := store.Save(id.NewJobID(), []byte("private"))
	require.NoError(t, err)

	info, err := os.Stat(ref)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
