package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeplay/yourleague-service/internal/storage"
	"github.com/freeplay/yourleague-service/internal/storage/storagetest"
	"github.com/freeplay/yourleague-service/internal/types"
)

func TestStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage {
		s, err := New(filepath.Join(t.TempDir(), "data", "videos.json"))
		require.NoError(t, err)
		return s
	})
}

func TestStore_ReopenSeesAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos.json")
	ctx := context.Background()

	first, err := New(path)
	require.NoError(t, err)
	require.NoError(t, first.Append(ctx, storagetest.Record("v1", "42")))

	second, err := New(path)
	require.NoError(t, err)
	recs, err := second.ListByMatch(ctx, "42")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "v1", recs[0].ID)
}

func TestStore_MalformedDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "videos.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)

	recs, err := s.ListByMatch(ctx, "42")
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = s.All(ctx)
	assert.ErrorIs(t, err, types.ErrStorage)

	require.NoError(t, s.Append(ctx, storagetest.Record("v1", "42")))
	recs, err = s.ListByMatch(ctx, "42")
	require.NoError(t, err)
	assert.Len(t, recs, 1)

	backups, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, backups, 1)
	data, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

func TestStore_ReadErrorIsReported(t *testing.T) {
	// A directory where the file should be cannot be read as a catalog.
	path := filepath.Join(t.TempDir(), "videos.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	s, err := New(path)
	require.NoError(t, err)

	_, err = s.ListByMatch(context.Background(), "42")
	assert.ErrorIs(t, err, types.ErrStorage)
}
