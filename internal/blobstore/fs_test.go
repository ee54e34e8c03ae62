package blobstore

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeplay/yourleague-service/internal/types"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"goal.mp4", "goal.mp4"},
		{"my goal (1).mp4", "mygoal1.mp4"},
		{"../../etc/passwd", "passwd"},
		{`C:\videos\final.mov`, "final.mov"},
		{".hidden.mp4", "hidden.mp4"},
		{"ébé.mp4", "b.mp4"},
		{"", "video"},
		{"???", "video"},
		{"under_score-dash.MP4", "under_score-dash.MP4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "Sanitize(%q)", tt.in)
	}
}

func TestUniqueName(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	a := UniqueName("clip.mp4", now)
	b := UniqueName("clip.mp4", now)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "1700000000123-"))
	assert.True(t, strings.HasSuffix(a, "-clip.mp4"))
	assert.True(t, ValidName(a))
}

func TestNameFromPath(t *testing.T) {
	name, ok := NameFromPath(PathFor("1-abc-clip.mp4"))
	require.True(t, ok)
	assert.Equal(t, "1-abc-clip.mp4", name)

	_, ok = NameFromPath("/uploads/../secret")
	assert.False(t, ok)
	_, ok = NameFromPath("/other/clip.mp4")
	assert.False(t, ok)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	payload := []byte("\x00\x01binary video bytes\xff")
	blob, err := store.Store(ctx, bytes.NewReader(payload), "match final.mp4")
	require.NoError(t, err)

	assert.Equal(t, int64(len(payload)), blob.Size)
	assert.Equal(t, PathFor(blob.Name), blob.Path)
	assert.True(t, strings.HasSuffix(blob.Name, "-matchfinal.mp4"))

	rc, err := store.Open(ctx, blob.Name)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFileStore_SameNameTwice(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := store.Store(ctx, strings.NewReader("first"), "clip.mp4")
	require.NoError(t, err)
	second, err := store.Store(ctx, strings.NewReader("second"), "clip.mp4")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)

	for blob, want := range map[string]string{first.Name: "first", second.Name: "second"} {
		rc, err := store.Open(ctx, blob)
		require.NoError(t, err)
		got, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestFileStore_OpenMissing(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Open(context.Background(), "1-deadbeef-missing.mp4")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = store.Open(context.Background(), "../escape")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestFileStore_ListAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	blob, err := store.Store(ctx, strings.NewReader("x"), "a.mp4")
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	blobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	assert.Equal(t, blob.Name, blobs[0].Name)

	require.NoError(t, store.Delete(ctx, blob.Name))
	assert.ErrorIs(t, store.Delete(ctx, blob.Name), types.ErrNotFound)

	blobs, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, blobs)
}

func TestFileStore_Unwritable(t *testing.T) {
	parent := t.TempDir()
	file := filepath.Join(parent, "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewFileStore(file)
	assert.ErrorIs(t, err, types.ErrStorage)

	dir := filepath.Join(parent, "gone")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	_, err = store.Store(context.Background(), strings.NewReader("x"), "a.mp4")
	assert.ErrorIs(t, err, types.ErrStorage)
}
