// Package storagetest holds the behaviour every storage.Storage must share.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeplay/yourleague-service/internal/storage"
	"github.com/freeplay/yourleague-service/internal/types/media"
)

// Record builds a complete record for tests.
func Record(id, matchID string) media.VideoRecord {
	return media.VideoRecord{
		ID:          id,
		MatchID:     matchID,
		Title:       "title " + id,
		Filename:    "1-abcd-" + id + ".mp4",
		StoragePath: "/uploads/1-abcd-" + id + ".mp4",
		URL:         "http://localhost:3000/uploads/1-abcd-" + id + ".mp4",
		ContentType: "video/mp4",
		Size:        42,
		UploadedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Run exercises s. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Run("EmptyMatch", func(t *testing.T) {
		s := newStore(t)
		recs, err := s.ListByMatch(context.Background(), "unknown")
		require.NoError(t, err)
		assert.NotNil(t, recs)
		assert.Empty(t, recs)
	})

	t.Run("AppendOrderAndFilter", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Append(ctx, Record("v1", "42")))
		require.NoError(t, s.Append(ctx, Record("v2", "7")))
		require.NoError(t, s.Append(ctx, Record("v3", "42")))

		recs, err := s.ListByMatch(ctx, "42")
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "v1", recs[0].ID)
		assert.Equal(t, "v3", recs[1].ID)
		assert.Equal(t, Record("v1", "42").Filename, recs[0].Filename)
		assert.True(t, Record("v1", "42").UploadedAt.Equal(recs[0].UploadedAt))

		all, err := s.All(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"v1", "v2", "v3"}, ids(all))
	})

	t.Run("ConcurrentAppends", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const n = 25
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs <- s.Append(ctx, Record(fmt.Sprintf("c%02d", i), "99"))
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		recs, err := s.ListByMatch(ctx, "99")
		require.NoError(t, err)
		assert.Len(t, recs, n)

		seen := make(map[string]bool, n)
		for _, r := range recs {
			seen[r.ID] = true
		}
		assert.Len(t, seen, n)
	})
}

func ids(recs []media.VideoRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}
