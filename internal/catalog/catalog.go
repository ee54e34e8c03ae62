// Package catalog maps match identifiers to the videos uploaded for them.
//
// A video is always written to the blob store before its record is appended,
// so every record points at an existing blob. A failure between the two steps
// leaves at most an orphan blob, which cmd/orphan-sweeper removes later.
package catalog

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/freeplay/yourleague-service/internal/blobstore"
	"github.com/freeplay/yourleague-service/internal/metrics"
	"github.com/freeplay/yourleague-service/internal/storage"
	"github.com/freeplay/yourleague-service/internal/types"
	"github.com/freeplay/yourleague-service/internal/types/media"
)

type Catalog struct {
	store storage.Storage
	blobs blobstore.Store
	now   func() time.Time
	newID func() string
}

func New(store storage.Storage, blobs blobstore.Store) *Catalog {
	return &Catalog{
		store: store,
		blobs: blobs,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// UploadInput is one video upload as handed over by the gateway.
type UploadInput struct {
	MatchID      string
	Title        string
	OriginalName string
	ContentType  string
	Body         io.Reader
	// BaseURL is the service's own externally reachable address; the record
	// URL is BaseURL followed by the storage path.
	BaseURL string
}

// Upload stores the video bytes and then appends the catalog record.
func (c *Catalog) Upload(ctx context.Context, in UploadInput) (media.VideoRecord, error) {
	if strings.TrimSpace(in.MatchID) == "" {
		return media.VideoRecord{}, types.Validationf("matchId is required")
	}
	if in.Body == nil {
		return media.VideoRecord{}, types.Validationf("no video file uploaded")
	}

	blob, err := c.blobs.Store(ctx, in.Body, in.OriginalName)
	if err != nil {
		metrics.VideoUploadsTotal.WithLabelValues(metrics.OutcomeFailed, "blob").Inc()
		return media.VideoRecord{}, err
	}

	rec, err := c.Append(ctx, media.VideoRecord{
		MatchID:      in.MatchID,
		Title:        in.Title,
		Filename:     blob.Name,
		OriginalName: in.OriginalName,
		StoragePath:  blob.Path,
		URL:          strings.TrimRight(in.BaseURL, "/") + blob.Path,
		ContentType:  in.ContentType,
		Size:         blob.Size,
	})
	if err != nil {
		metrics.VideoUploadsTotal.WithLabelValues(metrics.OutcomeFailed, "catalog").Inc()
		slog.Warn("Catalog append failed, blob left without record",
			slog.String("blob", blob.Name),
			slog.String("match_id", in.MatchID),
			slog.String("error", err.Error()))
		return media.VideoRecord{}, err
	}

	metrics.VideoUploadsTotal.WithLabelValues(metrics.OutcomeOK, "").Inc()
	metrics.VideoUploadBytes.Observe(float64(rec.Size))
	slog.Info("Video uploaded",
		slog.String("video_id", rec.ID),
		slog.String("match_id", rec.MatchID),
		slog.String("filename", rec.Filename),
		slog.Int64("size", rec.Size))

	return rec, nil
}

// Append assigns id and uploadedAt when absent and appends the record. The
// blob named by rec.Filename must already be stored.
func (c *Catalog) Append(ctx context.Context, rec media.VideoRecord) (media.VideoRecord, error) {
	if rec.Filename == "" {
		return media.VideoRecord{}, types.Validationf("no file reference supplied")
	}
	if rec.ID == "" {
		rec.ID = c.newID()
	}
	if rec.UploadedAt.IsZero() {
		rec.UploadedAt = c.now().UTC()
	}
	if rec.StoragePath == "" {
		rec.StoragePath = blobstore.PathFor(rec.Filename)
	}

	if err := c.store.Append(ctx, rec); err != nil {
		return media.VideoRecord{}, err
	}
	return rec, nil
}

// ListByMatch returns the match's videos in upload order; an unknown match
// yields an empty slice.
func (c *Catalog) ListByMatch(ctx context.Context, matchID string) ([]media.VideoRecord, error) {
	records, err := c.store.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []media.VideoRecord{}
	}
	return records, nil
}

// OpenBlob streams the bytes of a stored video.
func (c *Catalog) OpenBlob(ctx context.Context, name string) (io.ReadCloser, error) {
	return c.blobs.Open(ctx, name)
}
