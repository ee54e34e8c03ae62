// Package storage defines the record store behind the media catalog.
package storage

import (
	"context"

	"github.com/freeplay/yourleague-service/internal/types/media"
)

// Storage is an append-only, insertion-ordered collection of video records.
// Implementations must be safe for concurrent use.
type Storage interface {
	// Append durably adds a fully populated record.
	Append(ctx context.Context, rec media.VideoRecord) error
	// ListByMatch returns the records of matchID in append order. An unknown
	// matchID yields an empty, non-nil slice.
	ListByMatch(ctx context.Context, matchID string) ([]media.VideoRecord, error)
	// All returns every record in append order. It fails rather than
	// returning a partial or empty view of unreadable content.
	All(ctx context.Context) ([]media.VideoRecord, error)
	Close() error
}
