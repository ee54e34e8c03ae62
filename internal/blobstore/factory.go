package blobstore

import (
	"context"
	"fmt"

	"github.com/freeplay/yourleague-service/internal/config"
)

// Open returns the blob store selected by cfg.Blob.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Blob.Driver {
	case "", "fs":
		return NewFileStore(cfg.Blob.Dir)
	case "minio":
		return NewMinioStore(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Blob.Driver)
	}
}
