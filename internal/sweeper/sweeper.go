// Package sweeper removes blobs that no catalog record references.
//
// An upload writes the blob before the record, so a failed append leaves an
// orphan. Blobs younger than the grace period are never touched: their record
// may still be on its way.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/freeplay/yourleague-service/internal/blobstore"
	"github.com/freeplay/yourleague-service/internal/metrics"
	"github.com/freeplay/yourleague-service/internal/storage"
)

// ErrVolatileCatalog rejects catalog drivers whose records live only inside
// another process.
var ErrVolatileCatalog = errors.New("orphan sweeper needs a persistent catalog driver")

// CheckCatalogDriver reports whether the sweeper may run against driver.
func CheckCatalogDriver(driver string) error {
	if driver == "memory" {
		return fmt.Errorf("%w, got %q", ErrVolatileCatalog, driver)
	}
	return nil
}

type Sweeper struct {
	blobs  blobstore.Store
	store  storage.Storage
	grace  time.Duration
	dryRun bool
	now    func() time.Time
	logger *slog.Logger
}

func New(blobs blobstore.Store, store storage.Storage, grace time.Duration, dryRun bool, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		blobs:  blobs,
		store:  store,
		grace:  grace,
		dryRun: dryRun,
		now:    time.Now,
		logger: logger,
	}
}

// Result summarises one sweep.
type Result struct {
	Scanned int
	Orphans []string
	Deleted int
	Failed  int
}

// SweepOnce lists every blob, compares it with the catalog and deletes the
// unreferenced ones older than the grace period.
func (s *Sweeper) SweepOnce(ctx context.Context) (Result, error) {
	records, err := s.store.All(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read catalog: %w", err)
	}
	referenced := make(map[string]bool, len(records))
	for _, rec := range records {
		referenced[rec.Filename] = true
		if name, ok := blobstore.NameFromPath(rec.StoragePath); ok {
			referenced[name] = true
		}
	}

	blobs, err := s.blobs.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list blobs: %w", err)
	}

	cutoff := s.now().Add(-s.grace)
	res := Result{Scanned: len(blobs)}
	for _, b := range blobs {
		if referenced[b.Name] || b.ModifiedAt.After(cutoff) {
			continue
		}
		res.Orphans = append(res.Orphans, b.Name)

		if s.dryRun {
			metrics.SweeperBlobsTotal.WithLabelValues("kept").Inc()
			s.logger.Info("Orphan blob found (dry run)",
				"name", b.Name,
				"size", b.Size,
				"modified_at", b.ModifiedAt)
			continue
		}

		if err := s.blobs.Delete(ctx, b.Name); err != nil {
			res.Failed++
			metrics.SweeperBlobsTotal.WithLabelValues("failed").Inc()
			s.logger.Error("Failed to delete orphan blob",
				"name", b.Name,
				"error", err.Error())
			continue
		}
		res.Deleted++
		metrics.SweeperBlobsTotal.WithLabelValues("deleted").Inc()
	}
	return res, nil
}

// Start sweeps once immediately and then on every tick until ctx is done.
func (s *Sweeper) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Orphan sweeper started",
		"interval", interval.String(),
		"grace", s.grace.String(),
		"dry_run", s.dryRun)

	s.run(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Orphan sweeper shutting down")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Sweeper) run(ctx context.Context) {
	startTime := time.Now()

	res, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger.Error("Orphan sweep failed",
			"error", err.Error(),
			"duration_ms", time.Since(startTime).Milliseconds())
		return
	}

	duration := time.Since(startTime)
	s.logger.Info("Completed orphan sweep",
		"blobs_scanned", res.Scanned,
		"orphans", len(res.Orphans),
		"deleted", res.Deleted,
		"failed", res.Failed,
		"duration_ms", duration.Milliseconds())
}
