package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/freeplay/yourleague-service/internal/blobstore"
	"github.com/freeplay/yourleague-service/internal/catalog"
	"github.com/freeplay/yourleague-service/internal/config"
	"github.com/freeplay/yourleague-service/internal/sweeper"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "Log orphan blobs without deleting them")
	once := flag.Bool("once", false, "Sweep once and exit")

	// Load config; MustLoad parses the flags above.
	cfg := config.MustLoad()
	if !flag.Parsed() {
		flag.Parse()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := sweeper.CheckCatalogDriver(cfg.Catalog.Driver); err != nil {
		log.Fatal(err)
	}

	blobs, err := blobstore.Open(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize blob store:", err)
	}

	store, err := catalog.OpenStorage(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize catalog storage:", err)
	}
	defer store.Close()

	worker := sweeper.New(blobs, store, cfg.Sweeper.Grace, *dryRun, logger)

	if *once {
		res, err := worker.SweepOnce(ctx)
		if err != nil {
			log.Fatal("Orphan sweep failed:", err)
		}
		logger.Info("Orphan sweep done",
			"blobs_scanned", res.Scanned,
			"orphans", len(res.Orphans),
			"deleted", res.Deleted,
			"failed", res.Failed)
		return
	}

	// Start the worker
	worker.Start(ctx, cfg.Sweeper.Interval)

	slog.Info("Orphan sweeper stopped")
}
