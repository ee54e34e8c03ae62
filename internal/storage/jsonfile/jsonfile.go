// Package jsonfile stores the catalog as a single JSON array on disk.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"

	"github.com/freeplay/yourleague-service/internal/types"
	"github.com/freeplay/yourleague-service/internal/types/media"
)

// Store serializes every read-modify-write of the file behind mu. The file is
// replaced atomically, so readers never observe a partial write.
type Store struct {
	mu   sync.RWMutex
	path string
}

func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, types.Wrap(types.ErrStorage, fmt.Errorf("create catalog dir: %w", err))
		}
	}
	return &Store{path: path}, nil
}

func (s *Store) Append(_ context.Context, rec media.VideoRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, malformed, err := s.load()
	if err != nil {
		return err
	}
	if malformed {
		if err := s.preserveCorrupt(); err != nil {
			return err
		}
	}

	records = append(records, rec)
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := renameio.WriteFile(s.path, data, 0o644); err != nil {
		return types.Wrap(types.ErrStorage, fmt.Errorf("write catalog: %w", err))
	}
	return nil
}

func (s *Store) ListByMatch(_ context.Context, matchID string) ([]media.VideoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, _, err := s.load()
	if err != nil {
		return nil, err
	}

	out := make([]media.VideoRecord, 0)
	for _, rec := range records {
		if rec.MatchID == matchID {
			out = append(out, rec)
		}
	}
	return out, nil
}

// All is the maintenance read. Unlike ListByMatch it does not degrade: a
// malformed file is an ErrStorage, so no caller mistakes it for an empty
// catalog.
func (s *Store) All(_ context.Context) ([]media.VideoRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records, malformed, err := s.load()
	if err != nil {
		return nil, err
	}
	if malformed {
		return nil, types.Wrap(types.ErrStorage, fmt.Errorf("catalog %s is malformed", s.path))
	}
	return records, nil
}

func (s *Store) Close() error { return nil }

// load reads the whole collection. A missing or empty file is an empty
// collection; content that does not parse is reported through malformed and
// also read as empty.
func (s *Store) load() (records []media.VideoRecord, malformed bool, err error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []media.VideoRecord{}, false, nil
	}
	if err != nil {
		return nil, false, types.Wrap(types.ErrStorage, fmt.Errorf("read catalog: %w", err))
	}
	if len(data) == 0 {
		return []media.VideoRecord{}, false, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("Catalog file is malformed, treating as empty",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		return []media.VideoRecord{}, true, nil
	}
	if records == nil {
		records = []media.VideoRecord{}
	}
	return records, false, nil
}

// preserveCorrupt moves a malformed catalog aside before it is replaced.
func (s *Store) preserveCorrupt() error {
	backup := fmt.Sprintf("%s.corrupt-%d", s.path, time.Now().UnixNano())
	if err := os.Rename(s.path, backup); err != nil {
		return types.Wrap(types.ErrStorage, fmt.Errorf("preserve malformed catalog: %w", err))
	}
	slog.Warn("Moved malformed catalog file aside", slog.String("backup", backup))
	return nil
}
