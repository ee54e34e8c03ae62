package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/freeplay/yourleague-service/internal/types"
)

// maxNameAttempts bounds retries when a generated name already exists.
const maxNameAttempts = 5

// FileStore keeps blobs as files in one flat directory.
type FileStore struct {
	dir string
	now func() time.Time
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, types.Wrap(types.ErrStorage, fmt.Errorf("create blob dir: %w", err))
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

// Dir returns the root directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) Store(ctx context.Context, r io.Reader, suggestedName string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return Blob{}, err
	}

	var (
		f    *os.File
		name string
		err  error
	)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name = UniqueName(suggestedName, s.now())
		f, err = os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil || !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return Blob{}, types.Wrap(types.ErrStorage, fmt.Errorf("create blob: %w", err))
	}

	size, err := io.Copy(f, r)
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return Blob{}, types.Wrap(types.ErrStorage, fmt.Errorf("write blob %s: %w", name, err))
	}

	return Blob{Name: name, Path: PathFor(name), Size: size, ModifiedAt: s.now()}, nil
}

func (s *FileStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: blob %q", types.ErrNotFound, name)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: blob %q", types.ErrNotFound, name)
	}
	if err != nil {
		return nil, types.Wrap(types.ErrStorage, err)
	}
	return f, nil
}

func (s *FileStore) List(_ context.Context) ([]Blob, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, types.Wrap(types.ErrStorage, fmt.Errorf("list blobs: %w", err))
	}

	blobs := make([]Blob, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() || !ValidName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		blobs = append(blobs, Blob{
			Name:       e.Name(),
			Path:       PathFor(e.Name()),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return blobs, nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: blob %q", types.ErrNotFound, name)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: blob %q", types.ErrNotFound, name)
	}
	if err != nil {
		return types.Wrap(types.ErrStorage, err)
	}
	return nil
}
