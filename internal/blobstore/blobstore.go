// Package blobstore persists uploaded video bytes under generated, collision
// free names and serves them back unchanged.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PathPrefix is the URL path under which blobs are served by the gateway.
const PathPrefix = "/uploads/"

// Blob describes a stored file.
type Blob struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Store is the byte storage behind the media catalog.
type Store interface {
	// Store writes r under a unique name derived from suggestedName.
	Store(ctx context.Context, r io.Reader, suggestedName string) (Blob, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	List(ctx context.Context) ([]Blob, error)
	Delete(ctx context.Context, name string) error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Sanitize strips every character outside [A-Za-z0-9._-] and any leading
// dots. An empty result becomes "video".
func Sanitize(name string) string {
	// Only the final path element of a client supplied name is kept.
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "video"
	}
	if len(name) > 128 {
		name = name[len(name)-128:]
	}
	return name
}

// UniqueName prefixes the sanitized name with a millisecond timestamp and a
// random token.
func UniqueName(suggestedName string, now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("%d-%x-%s", now.UnixMilli(), id[:4], Sanitize(suggestedName))
}

// PathFor returns the retrieval path of a blob name.
func PathFor(name string) string {
	return PathPrefix + name
}

// NameFromPath is the inverse of PathFor. It reports false for paths that do
// not name a single blob.
func NameFromPath(path string) (string, bool) {
	name, ok := strings.CutPrefix(path, PathPrefix)
	if !ok || !ValidName(name) {
		return "", false
	}
	return name, true
}

// ValidName reports whether name could have been produced by UniqueName.
func ValidName(name string) bool {
	return name != "" && !strings.HasPrefix(name, ".") && !unsafeChars.MatchString(name)
}
