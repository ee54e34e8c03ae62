// Package sqlstore keeps the catalog in a single SQL table, on SQLite or
// Postgres. The seq column defines append order.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/freeplay/yourleague-service/internal/types"
	"github.com/freeplay/yourleague-service/internal/types/media"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

var schemas = map[Dialect]string{
	SQLite: `
		CREATE TABLE IF NOT EXISTS videos (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			match_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			filename TEXT NOT NULL,
			original_name TEXT NOT NULL DEFAULT '',
			storage_path TEXT NOT NULL,
			url TEXT NOT NULL,
			content_type TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			uploaded_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_videos_match_id ON videos(match_id, seq);
	`,
	Postgres: `
		CREATE TABLE IF NOT EXISTS videos (
			seq BIGSERIAL PRIMARY KEY,
			id VARCHAR(64) NOT NULL UNIQUE,
			match_id VARCHAR(128) NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			filename VARCHAR(255) NOT NULL,
			original_name TEXT NOT NULL DEFAULT '',
			storage_path TEXT NOT NULL,
			url TEXT NOT NULL,
			content_type VARCHAR(128) NOT NULL DEFAULT '',
			size BIGINT NOT NULL DEFAULT 0,
			uploaded_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_videos_match_id ON videos(match_id, seq);
	`,
}

const columns = `id, match_id, title, filename, original_name, storage_path, url, content_type, size, uploaded_at`

type Store struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to dsn and creates the videos table if needed. For SQLite
// dsn is a file path.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	if _, ok := schemas[dialect]; !ok {
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	if dialect == SQLite {
		dsn = "file:" + dsn + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, types.Wrap(types.ErrStorage, err)
	}
	if dialect == SQLite {
		// One writer at a time; SQLite serializes writes anyway.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, types.Wrap(types.ErrStorage, fmt.Errorf("ping %s: %w", dialect, err))
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}

	slog.Info("Connected to catalog database", slog.String("dialect", string(dialect)))
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	for _, q := range strings.Split(schemas[s.dialect], ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return types.Wrap(types.ErrStorage, fmt.Errorf("create tables: %w", err))
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Append(ctx context.Context, rec media.VideoRecord) error {
	query := s.rebind(`INSERT INTO videos (` + columns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.MatchID, rec.Title, rec.Filename, rec.OriginalName, rec.StoragePath,
		rec.URL, rec.ContentType, rec.Size, rec.UploadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return types.Wrap(types.ErrStorage, fmt.Errorf("insert video: %w", err))
	}
	return nil
}

func (s *Store) ListByMatch(ctx context.Context, matchID string) ([]media.VideoRecord, error) {
	query := s.rebind(`SELECT ` + columns + ` FROM videos WHERE match_id = ? ORDER BY seq`)
	return s.query(ctx, query, matchID)
}

func (s *Store) All(ctx context.Context) ([]media.VideoRecord, error) {
	return s.query(ctx, `SELECT `+columns+` FROM videos ORDER BY seq`)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]media.VideoRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.Wrap(types.ErrStorage, fmt.Errorf("query videos: %w", err))
	}
	defer rows.Close()

	records := make([]media.VideoRecord, 0)
	for rows.Next() {
		var (
			rec        media.VideoRecord
			uploadedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.MatchID, &rec.Title, &rec.Filename, &rec.OriginalName,
			&rec.StoragePath, &rec.URL, &rec.ContentType, &rec.Size, &uploadedAt); err != nil {
			return nil, types.Wrap(types.ErrStorage, fmt.Errorf("scan video: %w", err))
		}
		rec.UploadedAt, err = time.Parse(time.RFC3339Nano, uploadedAt)
		if err != nil {
			return nil, types.Wrap(types.ErrStorage, fmt.Errorf("parse uploaded_at of %s: %w", rec.ID, err))
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, types.Wrap(types.ErrStorage, err)
	}
	return records, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
