package audiocache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/imranpollob/document-echo/internal/config"
	_ "modernc.org/sqlite"
)

// Store is the durable cache tier: a SQLite table of synthesized clips keyed
// by fingerprint. Entries are immutable once written and are never evicted,
// so the cache survives restarts and re-reads of the same document.
type Store struct {
	db    *sql.DB
	log   *slog.Logger
	clock func() time.Time
}

// OpenStore initializes the durable tier at the configured path.
func OpenStore(ctx context.Context, cfg config.CacheConfig, log *slog.Logger) (*Store, error) {
	dir := filepath.Dir(cfg.Path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", cfg.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, log: log, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS clips (
    fingerprint TEXT PRIMARY KEY,
    voice TEXT,
    payload BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL
);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Close releases underlying resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the payload for a fingerprint, or nil when absent.
func (s *Store) Get(ctx context.Context, fingerprint string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM clips WHERE fingerprint = ?`, fingerprint).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// Put writes a clip. Entries are content-addressed, so an existing row is
// left untouched.
func (s *Store) Put(ctx context.Context, fingerprint, voice string, payload []byte) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO clips(fingerprint, voice, payload, created_at) VALUES(?, ?, ?, ?)`,
		fingerprint, voice, payload, s.clock().UTC())
	return err
}
