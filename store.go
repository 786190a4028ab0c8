package pubcms

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrSnapshotMissing is returned when no snapshot exists for a key.
var ErrSnapshotMissing = sql.ErrNoRows

// Store wraps a SQLite database holding the last good CMS responses and
// resized Open Graph images.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while a snapshot is written; busy_timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
    key TEXT PRIMARY KEY,
    body TEXT NOT NULL,
    fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS og_images (
    slug TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    data BLOB NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    fetched_at TEXT NOT NULL
);
`)
	return err
}

// SaveSnapshot upserts the JSON encoding of v under key.
func (s *Store) SaveSnapshot(key string, v any, fetched time.Time) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR REPLACE INTO snapshots (key, body, fetched_at) VALUES (?, ?, ?)`,
		key, string(body), fetched.UTC().Format(time.RFC3339Nano))
	return err
}

// LoadSnapshot decodes the snapshot stored under key into v and returns
// when it was fetched. It returns ErrSnapshotMissing if there is none.
func (s *Store) LoadSnapshot(key string, v any) (time.Time, error) {
	var body, fetchedAt string
	err := s.db.QueryRow(`SELECT body, fetched_at FROM snapshots WHERE key = ?`, key).Scan(&body, &fetchedAt)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return time.Time{}, err
	}
	fetched, _ := time.Parse(time.RFC3339Nano, fetchedAt)
	return fetched, nil
}

// DeleteSnapshot removes the snapshot for key, if any.
func (s *Store) DeleteSnapshot(key string) error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE key = ?`, key)
	return err
}

// OGImage is a resized featured image cached per post.
type OGImage struct {
	Slug      string
	Source    string
	Data      []byte
	Width     int
	Height    int
	FetchedAt string
}

// SaveImage upserts the cached Open Graph image for a post.
func (s *Store) SaveImage(img OGImage) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO og_images (slug, source, data, width, height, fetched_at) VALUES (?, ?, ?, ?, ?, ?)`,
		img.Slug, img.Source, img.Data, img.Width, img.Height, img.FetchedAt)
	return err
}

// GetImage returns the cached Open Graph image for slug.
func (s *Store) GetImage(slug string) (OGImage, error) {
	img := OGImage{Slug: slug}
	err := s.db.QueryRow(`SELECT source, data, width, height, fetched_at FROM og_images WHERE slug = ?`, slug).
		Scan(&img.Source, &img.Data, &img.Width, &img.Height, &img.FetchedAt)
	if err != nil {
		return OGImage{}, err
	}
	return img, nil
}
