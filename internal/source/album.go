package source

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pleimann/multipicture/internal/logging"
)

const mediaSchema = `
CREATE TABLE IF NOT EXISTS media (
    path TEXT PRIMARY KEY,
    bucket TEXT NOT NULL,
    orientation INTEGER NOT NULL DEFAULT 0,
    date_taken INTEGER NOT NULL DEFAULT 0   -- UnixMilli
);

CREATE INDEX IF NOT EXISTS idx_media_bucket ON media(bucket);
`

// Media is one row of the media index.
type Media struct {
	Path        string
	Bucket      string
	Orientation int
	Taken       time.Time
}

// MediaIndex is a SQLite table of pictures grouped into buckets (albums).
type MediaIndex struct {
	db *sql.DB
}

// OpenMediaIndex opens or creates the index database at path.
func OpenMediaIndex(path string) (*MediaIndex, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open media index: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to media index: %w", err)
	}
	if _, err := db.Exec(mediaSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create media schema: %w", err)
	}
	return &MediaIndex{db: db}, nil
}

func (m *MediaIndex) Close() error {
	return m.db.Close()
}

// Add inserts or replaces one picture.
func (m *MediaIndex) Add(ctx context.Context, md Media) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO media (path, bucket, orientation, date_taken) VALUES (?, ?, ?, ?)`,
		md.Path, md.Bucket, md.Orientation, md.Taken.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to index %s: %w", md.Path, err)
	}
	return nil
}

// Query returns the pictures of a bucket, or of every bucket when bucket is
// empty, oldest first.
func (m *MediaIndex) Query(ctx context.Context, bucket string) ([]Media, error) {
	q := `SELECT path, bucket, orientation, date_taken FROM media`
	var args []any
	if bucket != "" {
		q += ` WHERE bucket = ?`
		args = append(args, bucket)
	}
	q += ` ORDER BY date_taken, path`

	rows, err := m.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query media: %w", err)
	}
	defer rows.Close()

	var out []Media
	for rows.Next() {
		var md Media
		var taken int64
		if err := rows.Scan(&md.Path, &md.Bucket, &md.Orientation, &taken); err != nil {
			return nil, fmt.Errorf("failed to scan media: %w", err)
		}
		md.Taken = time.UnixMilli(taken)
		out = append(out, md)
	}
	return out, rows.Err()
}

// Buckets lists the distinct buckets.
func (m *MediaIndex) Buckets(ctx context.Context) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT DISTINCT bucket FROM media ORDER BY bucket`)
	if err != nil {
		return nil, fmt.Errorf("failed to query buckets: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// IndexFolder adds every picture under dir. Each picture's bucket is the
// name of the directory holding it.
func (m *MediaIndex) IndexFolder(ctx context.Context, dir string) (int, error) {
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !IsPicture(path) {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		meta := readMeta(path)
		md := Media{
			Path:        abs,
			Bucket:      filepath.Base(filepath.Dir(abs)),
			Orientation: meta.Orientation,
			Taken:       meta.Taken,
		}
		if err := m.Add(ctx, md); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// AlbumPicker cycles through one bucket of a media index.
type AlbumPicker struct {
	dbPath string
	bucket string

	mu     sync.Mutex
	index  *MediaIndex
	cyc    *cycle
	start  int
	loaded bool
}

func NewAlbumPicker(dbPath, bucket string, order Order) *AlbumPicker {
	return &AlbumPicker{dbPath: dbPath, bucket: bucket, cyc: newCycle(order)}
}

// Start opens the index. The album source has no change notifications.
func (p *AlbumPicker) Start(hint ScreenHint, notify func()) error {
	if p.dbPath == "" {
		return fmt.Errorf("album picture source: no media index configured")
	}
	idx, err := OpenMediaIndex(p.dbPath)
	if err != nil {
		return fmt.Errorf("album picture source: %w", err)
	}
	p.mu.Lock()
	p.index = idx
	p.start = max(hint.Number, 0)
	p.mu.Unlock()
	return nil
}

// Next returns the following picture of the bucket, or nil when the bucket
// is empty.
func (p *AlbumPicker) Next(ctx context.Context) (*Content, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.index == nil {
		return nil, fmt.Errorf("album picture source not started")
	}

	if len(p.cyc.entries) == 0 || p.cyc.pos >= len(p.cyc.entries) {
		// Reload once per lap so new rows are picked up.
		media, err := p.index.Query(ctx, p.bucket)
		if err != nil {
			return nil, err
		}
		entries := make([]entry, 0, len(media))
		for _, md := range media {
			entries = append(entries, entry{path: md.Path, orientation: md.Orientation, taken: md.Taken})
		}
		offset := 0
		if !p.loaded {
			offset = p.start
			p.loaded = true
		}
		p.cyc.reset(entries, offset)
	}

	e, ok := p.cyc.next()
	if !ok {
		return nil, nil
	}
	if _, err := os.Stat(e.path); err != nil {
		logging.For("source").Debug("indexed picture missing", "path", e.path)
	}
	return &Content{URI: e.path, Orientation: e.orientation}, nil
}

func (p *AlbumPicker) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.index == nil {
		return nil
	}
	err := p.index.Close()
	p.index = nil
	return err
}
