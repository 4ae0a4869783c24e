package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/pypeit/pypeitfile/internal/pypeit"
)

// Store indexes frames from many reduction files in SQLite.
type Store struct {
	db *sql.DB
}

// Source summarizes one indexed reduction file.
type Source struct {
	Path         string    `json:"path"`
	Spectrograph string    `json:"spectrograph"`
	Frames       int       `json:"frames"`
	IndexedAt    time.Time `json:"indexed_at"`
}

// Entry is one indexed frame.
type Entry struct {
	Source    string  `json:"source"`
	Filename  string  `json:"filename"`
	Directory string  `json:"directory"`
	FrameType string  `json:"frametype"`
	Target    string  `json:"target"`
	Setup     string  `json:"setup"`
	MJD       float64 `json:"mjd,omitempty"`
	Exptime   float64 `json:"exptime,omitempty"`
	Calib     string  `json:"calib"`
	CombID    int     `json:"comb_id"`
	BkgID     int     `json:"bkg_id"`
}

// Query filters Find. Empty fields match everything; Target matches as a
// case-insensitive substring.
type Query struct {
	Source    string
	Target    string
	FrameType pypeit.FrameType
	Setup     string
	Limit     int
}

// Open opens (or creates) the catalog database at path and runs migrations.
func Open(path string) (*Store, error) {
	// busy_timeout avoids "database locked" errors when several indexers run
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sources (
		path TEXT PRIMARY KEY,
		spectrograph TEXT NOT NULL DEFAULT '',
		indexed_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS frames (
		source TEXT NOT NULL REFERENCES sources(path) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		directory TEXT NOT NULL DEFAULT '',
		frametype TEXT NOT NULL DEFAULT '',
		target TEXT NOT NULL DEFAULT '',
		setup TEXT NOT NULL DEFAULT '',
		mjd REAL,
		exptime REAL,
		calib TEXT NOT NULL DEFAULT '',
		comb_id INTEGER NOT NULL DEFAULT -1,
		bkg_id INTEGER NOT NULL DEFAULT -1,
		PRIMARY KEY (source, filename)
	);

	CREATE INDEX IF NOT EXISTS idx_frames_target ON frames(target);
	CREATE INDEX IF NOT EXISTS idx_frames_setup ON frames(setup);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Index replaces every frame recorded for source with the active frames of f.
func (s *Store) Index(ctx context.Context, source string, f *pypeit.File) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM frames WHERE source = ?`, source); err != nil {
		return 0, fmt.Errorf("clear frames: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sources (path, spectrograph, indexed_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET spectrograph = excluded.spectrograph, indexed_at = excluded.indexed_at`,
		source, f.Spectrograph(), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("upsert source: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO frames (source, filename, directory, frametype, target, setup, mjd, exptime, calib, comb_id, bkg_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	dir := ""
	if f.Table != nil && len(f.Table.Paths) > 0 {
		dir = f.Table.Paths[0]
	}

	frames := f.Frames()
	for _, fr := range frames {
		types := make([]string, len(fr.FrameTypes))
		for i, ft := range fr.FrameTypes {
			types[i] = string(ft)
		}
		_, err := stmt.ExecContext(ctx,
			source, fr.Filename, dir, strings.Join(types, ","), fr.Target, fr.Setup,
			nullFloat(fr.MJD), nullFloat(fr.Exptime), fr.Calib, fr.CombID, fr.BkgID)
		if err != nil {
			return 0, fmt.Errorf("insert frame %s: %w", fr.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	slog.Debug("Indexed reduction file", "source", source, "frames", len(frames))
	return len(frames), nil
}

// Remove drops source and its frames from the catalog.
func (s *Store) Remove(ctx context.Context, source string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE path = ?`, source); err != nil {
		return fmt.Errorf("remove source: %w", err)
	}
	return nil
}

// Find returns the indexed frames matching q, ordered by MJD.
func (s *Store) Find(ctx context.Context, q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	if q.Source != "" {
		where = append(where, "source = ?")
		args = append(args, q.Source)
	}
	if q.Target != "" {
		where = append(where, "LOWER(target) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Target)+"%")
	}
	if q.FrameType != "" {
		// frametype is a comma separated set; pad with commas to match whole tokens
		where = append(where, "(',' || frametype || ',') LIKE ?")
		args = append(args, "%,"+string(q.FrameType)+",%")
	}
	if q.Setup != "" {
		where = append(where, "setup = ?")
		args = append(args, q.Setup)
	}

	query := `SELECT source, filename, directory, frametype, target, setup,
		COALESCE(mjd, 0), COALESCE(exptime, 0), calib, comb_id, bkg_id FROM frames`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY mjd, source, filename"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Source, &e.Filename, &e.Directory, &e.FrameType, &e.Target, &e.Setup,
			&e.MJD, &e.Exptime, &e.Calib, &e.CombID, &e.BkgID); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Sources lists the indexed files with their frame counts.
func (s *Store) Sources(ctx context.Context) ([]Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.path, s.spectrograph, s.indexed_at, COUNT(f.filename)
		FROM sources s LEFT JOIN frames f ON f.source = s.path
		GROUP BY s.path ORDER BY s.path`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var out []Source
	for rows.Next() {
		var (
			src       Source
			indexedAt string
		)
		if err := rows.Scan(&src.Path, &src.Spectrograph, &indexedAt, &src.Frames); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		src.IndexedAt, _ = time.Parse(time.RFC3339Nano, indexedAt)
		out = append(out, src)
	}
	return out, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
