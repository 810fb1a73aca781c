// Package library stores uploaded notebooks in SQLite, keyed by content hash.
package library

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no notebook has the requested id.
var ErrNotFound = errors.New("notebook not found")

// idLength is the number of hex characters of the content hash used as id.
const idLength = 16

const schema = `
CREATE TABLE IF NOT EXISTS notebooks (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	size       INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	content    BLOB NOT NULL
)`

// Entry describes a stored notebook.
type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Library is safe for concurrent use.
type Library struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the library database at path.
func Open(path string) (*Library, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases intact.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Library{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (l *Library) Close() error {
	return l.db.Close()
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

// ID returns the library id for content.
func ID(data []byte) string {
	return ContentHashHex(data)[:idLength]
}

// Put stores raw under name. Storing identical bytes again returns the
// existing entry unchanged.
func (l *Library) Put(ctx context.Context, name string, raw []byte) (Entry, error) {
	id := ID(raw)
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO notebooks (id, name, size, created_at, content) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		id, name, len(raw), l.now().UnixMilli(), raw)
	if err != nil {
		return Entry{}, fmt.Errorf("insert notebook: %w", err)
	}
	return l.entry(ctx, id)
}

// Get returns the entry and raw content for id.
func (l *Library) Get(ctx context.Context, id string) (Entry, []byte, error) {
	var (
		e       Entry
		created int64
		content []byte
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT id, name, size, created_at, content FROM notebooks WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Size, &created, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, nil, fmt.Errorf("query notebook: %w", err)
	}
	e.CreatedAt = time.UnixMilli(created).UTC()
	return e, content, nil
}

func (l *Library) entry(ctx context.Context, id string) (Entry, error) {
	var (
		e       Entry
		created int64
	)
	err := l.db.QueryRowContext(ctx,
		`SELECT id, name, size, created_at FROM notebooks WHERE id = ?`, id).
		Scan(&e.ID, &e.Name, &e.Size, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("query notebook: %w", err)
	}
	e.CreatedAt = time.UnixMilli(created).UTC()
	return e, nil
}

// List returns all entries, newest first.
func (l *Library) List(ctx context.Context) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, name, size, created_at FROM notebooks ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e       Entry
			created int64
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Size, &created); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		e.CreatedAt = time.UnixMilli(created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return entries, nil
}

// Delete removes id, returning ErrNotFound if it was not stored.
func (l *Library) Delete(ctx context.Context, id string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM notebooks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete notebook: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
