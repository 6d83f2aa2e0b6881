// Package vscdb reads VS Code-style state databases (state.vscdb) strictly
// read-only. The host editor may hold the same file open at any time, so the
// reader never takes an exclusive lock and never issues a write. Two logical
// tables are exposed: ItemTable (single-value settings) and cursorDiskKV
// (generic key -> blob).
package vscdb

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// ErrStore marks a driver-level failure (file missing, corrupt, busy).
// Callers treat it as fatal for the current provider call only.
var ErrStore = errors.New("store error")

// Reader is a handle factory for one database file. Each operation opens a
// fresh connection and closes it before returning, so a Reader is safe to
// keep around but never pins the underlying file.
type Reader struct {
	path string
}

// NewReader returns a Reader for the database at path. The file is not
// touched until the first query.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

func (r *Reader) open() (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=2000", dsnPath(r.path))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStore, r.path, err)
	}
	return db, nil
}

// dsnPath escapes the characters the driver's DSN parser and SQLite's URI
// handling treat specially, so a literal '?', '#' or '%' in the file path
// never splits off bogus options. '%' goes first so the escapes themselves
// survive SQLite's percent decoding.
func dsnPath(path string) string {
	r := strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")
	return r.Replace(path)
}

// Item fetches a value from ItemTable by key. A missing row is reported as
// found=false with a nil error.
func (r *Reader) Item(key string) (string, bool, error) {
	return r.queryOne("SELECT value FROM ItemTable WHERE key = ?", key)
}

// KV fetches a value from the cursorDiskKV blob table by key. Blob values
// are cast to text.
func (r *Reader) KV(key string) (string, bool, error) {
	return r.queryOne("SELECT CAST(value AS TEXT) FROM cursorDiskKV WHERE key = ?", key)
}

func (r *Reader) queryOne(query, key string) (string, bool, error) {
	db, err := r.open()
	if err != nil {
		return "", false, err
	}
	defer db.Close()

	var value string
	err = db.QueryRow(query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("%w: query %s: %v", ErrStore, r.path, err)
	}
	return value, true, nil
}

// ScanKV returns raw cursorDiskKV values whose key starts with prefix and
// whose text contains substr. Literal '%' and '_' in substr are escaped so
// they never act as wildcards. Up to 2*limit rows are returned: the caller
// applies case-insensitive scoring afterwards, and the headroom absorbs
// false negatives from the coarse byte-level prefilter.
func (r *Reader) ScanKV(prefix, substr string, limit int) ([]string, error) {
	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.Query(
		`SELECT CAST(value AS TEXT) FROM cursorDiskKV
		 WHERE key LIKE ? ESCAPE '\'
		 AND CAST(value AS TEXT) LIKE ? ESCAPE '\'
		 LIMIT ?`,
		escapeLike(prefix)+"%",
		"%"+escapeLike(substr)+"%",
		int64(limit)*2,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", ErrStore, r.path, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", ErrStore, r.path, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scan %s: %v", ErrStore, r.path, err)
	}
	return values, nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	return strings.ReplaceAll(s, "_", `\_`)
}
