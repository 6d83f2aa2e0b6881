package vscdb

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

// newFixtureDB creates a state.vscdb-shaped database with both tables and
// returns its path.
func newFixtureDB(t *testing.T, items, kv map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.vscdb")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	for _, stmt := range []string{
		"CREATE TABLE ItemTable (key TEXT PRIMARY KEY, value BLOB)",
		"CREATE TABLE cursorDiskKV (key TEXT PRIMARY KEY, value BLOB)",
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	for k, v := range items {
		if _, err := db.Exec("INSERT INTO ItemTable (key, value) VALUES (?, ?)", k, v); err != nil {
			t.Fatalf("insert item: %v", err)
		}
	}
	for k, v := range kv {
		if _, err := db.Exec("INSERT INTO cursorDiskKV (key, value) VALUES (?, ?)", k, v); err != nil {
			t.Fatalf("insert kv: %v", err)
		}
	}
	return path
}

func TestItemHitAndMiss(t *testing.T) {
	path := newFixtureDB(t, map[string]string{"composer.composerData": `{"allComposers":[]}`}, nil)
	r := NewReader(path)

	val, found, err := r.Item("composer.composerData")
	if err != nil {
		t.Fatalf("Item returned error: %v", err)
	}
	if !found || val != `{"allComposers":[]}` {
		t.Fatalf("Item returned %q, found=%v", val, found)
	}

	_, found, err = r.Item("missing.key")
	if err != nil {
		t.Fatalf("Item miss returned error: %v", err)
	}
	if found {
		t.Fatal("Item miss should report found=false")
	}
}

func TestKV(t *testing.T) {
	path := newFixtureDB(t, nil, map[string]string{"composerData:abc": `{"_v":6}`})
	r := NewReader(path)

	val, found, err := r.KV("composerData:abc")
	if err != nil {
		t.Fatalf("KV returned error: %v", err)
	}
	if !found || val != `{"_v":6}` {
		t.Fatalf("KV returned %q, found=%v", val, found)
	}
}

func TestScanKVPrefixAndSubstring(t *testing.T) {
	path := newFixtureDB(t, nil, map[string]string{
		"bubbleId:c1:b1": `{"text":"fix the parser"}`,
		"bubbleId:c1:b2": `{"text":"unrelated"}`,
		"composerData:x": `{"text":"fix the parser"}`,
	})
	r := NewReader(path)

	values, err := r.ScanKV("bubbleId:", "parser", 10)
	if err != nil {
		t.Fatalf("ScanKV returned error: %v", err)
	}
	if len(values) != 1 || values[0] != `{"text":"fix the parser"}` {
		t.Fatalf("ScanKV returned %v", values)
	}
}

func TestScanKVEscapesWildcards(t *testing.T) {
	path := newFixtureDB(t, nil, map[string]string{
		"bubbleId:c1:b1": `{"text":"100% done"}`,
		"bubbleId:c1:b2": `{"text":"100 points done"}`,
	})
	r := NewReader(path)

	// A literal '%' in the pattern must not behave as a wildcard.
	values, err := r.ScanKV("bubbleId:", "100% done", 10)
	if err != nil {
		t.Fatalf("ScanKV returned error: %v", err)
	}
	if len(values) != 1 || values[0] != `{"text":"100% done"}` {
		t.Fatalf("ScanKV with literal %% returned %v", values)
	}
}

func TestScanKVDoublesLimit(t *testing.T) {
	kv := make(map[string]string)
	for i := 0; i < 10; i++ {
		kv[string(rune('a'+i))+":key"] = `{"text":"match"}`
	}
	path := newFixtureDB(t, nil, kv)
	r := NewReader(path)

	values, err := r.ScanKV("", "match", 3)
	if err != nil {
		t.Fatalf("ScanKV returned error: %v", err)
	}
	if len(values) != 6 {
		t.Fatalf("ScanKV should cap at 2*limit rows, got %d", len(values))
	}
}

func TestReaderHandlesDSNMetacharsInPath(t *testing.T) {
	// A literal '?', '#' or '%' in the file path must not be parsed as DSN
	// options or a URI fragment.
	path := filepath.Join(t.TempDir(), "state?v=2#100%.vscdb")

	db, err := sql.Open("sqlite3", "file:"+dsnPath(path))
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE ItemTable (key TEXT PRIMARY KEY, value BLOB)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec("INSERT INTO ItemTable (key, value) VALUES (?, ?)", "k", "v"); err != nil {
		t.Fatalf("insert item: %v", err)
	}
	db.Close()

	val, found, err := NewReader(path).Item("k")
	if err != nil {
		t.Fatalf("Item returned error: %v", err)
	}
	if !found || val != "v" {
		t.Fatalf("Item returned %q, found=%v", val, found)
	}
}

func TestMissingFileIsStoreError(t *testing.T) {
	r := NewReader(filepath.Join(t.TempDir(), "nope", "state.vscdb"))
	_, _, err := r.Item("any")
	if !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore for missing file, got %v", err)
	}
}
