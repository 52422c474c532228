package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS runs (
    namespace     TEXT PRIMARY KEY,
    run_id        TEXT NOT NULL,
    input_file    TEXT NOT NULL,
    mode          TEXT NOT NULL DEFAULT 'memory',
    total_entries INTEGER NOT NULL DEFAULT 0,
    total_chars   INTEGER NOT NULL DEFAULT 0,
    chunk_count   INTEGER NOT NULL DEFAULT 0,
    avg_chunk     REAL NOT NULL DEFAULT 0,
    indexed_at    TEXT NOT NULL DEFAULT '',
    stats_mtime   INTEGER NOT NULL DEFAULT 0,
    stats_size    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS chunks (
    namespace    TEXT NOT NULL,
    chunk_number INTEGER NOT NULL,
    session_id   TEXT NOT NULL,
    entry_count  INTEGER NOT NULL,
    file_path    TEXT NOT NULL,
    PRIMARY KEY (namespace, chunk_number)
);

CREATE TABLE IF NOT EXISTS entries (
    namespace    TEXT NOT NULL,
    chunk_number INTEGER NOT NULL,
    entry_index  INTEGER NOT NULL,
    text         TEXT NOT NULL,
    PRIMARY KEY (namespace, chunk_number, entry_index)
);

CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
    text,
    content=entries,
    content_rowid=rowid,
    tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, text) VALUES('delete', old.rowid, old.text);
END;

CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, text) VALUES('delete', old.rowid, old.text);
    INSERT INTO entries_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion should be bumped whenever entry text extraction changes,
// to force a full re-index.
const schemaVersion = "1"

type DB struct {
	db *sql.DB
}

func OpenDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	d := &DB{db: db}
	d.migrateSchemaVersion()
	return d, nil
}

func (d *DB) migrateSchemaVersion() {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err != nil || ver != schemaVersion {
		// force re-index on the next IndexAll
		d.db.Exec("UPDATE runs SET stats_mtime = 0, stats_size = 0")
		d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	}
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Raw() *sql.DB {
	return d.db
}

type RunRow struct {
	Namespace    string
	RunID        string
	InputFile    string
	Mode         string
	TotalEntries int
	TotalChars   int
	ChunkCount   int
	AvgChunk     float64
	IndexedAt    string
	StatsMtime   int64
	StatsSize    int64
}

type ChunkRow struct {
	Namespace   string
	ChunkNumber int
	SessionID   string
	EntryCount  int
	FilePath    string
}

const runColumns = "namespace, run_id, input_file, mode, total_entries, total_chars, chunk_count, avg_chunk, indexed_at, stats_mtime, stats_size"

func scanRun(row interface{ Scan(...any) error }) (*RunRow, error) {
	var r RunRow
	err := row.Scan(&r.Namespace, &r.RunID, &r.InputFile, &r.Mode, &r.TotalEntries,
		&r.TotalChars, &r.ChunkCount, &r.AvgChunk, &r.IndexedAt, &r.StatsMtime, &r.StatsSize)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (d *DB) GetRun(namespace string) (*RunRow, error) {
	r, err := scanRun(d.db.QueryRow("SELECT "+runColumns+" FROM runs WHERE namespace = ?", namespace))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return r, err
}

// ListRuns returns recorded runs, most recently indexed first.
func (d *DB) ListRuns() ([]RunRow, error) {
	rows, err := d.db.Query("SELECT " + runColumns + " FROM runs ORDER BY indexed_at DESC, namespace")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRow
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

func (d *DB) Namespaces() (map[string]struct{}, error) {
	rows, err := d.db.Query("SELECT namespace FROM runs")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}

func (d *DB) DeleteNamespace(namespace string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM entries WHERE namespace = ?",
		"DELETE FROM chunks WHERE namespace = ?",
		"DELETE FROM runs WHERE namespace = ?",
	} {
		if _, err := tx.Exec(q, namespace); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (d *DB) GetChunks(namespace string) ([]ChunkRow, error) {
	rows, err := d.db.Query(
		"SELECT namespace, chunk_number, session_id, entry_count, file_path FROM chunks WHERE namespace = ? ORDER BY chunk_number",
		namespace,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []ChunkRow
	for rows.Next() {
		var c ChunkRow
		if err := rows.Scan(&c.Namespace, &c.ChunkNumber, &c.SessionID, &c.EntryCount, &c.FilePath); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (d *DB) count(table string) (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	return n, err
}

func (d *DB) RunCount() (int, error)   { return d.count("runs") }
func (d *DB) ChunkCount() (int, error) { return d.count("chunks") }
func (d *DB) EntryCount() (int, error) { return d.count("entries") }

// FTSCount is the number of rows in the full-text index; it equals
// EntryCount when the index is in sync.
func (d *DB) FTSCount() (int, error) { return d.count("entries_fts") }
