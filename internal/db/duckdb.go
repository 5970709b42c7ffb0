// Package db stores the hover index: which crates have been processed and,
// per item, the rendered-content hash and presentation strings the daemon
// serves without re-rendering.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb"
)

type DB struct {
	conn *sql.DB
}

func New(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	conn, err := sql.Open("duckdb", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_crate_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_item_id START 1;`,
		`CREATE SEQUENCE IF NOT EXISTS seq_reexport_id START 1;`,

		`CREATE TABLE IF NOT EXISTS crates (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT NOT NULL,
			fetched_at TIMESTAMP,
			processed_at TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(name, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_crates_name ON crates (name)`,

		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER REFERENCES crates(id),
			rustdoc_id TEXT NOT NULL,
			name TEXT NOT NULL,
			path TEXT NOT NULL,
			kind TEXT NOT NULL,
			hover_hash TEXT,
			nav_text TEXT,
			doc_urls TEXT,
			UNIQUE(crate_id, rustdoc_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_crate ON items (crate_id)`,
		`CREATE INDEX IF NOT EXISTS idx_items_path ON items (path)`,

		`CREATE TABLE IF NOT EXISTS reexports (
			id INTEGER PRIMARY KEY,
			crate_id INTEGER NOT NULL REFERENCES crates(id),
			local_prefix TEXT NOT NULL,
			source_crate TEXT NOT NULL,
			source_prefix TEXT NOT NULL,
			UNIQUE(crate_id, local_prefix)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reexports_crate ON reexports (crate_id)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Crate operations ---

type Crate struct {
	ID          int
	Name        string
	Version     string
	FetchedAt   *time.Time
	ProcessedAt *time.Time
	LastUsedAt  time.Time
}

func (db *DB) UpsertCrate(name, version string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, fetched_at, processed_at, last_used_at FROM crates WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt)

	if err == nil {
		return &c, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("checking crate: %w", err)
	}

	_, err = db.conn.Exec(
		`INSERT INTO crates (id, name, version) VALUES (nextval('seq_crate_id'), ?, ?)`,
		name, version,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting crate: %w", err)
	}

	var id int
	if err := db.conn.QueryRow("SELECT currval('seq_crate_id')").Scan(&id); err != nil {
		return nil, fmt.Errorf("getting crate id: %w", err)
	}

	return &Crate{ID: id, Name: name, Version: version, LastUsedAt: time.Now()}, nil
}

func (db *DB) MarkCrateFetched(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET fetched_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) MarkCrateProcessed(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET processed_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) TouchCrate(crateID int) error {
	_, err := db.conn.Exec(`UPDATE crates SET last_used_at = CURRENT_TIMESTAMP WHERE id = ?`, crateID)
	return err
}

func (db *DB) GetCrate(name, version string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, fetched_at, processed_at, last_used_at FROM crates WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetLatestCrate returns the most recently processed crate with the given name.
func (db *DB) GetLatestCrate(name string) (*Crate, error) {
	var c Crate
	err := db.conn.QueryRow(
		`SELECT id, name, version, fetched_at, processed_at, last_used_at
		 FROM crates WHERE name = ? AND processed_at IS NOT NULL
		 ORDER BY processed_at DESC LIMIT 1`, name,
	).Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) ListCrates() ([]Crate, error) {
	rows, err := db.conn.Query(`SELECT id, name, version, fetched_at, processed_at, last_used_at FROM crates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crates []Crate
	for rows.Next() {
		var c Crate
		if err := rows.Scan(&c.ID, &c.Name, &c.Version, &c.FetchedAt, &c.ProcessedAt, &c.LastUsedAt); err != nil {
			return nil, err
		}
		crates = append(crates, c)
	}
	return crates, nil
}

// GetIndexedVersions returns name→version for processed crates matching the
// given names. When multiple versions exist, the latest processed wins.
func (db *DB) GetIndexedVersions(names []string) (map[string]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(names))
	params := make([]interface{}, len(names))
	for i, n := range names {
		placeholders[i] = "?"
		params[i] = n
	}
	query := fmt.Sprintf(`
		SELECT name, version
		FROM (
			SELECT name, version, ROW_NUMBER() OVER (PARTITION BY name ORDER BY processed_at DESC) as rn
			FROM crates
			WHERE name IN (%s) AND processed_at IS NOT NULL
		)
		WHERE rn = 1`, strings.Join(placeholders, ","))

	rows, err := db.conn.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("getting indexed versions: %w", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var name, version string
		if err := rows.Scan(&name, &version); err != nil {
			return nil, err
		}
		result[name] = version
	}
	return result, nil
}

func (db *DB) CountItems(crateID int) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM items WHERE crate_id = ?`, crateID).Scan(&count)
	return count, err
}

// DeleteCrate removes a crate and everything indexed under it.
func (db *DB) DeleteCrate(crateID int) error {
	if err := db.DeleteItemsByCrate(crateID); err != nil {
		return err
	}
	if err := db.DeleteReexportsByCrate(crateID); err != nil {
		return err
	}
	_, err := db.conn.Exec(`DELETE FROM crates WHERE id = ?`, crateID)
	return err
}

// --- Item operations ---

type Item struct {
	ID        int
	CrateID   int
	RustdocID string
	Name      string
	Path      string
	Kind      string
	HoverHash string // content-store key of the rendered hover HTML
	NavText   string // quick-navigate one-liner
	DocURLs   string // JSON-encoded []string of external doc pages
}

func (db *DB) InsertItem(item *Item) error {
	_, err := db.conn.Exec(
		`INSERT INTO items (id, crate_id, rustdoc_id, name, path, kind, hover_hash, nav_text, doc_urls)
		 VALUES (nextval('seq_item_id'), ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.CrateID, item.RustdocID, item.Name, item.Path, item.Kind, item.HoverHash, item.NavText, item.DocURLs,
	)
	if err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}

	return db.conn.QueryRow(
		`SELECT id FROM items WHERE crate_id = ? AND rustdoc_id = ?`,
		item.CrateID, item.RustdocID,
	).Scan(&item.ID)
}

func (db *DB) GetItemByPath(crateID int, path string) (*Item, error) {
	var it Item
	err := db.conn.QueryRow(
		`SELECT id, crate_id, rustdoc_id, name, path, kind, hover_hash, nav_text, doc_urls
		 FROM items WHERE crate_id = ? AND path = ?`,
		crateID, path,
	).Scan(&it.ID, &it.CrateID, &it.RustdocID, &it.Name, &it.Path, &it.Kind, &it.HoverHash, &it.NavText, &it.DocURLs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// SearchItems finds items whose path contains the needle, for bare-name
// lookups from editors that only know the item name.
func (db *DB) SearchItems(crateID int, needle string, limit int) ([]Item, error) {
	rows, err := db.conn.Query(
		`SELECT id, crate_id, rustdoc_id, name, path, kind, hover_hash, nav_text, doc_urls
		 FROM items WHERE crate_id = ? AND (name = ? OR path LIKE '%' || ? || '%')
		 ORDER BY length(path) LIMIT ?`,
		crateID, needle, needle, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CrateID, &it.RustdocID, &it.Name, &it.Path, &it.Kind, &it.HoverHash, &it.NavText, &it.DocURLs); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

func (db *DB) DeleteItemsByCrate(crateID int) error {
	_, err := db.conn.Exec(`DELETE FROM items WHERE crate_id = ?`, crateID)
	return err
}

// --- Reexport operations ---

func (db *DB) InsertReexport(crateID int, localPrefix, sourceCrate, sourcePrefix string) error {
	_, err := db.conn.Exec(
		`INSERT INTO reexports (id, crate_id, local_prefix, source_crate, source_prefix)
		 VALUES (nextval('seq_reexport_id'), ?, ?, ?, ?)
		 ON CONFLICT (crate_id, local_prefix) DO UPDATE SET source_crate = ?, source_prefix = ?`,
		crateID, localPrefix, sourceCrate, sourcePrefix, sourceCrate, sourcePrefix,
	)
	return err
}

func (db *DB) DeleteReexportsByCrate(crateID int) error {
	_, err := db.conn.Exec(`DELETE FROM reexports WHERE crate_id = ?`, crateID)
	return err
}

// ResolveReexport checks if the given path matches a re-export in this crate.
// Tries exact match first, then longest prefix match (for glob re-exports).
func (db *DB) ResolveReexport(crateID int, path string) (sourceCrate, sourcePath string, found bool) {
	var localPrefix, srcCrate, srcPrefix string
	err := db.conn.QueryRow(
		`SELECT local_prefix, source_crate, source_prefix FROM reexports
		 WHERE crate_id = ? AND (local_prefix = ? OR ? LIKE local_prefix || '::%')
		 ORDER BY length(local_prefix) DESC LIMIT 1`,
		crateID, path, path,
	).Scan(&localPrefix, &srcCrate, &srcPrefix)
	if err != nil {
		return "", "", false
	}

	if localPrefix == path {
		return srcCrate, srcPrefix, true
	}
	suffix := path[len(localPrefix):]
	return srcCrate, srcPrefix + suffix, true
}
