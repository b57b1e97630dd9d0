// Package symcache persists the top-level declarations of module files in
// a SQLite database, keyed by path and content hash, so unchanged modules
// are not re-translated on every build.
package symcache

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/strager/anno2c/cgen"
)

// schemaVersion is kept in PRAGMA user_version. A database written with
// another version is emptied and rebuilt.
const schemaVersion = 2

const schema = `
CREATE TABLE IF NOT EXISTS modules (
	path TEXT PRIMARY KEY,
	hash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS symbols (
	path    TEXT NOT NULL,
	idx     INTEGER NOT NULL,
	name    TEXT NOT NULL,
	type    TEXT NOT NULL,
	sizes   TEXT NOT NULL,
	pointer INTEGER NOT NULL,
	dynamic INTEGER NOT NULL,
	PRIMARY KEY (path, idx)
);
CREATE TABLE IF NOT EXISTS deps (
	path TEXT NOT NULL,
	dep  TEXT NOT NULL,
	hash TEXT NOT NULL,
	PRIMARY KEY (path, dep)
);
`

const dropSchema = `
DROP TABLE IF EXISTS modules;
DROP TABLE IF EXISTS symbols;
DROP TABLE IF EXISTS deps;
`

// Module is what is stored for one module file.
type Module struct {
	Symbols []cgen.Symbol
	// Deps maps every module file consulted while translating, directly
	// or through further imports, to its content hash. A file that did
	// not exist has the hash "".
	Deps map[string]string
}

// Cache is safe for concurrent use.
type Cache struct {
	db *sql.DB
}

// Open opens or creates the cache database at dsn. ":memory:" gives a
// private in-memory cache.
func Open(dsn string) (*Cache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol cache: %w", err)
	}
	// One connection: SQLite allows a single writer, and an in-memory
	// database exists per connection.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("failed to read symbol cache version: %w", err)
	}
	if version != schemaVersion {
		if _, err := db.Exec(dropSchema); err != nil {
			return fmt.Errorf("failed to reset symbol cache: %w", err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create symbol cache schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion)); err != nil {
		return fmt.Errorf("failed to set symbol cache version: %w", err)
	}
	return nil
}

// Load returns what is stored for path. ok is false when nothing is
// stored or the stored hash differs from hash. Checking the hashes of
// m.Deps is up to the caller.
func (c *Cache) Load(path, hash string) (m Module, ok bool, err error) {
	var stored string
	err = c.db.QueryRow(`SELECT hash FROM modules WHERE path = ?`, path).Scan(&stored)
	if err == sql.ErrNoRows {
		return Module{}, false, nil
	}
	if err != nil {
		return Module{}, false, fmt.Errorf("query failed: %w", err)
	}
	if stored != hash {
		return Module{}, false, nil
	}

	if m.Symbols, err = c.loadSymbols(path); err != nil {
		return Module{}, false, err
	}
	if m.Deps, err = c.loadDeps(path); err != nil {
		return Module{}, false, err
	}
	return m, true, nil
}

func (c *Cache) loadSymbols(path string) ([]cgen.Symbol, error) {
	rows, err := c.db.Query(`SELECT name, type, sizes, pointer, dynamic FROM symbols WHERE path = ? ORDER BY idx`, path)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var syms []cgen.Symbol
	for rows.Next() {
		var (
			s                cgen.Symbol
			sizes            string
			pointer, dynamic int
		)
		if err := rows.Scan(&s.Name, &s.Type, &sizes, &pointer, &dynamic); err != nil {
			return nil, err
		}
		if sizes != "" {
			s.ArraySizes = strings.Split(sizes, ",")
		}
		s.Pointer = pointer != 0
		s.Dynamic = dynamic != 0
		syms = append(syms, s)
	}
	return syms, rows.Err()
}

func (c *Cache) loadDeps(path string) (map[string]string, error) {
	rows, err := c.db.Query(`SELECT dep, hash FROM deps WHERE path = ?`, path)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	deps := map[string]string{}
	for rows.Next() {
		var dep, hash string
		if err := rows.Scan(&dep, &hash); err != nil {
			return nil, err
		}
		deps[dep] = hash
	}
	return deps, rows.Err()
}

// Store replaces whatever is stored for path.
func (c *Cache) Store(path, hash string, m Module) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"symbols", "deps"} {
		if _, err := tx.Exec(`DELETE FROM `+table+` WHERE path = ?`, path); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO modules (path, hash) VALUES (?, ?)
		ON CONFLICT (path) DO UPDATE SET hash = excluded.hash`, path, hash); err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}
	for i, s := range m.Symbols {
		_, err := tx.Exec(`INSERT INTO symbols (path, idx, name, type, sizes, pointer, dynamic) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			path, i, s.Name, s.Type, strings.Join(s.ArraySizes, ","), boolInt(s.Pointer), boolInt(s.Dynamic))
		if err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
	}
	for dep, depHash := range m.Deps {
		if _, err := tx.Exec(`INSERT INTO deps (path, dep, hash) VALUES (?, ?, ?)`, path, dep, depHash); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
	}
	return tx.Commit()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Len reports how many modules are stored.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM modules`).Scan(&n)
	return n, err
}

func (c *Cache) Close() error {
	return c.db.Close()
}
