// Package store owns the single on-disk SQLite file backing the queue
// (§4.A). It exposes only transactional primitives; queue semantics
// live entirely in the queue package.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/neonwatty/tfq/internal/errs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const busyTimeoutMillis = 5000

// Store owns the database handle. One Store per process; the handle is
// opened once and closed on exit (§5 "Resource discipline").
type Store struct {
	db   *sql.DB
	path string
}

// Open uses path as given ("~" and relative paths are resolved earlier,
// by config.ExpandPath), creates the parent directory if absent, opens
// the database in WAL journal mode with a 5000ms busy timeout, and
// applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", dir, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyTimeoutMillis)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errs.Store("open", err)
	}

	// SQLite permits exactly one writer; serialize through a single
	// connection so "database is locked" surfaces as a busy-timeout
	// wait instead of a spurious connection-pool race.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		_ = db.Close()
		return nil, errs.Store("set WAL mode", err)
	}
	if _, err := db.Exec(fmt.Sprintf(`PRAGMA busy_timeout = %d`, busyTimeoutMillis)); err != nil {
		_ = db.Close()
		return nil, errs.Store("set busy_timeout", err)
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if err := ensureLegacyColumns(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, path: path}, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return errs.Store("set migration dialect", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return errs.Store("run migrations", err)
	}
	return nil
}

// ensureLegacyColumns covers databases created by a pre-goose version
// of the binary: it inspects the live schema and adds any of the
// group/error columns that are missing, per §4.A's migration
// requirement. For databases created by the embedded migrations above
// this is always a no-op.
func ensureLegacyColumns(db *sql.DB) error {
	existing := map[string]bool{}
	rows, err := db.Query(`PRAGMA table_info(failed_tests)`)
	if err != nil {
		return errs.Store("inspect schema", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			dfltValue  sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &primaryKey); err != nil {
			return errs.Store("inspect schema", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return errs.Store("inspect schema", err)
	}

	wanted := map[string]string{
		"error":       "TEXT",
		"group_id":    "INTEGER",
		"group_type":  "TEXT",
		"group_order": "INTEGER",
	}
	for col, ddlType := range wanted {
		if existing[col] {
			continue
		}
		stmt := fmt.Sprintf(`ALTER TABLE failed_tests ADD COLUMN %s %s`, col, ddlType)
		if _, err := db.Exec(stmt); err != nil {
			return errs.Store("add column "+col, err)
		}
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_failed_tests_group ON failed_tests (group_id, group_order)`); err != nil {
		return errs.Store("create group index", err)
	}
	return nil
}

// DB returns the underlying handle for components (queue, grouping)
// that build their own queries; the Store itself never encodes queue
// semantics.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the resolved database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn inside a single transaction, committing on success and
// rolling back on error or panic. Every mutating queue operation goes
// through this to satisfy the atomicity requirements of §3 invariant 4
// and §5.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Store("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return errs.Store("commit transaction", err)
	}
	return nil
}
