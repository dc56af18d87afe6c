package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version TEXT PRIMARY KEY,
    applied_at TEXT NOT NULL
)`

// MigrateUp applies every embedded migration not yet recorded in
// schema_migrations, oldest first.
func MigrateUp(db *sql.DB) error {
	applied, err := appliedSet(db)
	if err != nil {
		return err
	}
	names, err := migrationNames(".up.sql")
	if err != nil {
		return err
	}
	for _, name := range names {
		version := migrationVersion(name)
		if applied[version] {
			continue
		}
		err := runMigration(db, name, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, ?)`,
			version, time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown reverts the applied migrations, newest first.
func MigrateDown(db *sql.DB) error {
	applied, err := appliedSet(db)
	if err != nil {
		return err
	}
	names, err := migrationNames(".down.sql")
	if err != nil {
		return err
	}
	slices.Reverse(names)
	for _, name := range names {
		version := migrationVersion(name)
		if !applied[version] {
			continue
		}
		if err := runMigration(db, name, `DELETE FROM schema_migrations WHERE version = ?`, version); err != nil {
			return err
		}
	}
	return nil
}

// AppliedMigrations lists the recorded migration versions in order.
func AppliedMigrations(db *sql.DB) ([]string, error) {
	applied, err := appliedSet(db)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(applied))
	for v := range applied {
		out = append(out, v)
	}
	slices.Sort(out)
	return out, nil
}

func appliedSet(db *sql.DB) (map[string]bool, error) {
	if _, err := db.Exec(migrationsTable); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration: %w", err)
		}
		out[v] = true
	}
	return out, rows.Err()
}

func migrationNames(suffix string) ([]string, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	slices.Sort(entries)
	return entries, nil
}

// migrationVersion maps migrations/0001_documents.up.sql to 0001.
func migrationVersion(name string) string {
	base := path.Base(name)
	if v, _, ok := strings.Cut(base, "_"); ok {
		return v
	}
	return strings.SplitN(base, ".", 2)[0]
}

// runMigration executes one file and its bookkeeping statement in a single
// transaction.
func runMigration(db *sql.DB, name, record string, args ...any) error {
	body, err := migrationFiles.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", name, err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	if _, err := tx.Exec(string(body)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(record, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", name, err)
	}
	return nil
}
