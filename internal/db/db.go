package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "railbite.db"

// noTxMarker as the first line of a script runs it outside a transaction.
const noTxMarker = "-- NO_TX"

//go:embed migrations/*.sql
var migrationsFS embed.FS

var scriptName = regexp.MustCompile(`^(\d{4})_([a-z0-9_]+)\.(up|down)\.sql$`)

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	up      string
	down    string
}

// MigrationStatus reports whether a migration has been applied.
type MigrationStatus struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt string
}

// Open connects to the database at path and brings the schema up to date.
func Open(path string) (*sql.DB, error) {
	d, err := Connect(path)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := Migrate(ctx, d); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Connect opens the database without touching the schema. Foreign keys and the
// busy timeout are set through the DSN so every pooled connection gets them.
func Connect(path string) (*sql.DB, error) {
	if path == "" {
		path = DefaultPath
	}
	d, err := sql.Open("sqlite3", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("connect sqlite %s: %w", path, err)
	}
	// In-memory databases answer "memory" here; the result is not checked.
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
	return d, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Migrations returns the embedded migrations ordered by version.
func Migrations() ([]Migration, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	byVersion := map[int]*Migration{}
	for _, f := range files {
		m := scriptName.FindStringSubmatch(path.Base(f))
		if m == nil {
			return nil, fmt.Errorf("unexpected migration file %s", f)
		}
		version, _ := strconv.Atoi(m[1])
		body, err := migrationsFS.ReadFile(f)
		if err != nil {
			return nil, err
		}
		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: m[2]}
			byVersion[version] = mig
		} else if mig.Name != m[2] {
			return nil, fmt.Errorf("migration %04d has two names: %s and %s", version, mig.Name, m[2])
		}
		if m[3] == "up" {
			mig.up = string(body)
		} else {
			mig.down = string(body)
		}
	}
	out := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.up) == "" {
			return nil, fmt.Errorf("migration %04d_%s has no up script", m.Version, m.Name)
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Migrate applies every migration not yet recorded in schema_migrations.
func Migrate(ctx context.Context, d *sql.DB) error {
	migs, err := Migrations()
	if err != nil {
		return err
	}
	applied, err := appliedAt(ctx, d)
	if err != nil {
		return err
	}
	for _, m := range migs {
		if _, ok := applied[m.Version]; ok {
			continue
		}
		err := runScript(ctx, d, m.up, func(ctx context.Context, ex execer) error {
			_, err := ex.ExecContext(ctx, `INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.Version, m.Name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %04d_%s: %w", m.Version, m.Name, err)
		}
	}
	return nil
}

// RollbackLast reverts the most recently applied migration. It is a no-op on
// an empty history.
func RollbackLast(ctx context.Context, d *sql.DB) error {
	if d == nil {
		return errors.New("rollback: nil database")
	}
	applied, err := appliedAt(ctx, d)
	if err != nil {
		return err
	}
	last := -1
	for v := range applied {
		if v > last {
			last = v
		}
	}
	if last < 0 {
		return nil
	}
	migs, err := Migrations()
	if err != nil {
		return err
	}
	for _, m := range migs {
		if m.Version != last {
			continue
		}
		if strings.TrimSpace(m.down) == "" {
			return fmt.Errorf("migration %04d_%s has no down script", m.Version, m.Name)
		}
		err := runScript(ctx, d, m.down, func(ctx context.Context, ex execer) error {
			_, err := ex.ExecContext(ctx, `DELETE FROM schema_migrations WHERE version = ?`, m.Version)
			return err
		})
		if err != nil {
			return fmt.Errorf("roll back migration %04d_%s: %w", m.Version, m.Name, err)
		}
		return nil
	}
	return fmt.Errorf("applied migration %04d is not embedded in this build", last)
}

// Status lists every embedded migration with its applied state.
func Status(ctx context.Context, d *sql.DB) ([]MigrationStatus, error) {
	migs, err := Migrations()
	if err != nil {
		return nil, err
	}
	applied, err := appliedAt(ctx, d)
	if err != nil {
		return nil, err
	}
	out := make([]MigrationStatus, len(migs))
	for i, m := range migs {
		at, ok := applied[m.Version]
		out[i] = MigrationStatus{Version: m.Version, Name: m.Name, Applied: ok, AppliedAt: at}
	}
	return out, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// runScript executes script and then record, inside one transaction unless the
// script opts out with noTxMarker.
func runScript(ctx context.Context, d *sql.DB, script string, record func(context.Context, execer) error) error {
	if strings.HasPrefix(strings.TrimSpace(script), noTxMarker) {
		if _, err := d.ExecContext(ctx, script); err != nil {
			return err
		}
		return record(ctx, d)
	}
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := record(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// appliedAt maps applied versions to their timestamps, creating the history table on first use.
func appliedAt(ctx context.Context, d *sql.DB) (map[int]string, error) {
	if _, err := d.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    INTEGER PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}
	rows, err := d.QueryContext(ctx, `SELECT version, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int]string{}
	for rows.Next() {
		var (
			v  int
			at string
		)
		if err := rows.Scan(&v, &at); err != nil {
			return nil, err
		}
		out[v] = at
	}
	return out, rows.Err()
}
