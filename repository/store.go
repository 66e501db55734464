package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store groups the repositories bound to one handle: the pool or a transaction.
type Store struct {
	db *sql.DB
	tx *sql.Tx

	Users         UserRepositoryI
	Staff         StaffRepositoryI
	Orders        OrderRepositoryI
	Notifications NotificationRepositoryI
	Reviews       ReviewRepositoryI
	Menu          MenuRepositoryI
}

// NewStore builds a Store on the connection pool.
func NewStore(db *sql.DB) *Store {
	return newStore(db, db, nil)
}

func newStore(db *sql.DB, q DBTX, tx *sql.Tx) *Store {
	return &Store{
		db:            db,
		tx:            tx,
		Users:         &UserRepository{db: q},
		Staff:         &StaffRepository{db: q},
		Orders:        &OrderRepository{db: q},
		Notifications: &NotificationRepository{db: q},
		Reviews:       &ReviewRepository{db: q},
		Menu:          &MenuRepository{db: q},
	}
}

// DB exposes the underlying pool (health checks).
func (s *Store) DB() *sql.DB { return s.db }

// WithTx runs fn with a Store bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise. Calling WithTx on a
// Store that is already transactional reuses the open transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(newStore(s.db, tx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY constraint failure.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

type scanner interface {
	Scan(dest ...any) error
}

func nullInt64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullTimePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}
