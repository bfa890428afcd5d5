package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the slice of pgxpool.Pool the repositories need. pgxmock's
// pool interface satisfies it too, which keeps the SQL testable without a
// live server.
type Database interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DBTX is implemented by both Database and pgx.Tx; repository methods that
// must run inside a caller-owned transaction take it explicitly.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ErrVersionConflict is returned when an optimistic-version write matched
// no row: the record changed (or disappeared) after the caller read it.
var ErrVersionConflict = errors.New("record version conflict")

// ErrDuplicateVoucherNumber is returned when an insert trips the
// tenant-unique voucher number constraint. The caller supplied a number
// already in use; retrying the same input can never succeed.
var ErrDuplicateVoucherNumber = errors.New("voucher number already in use")
