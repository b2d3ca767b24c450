// Package repository implements the persistence layer over PostgreSQL.
// It satisfies the interfaces declared by the importer package.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/huangfeng15/taizhang/internal/importer"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error)
}

// Store owns the connection pool and hands out repositories bound to it.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() { s.pool.Close() }

// Ping verifies connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Repos bundles the stores into the dependency set the importer expects.
func (s *Store) Repos() importer.Repos {
	return importer.Repos{
		Projects:     s.Projects(),
		Procurements: s.Procurements(),
		Contracts:    s.Contracts(),
		Payments:     s.Payments(),
		Evaluations:  s.Evaluations(),
		Tx:           s,
	}
}

func (s *Store) Projects() *ProjectStore         { return &ProjectStore{store: s} }
func (s *Store) Procurements() *ProcurementStore { return &ProcurementStore{store: s} }
func (s *Store) Contracts() *ContractStore       { return &ContractStore{store: s} }
func (s *Store) Payments() *PaymentStore         { return &PaymentStore{store: s} }
func (s *Store) Evaluations() *EvaluationStore   { return &EvaluationStore{store: s} }

type txKey struct{}

// db returns the transaction carried by ctx, or the pool when none is active.
func (s *Store) db(ctx context.Context) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return s.pool
}

// WithinTx runs fn inside a transaction carried through the context. Nested
// calls join the ambient transaction instead of opening a new one. Commit on
// nil return, rollback on error or panic.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// The null* helpers convert zero values to NULL-capable query arguments.
// Decimals travel as their string form; NUMERIC columns accept text input
// and precision survives the round trip.

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullDecimal(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}

// scanNullDecimal converts a NUMERIC value scanned as *string back into a
// NullDecimal.
func scanNullDecimal(s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// timeOrZero maps a NULL timestamp back to the zero time.
func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// stringOrEmpty maps a NULL text column back to "".
func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
