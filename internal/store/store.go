// Package store wraps db.Querier with transaction support and runs the
// assessment lifecycle transitions that must persist atomically.
//
// Single-query reads (GetAssessmentByID, ListAssessments, etc.) are called
// directly on db.Querier via Q(); there is no value in proxying them here.
//
// Dependency rule: store imports db and the pure domain packages (lifecycle,
// scoring, report, shortcode). It never imports api, worker, ai or email.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nyashahama/ops-diagnostic-backend/internal/db"
)

// Store holds a *sql.DB for starting transactions and a db.Querier for
// executing queries outside of transactions.
type Store struct {
	pool *sql.DB
	q    db.Querier
	now  func() time.Time
}

// New creates a Store from a live connection pool. The pool must already be
// open and verified before calling New.
func New(pool *sql.DB, q db.Querier) *Store {
	return &Store{pool: pool, q: q, now: time.Now}
}

// Q exposes the underlying Querier for single-query reads.
//
//	a, err := s.Q().GetAssessmentByID(ctx, id)
func (s *Store) Q() db.Querier {
	return s.q
}

// txQuerier receives a transactional Querier. Returning a non-nil error
// rolls the transaction back.
type txQuerier func(ctx context.Context, q db.Querier) error

// withTx begins a serializable transaction, passes a Querier scoped to it to
// fn, and commits on success or rolls back on any error (including panics).
func (s *Store) withTx(ctx context.Context, fn txQuerier) error {
	tx, err := s.pool.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelSerializable,
	})
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	txQ := s.q.(*db.Queries).WithTx(tx)

	if err := fn(ctx, txQ); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("store: fn error: %w; rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit transaction: %w", err)
	}
	return nil
}
