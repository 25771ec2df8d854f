// Package db is the Postgres access layer: row models, the Querier
// interface and its *Queries implementation over database/sql. It follows
// the layout sqlc emits so that it can be regenerated from queries.sql.
package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	PrepareContext(context.Context, string) (*sql.Stmt, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{
		db: tx,
	}
}
