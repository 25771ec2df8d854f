package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schema string

// Schema returns the DDL applied by Migrate.
func Schema() string { return schema }

// Migrate applies the embedded schema. It is safe to run on every start.
func Migrate(ctx context.Context, conn DBTX) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("db: apply schema: %w", err)
	}
	return nil
}
