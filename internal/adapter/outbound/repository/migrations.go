package repository

import (
	"context"
	_ "embed"

	"snippetcorpus/internal/application/common/slogger"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

// Migrate creates the tables and indexes the repositories need. It is safe to run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	tm := NewTransactionManager(pool)
	err := tm.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := GetQueryInterface(txCtx, pool).Exec(txCtx, schemaSQL)
		return err
	})
	if err != nil {
		return WrapError(err, "migrate schema")
	}
	slogger.Info(ctx, "Database schema is up to date", nil)
	return nil
}
