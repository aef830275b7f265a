package db

import (
	"context"

	"github.com/jmoiron/sqlx"

	"library-backend/internal/domain"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx.
type DBTX interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// RunInTx begins a transaction and runs fn. fn returning nil commits, an error rolls back.
func RunInTx(ctx context.Context, c *Conn, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := c.DB.BeginTxx(ctx, nil)
	if err != nil {
		return domain.StorageFault("begin tx", err)
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return domain.StorageFault("commit tx", err)
	}
	return nil
}
