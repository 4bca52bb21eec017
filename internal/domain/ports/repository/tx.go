package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is the storage-specific transaction handle (pgx.Tx for Postgres).
// Repositories accept it as `qx any`; nil means the pool.
type Tx interface{}

// TransactionManager runs fn inside one transaction. Job and chat use cases
// use it for read-modify-write sequences:
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx Tx) error {
//		job, err := jobs.FindByJobID(ctx, tx, id)
//		...
//		return jobs.UpdateReturnedSuggestionIDs(ctx, tx, id, ids)
//	})
//
// fn's error rolls the transaction back and is returned unchanged.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
