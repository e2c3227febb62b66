package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// TxFunc is the body of a transaction. Returning an error rolls the whole unit back.
type TxFunc func(ctxTx context.Context, tx Transaction) error

type TxManager interface {
	// RunMaster выполняет fn в read-write транзакции.
	RunMaster(ctx context.Context, fn TxFunc) error
	// RunReplica выполняет fn в read-only транзакции (согласованное чтение).
	RunReplica(ctx context.Context, fn TxFunc) error
	RunRepeatableRead(ctx context.Context, fn TxFunc) error
}

// Transaction is satisfied by pgx.Tx and *pgxpool.Pool.
type Transaction interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}
