package repositories

import (
	"context"
)

// TxFunc is the body of a ledger transaction. Returning an error rolls back every write
// made through tx.
type TxFunc func(ctx context.Context, tx LedgerTx) error

// UnitOfWork runs a function inside a single ledger transaction.
type UnitOfWork interface {
	// WithinTx begins a transaction, runs fn and commits when fn returns nil.
	WithinTx(ctx context.Context, fn TxFunc) error
}
