package repositories

import (
	"context"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
)

// TransactionReader defines read operations for ledger rows.
type TransactionReader interface {
	// FindTransactionByID retrieves a single ledger row. Returns apperrors.ErrNotFound when missing.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// FindPurchaseByGatewayOrderID retrieves the PURCHASE row opened for a gateway order.
	FindPurchaseByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Transaction, error)

	// FindChildTransactions returns the COMMISSION and REFUND rows of a purchase, oldest first.
	FindChildTransactions(ctx context.Context, parentTransactionID string) ([]domain.Transaction, error)

	// ListTransactions returns one page of rows visible to the filter, newest first, plus the total count.
	ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error)

	// ExistsCompletedPurchase reports whether buyer holds a COMPLETED purchase of project.
	ExistsCompletedPurchase(ctx context.Context, buyerID, projectID string) (bool, error)
}

// TransactionWriter defines non-transactional write operations for ledger rows.
type TransactionWriter interface {
	// SaveTransaction inserts a new row. Returns apperrors.ErrConflict on a uniqueness violation.
	SaveTransaction(ctx context.Context, txn domain.Transaction) error

	// AnnotateTransaction merges metadata into an existing row without touching its status.
	AnnotateTransaction(ctx context.Context, transactionID string, metadata map[string]any) error
}

// LedgerTx is the set of operations available inside a ledger transaction.
type LedgerTx interface {
	// LockTransactionByID loads a row and holds a write lock on it until the transaction ends.
	LockTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ExistsCompletedPurchase is the in-transaction eligibility re-check; excludeID is ignored
	// in the lookup so the row being settled does not count against itself.
	ExistsCompletedPurchase(ctx context.Context, buyerID, projectID, excludeID string) (bool, error)

	// InsertTransaction inserts a new row. Returns apperrors.ErrConflict on a uniqueness violation.
	InsertTransaction(ctx context.Context, txn domain.Transaction) error

	// ApplyTransition moves a row along the state machine. The write is conditional on the
	// row's current status and version; a stale precondition or a uniqueness violation
	// yields apperrors.ErrConflict.
	ApplyTransition(ctx context.Context, st domain.StatusTransition) error
}

// TransactionRepositoryFacade combines all ledger repository interfaces.
type TransactionRepositoryFacade interface {
	TransactionReader
	TransactionWriter
	UnitOfWork
}
