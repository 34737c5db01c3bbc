package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	portsrepo "github.com/manan0901/Vibecoder-sub000/internal/core/ports/repositories"
	"github.com/manan0901/Vibecoder-sub000/internal/models"
	"github.com/manan0901/Vibecoder-sub000/internal/utils/mapping"
	"github.com/shopspring/decimal"
)

const transactionColumns = `
	transaction_id, kind, amount, currency_code, status, buyer_id, seller_id, project_id,
	gateway_order_id, gateway_payment_id, parent_transaction_id, receipt_id,
	commission_amount, seller_amount, commission_rate, metadata,
	completed_at, failed_at, refunded_at, created_at, updated_at, version`

type PgxTransactionRepository struct {
	BaseRepository
}

func newPgxTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepositoryFacade {
	return &PgxTransactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var (
	_ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)
	_ portsrepo.LedgerTx                    = (*pgxLedgerTx)(nil)
)

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.Kind,
		&m.Amount,
		&m.CurrencyCode,
		&m.Status,
		&m.BuyerID,
		&m.SellerID,
		&m.ProjectID,
		&m.GatewayOrderID,
		&m.GatewayPaymentID,
		&m.ParentTransactionID,
		&m.ReceiptID,
		&m.CommissionAmount,
		&m.SellerAmount,
		&m.CommissionRate,
		&m.Metadata,
		&m.CompletedAt,
		&m.FailedAt,
		&m.RefundedAt,
		&m.CreatedAt,
		&m.LastUpdatedAt,
		&m.Version,
	)
	if err != nil {
		return domain.Transaction{}, err
	}
	return mapping.ToDomainTransaction(m)
}

func findOne(ctx context.Context, q querier, what, query string, args ...any) (*domain.Transaction, error) {
	txn, err := scanTransaction(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, mapReadError(what, err)
	}
	return &txn, nil
}

func collect(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()
	txns := []domain.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan transaction row", err)
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating transaction rows", err)
	}
	return txns, nil
}

func insertTransaction(ctx context.Context, q querier, txn domain.Transaction) error {
	m, err := mapping.ToModelTransaction(txn)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode transaction", err)
	}
	query := `INSERT INTO payment_transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22);`
	_, err = q.Exec(ctx, query,
		m.TransactionID,
		m.Kind,
		m.Amount,
		m.CurrencyCode,
		m.Status,
		m.BuyerID,
		m.SellerID,
		m.ProjectID,
		m.GatewayOrderID,
		m.GatewayPaymentID,
		m.ParentTransactionID,
		m.ReceiptID,
		m.CommissionAmount,
		m.SellerAmount,
		m.CommissionRate,
		m.Metadata,
		m.CompletedAt,
		m.FailedAt,
		m.RefundedAt,
		m.CreatedAt,
		m.LastUpdatedAt,
		m.Version,
	)
	if err != nil {
		return mapWriteError("failed to insert transaction "+txn.TransactionID, err)
	}
	return nil
}

func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE transaction_id = $1;`
	return findOne(ctx, r.Pool, "transaction "+transactionID, query, transactionID)
}

func (r *PgxTransactionRepository) FindPurchaseByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions
		WHERE gateway_order_id = $1 AND kind = 'PURCHASE';`
	return findOne(ctx, r.Pool, "purchase for order "+gatewayOrderID, query, gatewayOrderID)
}

func (r *PgxTransactionRepository) FindChildTransactions(ctx context.Context, parentTransactionID string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions
		WHERE parent_transaction_id = $1
		ORDER BY created_at ASC, transaction_id ASC;`
	rows, err := r.Pool.Query(ctx, query, parentTransactionID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query child transactions", err)
	}
	return collect(rows)
}

// visibility builds the WHERE clause for a listing filter.
func visibility(filter domain.TransactionFilter) (string, []any, error) {
	switch filter.Role {
	case domain.RoleAdmin:
		return "TRUE", nil, nil
	case domain.RoleSeller:
		return "seller_id = $1", []any{filter.UserID}, nil
	case domain.RoleBuyer:
		return "buyer_id = $1 AND kind <> 'COMMISSION'", []any{filter.UserID}, nil
	}
	return "", nil, apperrors.NewValidationFailedError(fmt.Sprintf("unknown role %q", filter.Role))
}

func (r *PgxTransactionRepository) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	where, args, err := visibility(filter)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM payment_transactions WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to count transactions", err)
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM payment_transactions WHERE %s
		ORDER BY created_at DESC, transaction_id DESC
		LIMIT $%d OFFSET $%d;`, transactionColumns, where, n+1, n+2)
	rows, err := r.Pool.Query(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, apperrors.NewAppError(500, "failed to list transactions", err)
	}
	txns, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

const completedPurchaseExists = `SELECT EXISTS (
	SELECT 1 FROM payment_transactions
	WHERE kind = 'PURCHASE' AND status = 'COMPLETED'
	  AND buyer_id = $1 AND project_id = $2 AND transaction_id <> $3);`

func (r *PgxTransactionRepository) ExistsCompletedPurchase(ctx context.Context, buyerID, projectID string) (bool, error) {
	var exists bool
	if err := r.Pool.QueryRow(ctx, completedPurchaseExists, buyerID, projectID, "").Scan(&exists); err != nil {
		return false, apperrors.NewAppError(500, "failed to check completed purchase", err)
	}
	return exists, nil
}

func (r *PgxTransactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	return insertTransaction(ctx, r.Pool, txn)
}

func (r *PgxTransactionRepository) AnnotateTransaction(ctx context.Context, transactionID string, metadata map[string]any) error {
	meta, err := mapping.MarshalMetadata(metadata)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode metadata", err)
	}
	tag, err := r.Pool.Exec(ctx,
		`UPDATE payment_transactions SET metadata = metadata || $2::jsonb WHERE transaction_id = $1;`,
		transactionID, meta)
	if err != nil {
		return apperrors.NewAppError(500, "failed to annotate transaction "+transactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrNotFound)
	}
	return nil
}

// WithinTx runs fn inside one database transaction and commits when fn returns nil.
func (r *PgxTransactionRepository) WithinTx(ctx context.Context, fn portsrepo.TxFunc) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx) // no-op after commit

	if err := fn(ctx, &pgxLedgerTx{tx: tx}); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

type pgxLedgerTx struct {
	tx pgx.Tx
}

func (t *pgxLedgerTx) LockTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM payment_transactions WHERE transaction_id = $1 FOR UPDATE;`
	return findOne(ctx, t.tx, "transaction "+transactionID, query, transactionID)
}

func (t *pgxLedgerTx) ExistsCompletedPurchase(ctx context.Context, buyerID, projectID, excludeID string) (bool, error) {
	var exists bool
	if err := t.tx.QueryRow(ctx, completedPurchaseExists, buyerID, projectID, excludeID).Scan(&exists); err != nil {
		return false, apperrors.NewAppError(500, "failed to check completed purchase", err)
	}
	return exists, nil
}

func (t *pgxLedgerTx) InsertTransaction(ctx context.Context, txn domain.Transaction) error {
	return insertTransaction(ctx, t.tx, txn)
}

const applyTransition = `
	UPDATE payment_transactions SET
		status             = $3::text,
		version            = version + 1,
		updated_at         = $4,
		completed_at       = CASE WHEN $3::text = 'COMPLETED' THEN $4 ELSE completed_at END,
		failed_at          = CASE WHEN $3::text IN ('FAILED', 'CANCELLED') THEN $4 ELSE failed_at END,
		refunded_at        = CASE WHEN $3::text = 'REFUNDED' THEN $4 ELSE refunded_at END,
		gateway_payment_id = COALESCE(gateway_payment_id, $5),
		commission_amount  = COALESCE($6, commission_amount),
		seller_amount      = COALESCE($7, seller_amount),
		commission_rate    = COALESCE($8, commission_rate),
		metadata           = metadata || $9::jsonb
	WHERE transaction_id = $1 AND status = $2 AND version = $10;`

func (t *pgxLedgerTx) ApplyTransition(ctx context.Context, st domain.StatusTransition) error {
	from := domain.Transaction{Status: st.From}
	if !from.CanTransitionTo(st.To) {
		return apperrors.NewConflictError(fmt.Sprintf("transition %s -> %s not allowed", st.From, st.To))
	}
	meta, err := mapping.MarshalMetadata(st.Metadata)
	if err != nil {
		return apperrors.NewAppError(500, "failed to encode metadata", err)
	}
	var rate decimal.NullDecimal
	if st.CommissionRate != nil {
		rate = decimal.NewNullDecimal(*st.CommissionRate)
	}

	tag, err := t.tx.Exec(ctx, applyTransition,
		st.TransactionID,
		string(st.From),
		string(st.To),
		st.At,
		st.GatewayPaymentID,
		st.CommissionAmount,
		st.SellerAmount,
		rate,
		meta,
		st.ExpectedVersion,
	)
	if err != nil {
		return mapWriteError("failed to transition transaction "+st.TransactionID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewConflictError(fmt.Sprintf("transaction %s changed concurrently", st.TransactionID))
	}
	return nil
}
