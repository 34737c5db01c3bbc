// Package memory is an in-process ledger and marketplace catalogue for local runs and tests.
// It enforces the same uniqueness rules as the PostgreSQL schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	portsrepo "github.com/manan0901/Vibecoder-sub000/internal/core/ports/repositories"
)

// TransactionStore is a mutex-serialized ledger. A ledger transaction holds the store lock
// from begin to commit, which gives the same isolation as row locks on a single row set.
type TransactionStore struct {
	mu   sync.Mutex
	rows map[string]domain.Transaction
	seq  map[string]int64
	next int64
}

// NewTransactionStore creates an empty ledger.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		rows: make(map[string]domain.Transaction),
		seq:  make(map[string]int64),
	}
}

var (
	_ portsrepo.TransactionRepositoryFacade = (*TransactionStore)(nil)
	_ portsrepo.LedgerTx                    = (*ledgerTx)(nil)
)

func (s *TransactionStore) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[transactionID]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrNotFound)
	}
	out := cloneTransaction(row)
	return &out, nil
}

func (s *TransactionStore) FindPurchaseByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows {
		if row.Kind == domain.KindPurchase && row.GatewayOrderID == gatewayOrderID {
			out := cloneTransaction(row)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("purchase for order %s: %w", gatewayOrderID, apperrors.ErrNotFound)
}

func (s *TransactionStore) FindChildTransactions(ctx context.Context, parentTransactionID string) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var children []domain.Transaction
	for _, row := range s.rows {
		if row.ParentTransactionID != nil && *row.ParentTransactionID == parentTransactionID {
			children = append(children, cloneTransaction(row))
		}
	}
	sort.Slice(children, func(i, j int) bool {
		return s.seq[children[i].TransactionID] < s.seq[children[j].TransactionID]
	})
	return children, nil
}

func (s *TransactionStore) ListTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.Transaction
	for _, row := range s.rows {
		if visibleTo(row, filter) {
			matched = append(matched, row)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return s.seq[matched[i].TransactionID] > s.seq[matched[j].TransactionID]
	})

	total := len(matched)
	if filter.Offset >= total {
		return []domain.Transaction{}, total, nil
	}
	end := total
	if filter.Limit > 0 && filter.Offset+filter.Limit < total {
		end = filter.Offset + filter.Limit
	}
	page := make([]domain.Transaction, 0, end-filter.Offset)
	for _, row := range matched[filter.Offset:end] {
		page = append(page, cloneTransaction(row))
	}
	return page, total, nil
}

func (s *TransactionStore) ExistsCompletedPurchase(ctx context.Context, buyerID, projectID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return hasCompletedPurchase(s.rows, nil, buyerID, projectID, ""), nil
}

func (s *TransactionStore) SaveTransaction(ctx context.Context, txn domain.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := checkInsert(s.rows, nil, txn); err != nil {
		return err
	}
	s.put(cloneTransaction(txn))
	return nil
}

func (s *TransactionStore) AnnotateTransaction(ctx context.Context, transactionID string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[transactionID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrNotFound)
	}
	row.Metadata = domain.MergeMetadata(row.Metadata, metadata)
	s.rows[transactionID] = row
	return nil
}

// WithinTx runs fn against a staged view of the ledger and publishes the staged writes
// only when fn succeeds.
func (s *TransactionStore) WithinTx(ctx context.Context, fn portsrepo.TxFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &ledgerTx{store: s, staged: make(map[string]domain.Transaction)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	for _, id := range tx.order {
		s.put(tx.staged[id])
	}
	return nil
}

// put stores row; the caller holds mu.
func (s *TransactionStore) put(row domain.Transaction) {
	if _, exists := s.seq[row.TransactionID]; !exists {
		s.next++
		s.seq[row.TransactionID] = s.next
	}
	s.rows[row.TransactionID] = row
}

// ledgerTx stages writes on top of the committed rows.
type ledgerTx struct {
	store  *TransactionStore
	staged map[string]domain.Transaction
	order  []string
}

func (tx *ledgerTx) get(transactionID string) (domain.Transaction, bool) {
	if row, ok := tx.staged[transactionID]; ok {
		return row, true
	}
	row, ok := tx.store.rows[transactionID]
	return row, ok
}

func (tx *ledgerTx) stage(row domain.Transaction) {
	if _, ok := tx.staged[row.TransactionID]; !ok {
		tx.order = append(tx.order, row.TransactionID)
	}
	tx.staged[row.TransactionID] = row
}

func (tx *ledgerTx) LockTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	row, ok := tx.get(transactionID)
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", transactionID, apperrors.ErrNotFound)
	}
	out := cloneTransaction(row)
	return &out, nil
}

func (tx *ledgerTx) ExistsCompletedPurchase(ctx context.Context, buyerID, projectID, excludeID string) (bool, error) {
	return hasCompletedPurchase(tx.store.rows, tx.staged, buyerID, projectID, excludeID), nil
}

func (tx *ledgerTx) InsertTransaction(ctx context.Context, txn domain.Transaction) error {
	if err := checkInsert(tx.store.rows, tx.staged, txn); err != nil {
		return err
	}
	tx.stage(cloneTransaction(txn))
	return nil
}

func (tx *ledgerTx) ApplyTransition(ctx context.Context, st domain.StatusTransition) error {
	row, ok := tx.get(st.TransactionID)
	if !ok {
		return fmt.Errorf("transaction %s: %w", st.TransactionID, apperrors.ErrNotFound)
	}
	if row.Status != st.From || row.Version != st.ExpectedVersion {
		return apperrors.NewConflictError(fmt.Sprintf("transaction %s changed concurrently", st.TransactionID))
	}
	if !row.CanTransitionTo(st.To) {
		return apperrors.NewConflictError(fmt.Sprintf("transition %s -> %s not allowed", row.Status, st.To))
	}
	if row.Kind == domain.KindPurchase && st.To == domain.StatusCompleted &&
		hasCompletedPurchase(tx.store.rows, tx.staged, row.BuyerID, row.ProjectID, row.TransactionID) {
		return apperrors.NewConflictError("completed purchase already exists for buyer and project")
	}
	tx.stage(st.Apply(cloneTransaction(row)))
	return nil
}

func visibleTo(row domain.Transaction, filter domain.TransactionFilter) bool {
	switch filter.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleSeller:
		return row.SellerID == filter.UserID
	case domain.RoleBuyer:
		return row.BuyerID == filter.UserID && row.Kind != domain.KindCommission
	}
	return false
}

// view merges staged writes over committed rows.
func view(rows, staged map[string]domain.Transaction) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(rows)+len(staged))
	for _, row := range staged {
		out = append(out, row)
	}
	for id, row := range rows {
		if _, shadowed := staged[id]; !shadowed {
			out = append(out, row)
		}
	}
	return out
}

func hasCompletedPurchase(rows, staged map[string]domain.Transaction, buyerID, projectID, excludeID string) bool {
	for _, row := range view(rows, staged) {
		if row.TransactionID != excludeID &&
			row.Kind == domain.KindPurchase &&
			row.Status == domain.StatusCompleted &&
			row.BuyerID == buyerID &&
			row.ProjectID == projectID {
			return true
		}
	}
	return false
}

// checkInsert mirrors the table's unique constraints.
func checkInsert(rows, staged map[string]domain.Transaction, txn domain.Transaction) error {
	if txn.TransactionID == "" {
		return apperrors.NewValidationFailedError("transaction id is required")
	}
	for _, row := range view(rows, staged) {
		switch {
		case row.TransactionID == txn.TransactionID:
			return apperrors.NewConflictError("transaction id already exists")
		case txn.ReceiptID != "" && row.ReceiptID == txn.ReceiptID:
			return apperrors.NewConflictError("receipt id already exists")
		case txn.Kind == domain.KindCommission && row.Kind == domain.KindCommission &&
			row.ParentTransactionID != nil && txn.ParentTransactionID != nil &&
			*row.ParentTransactionID == *txn.ParentTransactionID:
			return apperrors.NewConflictError("commission already recorded for purchase")
		case txn.Kind == domain.KindPurchase && txn.Status == domain.StatusCompleted &&
			row.Kind == domain.KindPurchase && row.Status == domain.StatusCompleted &&
			row.BuyerID == txn.BuyerID && row.ProjectID == txn.ProjectID:
			return apperrors.NewConflictError("completed purchase already exists for buyer and project")
		}
	}
	return nil
}

func cloneTransaction(t domain.Transaction) domain.Transaction {
	if t.Metadata != nil {
		meta := make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			meta[k] = v
		}
		t.Metadata = meta
	}
	return t
}
