package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	portsrepo "github.com/manan0901/Vibecoder-sub000/internal/core/ports/repositories"
	portssvc "github.com/manan0901/Vibecoder-sub000/internal/core/ports/services"
	"github.com/manan0901/Vibecoder-sub000/internal/dto"
	"github.com/manan0901/Vibecoder-sub000/internal/utils/pagination"
)

type ledgerService struct {
	BaseService
	ledger portsrepo.TransactionReader
}

// NewLedgerService creates the read side of the ledger.
func NewLedgerService(ledger portsrepo.TransactionReader, options ...ServiceOption) portssvc.LedgerReaderSvc {
	return &ledgerService{
		BaseService: newBaseService(options),
		ledger:      ledger,
	}
}

var _ portssvc.LedgerReaderSvc = (*ledgerService)(nil)

func (s *ledgerService) GetStatus(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if s.Cache != nil {
		cached, ok, err := s.Cache.Get(ctx, transactionID)
		switch {
		case err != nil:
			s.LogError(ctx, err, "Status cache read failed", slog.String("transaction_id", transactionID))
		case ok:
			return cached, nil
		}
	}

	txn, err := s.findTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// Only final rows are cached. A live row could be cached after a concurrent
	// transition already invalidated it.
	if s.Cache != nil && txn.IsTerminal() {
		if err := s.Cache.Set(ctx, *txn); err != nil {
			s.LogError(ctx, err, "Status cache write failed", slog.String("transaction_id", transactionID))
		}
	}
	return txn, nil
}

func (s *ledgerService) GetTransactionDetails(ctx context.Context, transactionID, userID string, role domain.UserRole) (*portssvc.TransactionDetails, error) {
	txn, err := s.findTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !canView(txn, userID, role) {
		s.LogInfo(ctx, "Transaction access denied",
			slog.String("transaction_id", transactionID),
			slog.String("user_id", userID),
			slog.String("role", string(role)))
		return nil, apperrors.NewAppError(403, "not a party to this transaction", nil)
	}

	details := &portssvc.TransactionDetails{Transaction: *txn, Children: []domain.Transaction{}}
	if txn.Kind != domain.KindPurchase {
		return details, nil
	}
	children, err := s.ledger.FindChildTransactions(ctx, txn.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("load child transactions: %w", err)
	}
	if role != domain.RoleAdmin {
		children = visibleChildren(children, userID, txn)
	}
	details.Children = children
	return details, nil
}

func (s *ledgerService) ListTransactions(ctx context.Context, userID string, role domain.UserRole, params dto.ListTransactionsParams) (*dto.ListTransactionsResponse, error) {
	if !role.IsValid() {
		return nil, apperrors.NewValidationFailedError("role must be one of buyer, seller, admin")
	}
	if userID == "" && role != domain.RoleAdmin {
		return nil, apperrors.NewValidationFailedError("user id is required")
	}
	if params.Limit > pagination.MaxLimit || params.Limit < 0 || params.Page < 0 {
		return nil, apperrors.NewValidationFailedError(fmt.Sprintf("page must be >= 1 and limit within 1..%d", pagination.MaxLimit))
	}
	page := pagination.Normalize(params.Page, params.Limit)

	txns, total, err := s.ledger.ListTransactions(ctx, domain.TransactionFilter{
		UserID: userID,
		Role:   role,
		Offset: page.Offset,
		Limit:  page.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return &dto.ListTransactionsResponse{
		Transactions: dto.ToTransactionResponses(txns),
		Page:         page.Page,
		Limit:        page.Limit,
		Total:        total,
	}, nil
}

func (s *ledgerService) findTransaction(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	if transactionID == "" {
		return nil, apperrors.NewValidationFailedError("transaction id is required")
	}
	txn, err := s.ledger.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("transaction not found")
		}
		return nil, fmt.Errorf("load transaction: %w", err)
	}
	return txn, nil
}

func canView(txn *domain.Transaction, userID string, role domain.UserRole) bool {
	switch role {
	case domain.RoleAdmin:
		return true
	case domain.RoleBuyer, domain.RoleSeller:
		return userID != "" && (txn.BuyerID == userID || txn.SellerID == userID)
	}
	return false
}

// visibleChildren hides the platform commission row from buyers.
func visibleChildren(children []domain.Transaction, userID string, parent *domain.Transaction) []domain.Transaction {
	if parent.SellerID == userID {
		return children
	}
	out := make([]domain.Transaction, 0, len(children))
	for _, c := range children {
		if c.Kind != domain.KindCommission {
			out = append(out, c)
		}
	}
	return out
}
