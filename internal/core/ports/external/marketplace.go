package external

import (
	"context"

	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
)

// ProjectStore is the marketplace catalogue as seen by the settlement core.
type ProjectStore interface {
	// GetProject returns apperrors.ErrNotFound when the project does not exist.
	GetProject(ctx context.Context, projectID string) (*domain.Project, error)

	// IncrementSaleCount bumps the project's sale counter after a completed purchase.
	IncrementSaleCount(ctx context.Context, projectID string) error
}

// BuyerStore resolves marketplace users acting as buyers.
type BuyerStore interface {
	// GetBuyer returns apperrors.ErrNotFound when the user does not exist.
	GetBuyer(ctx context.Context, userID string) (*domain.Buyer, error)
}
