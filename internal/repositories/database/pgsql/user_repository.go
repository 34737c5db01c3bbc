package pgsql

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	"github.com/manan0901/Vibecoder-sub000/internal/models"
	"github.com/manan0901/Vibecoder-sub000/internal/utils/mapping"
)

type PgxUserRepository struct {
	db *pgxpool.Pool
}

func newPgxUserRepository(db *pgxpool.Pool) external.BuyerStore {
	return &PgxUserRepository{db: db}
}

// Ensure PgxUserRepository implements external.BuyerStore
var _ external.BuyerStore = (*PgxUserRepository)(nil)

func (r *PgxUserRepository) GetBuyer(ctx context.Context, userID string) (*domain.Buyer, error) {
	query := `SELECT user_id, email, is_active FROM users WHERE user_id = $1;`
	var m models.User
	if err := r.db.QueryRow(ctx, query, userID).Scan(&m.UserID, &m.Email, &m.IsActive); err != nil {
		return nil, mapReadError("user "+userID, err)
	}
	b := mapping.ToDomainBuyer(m)
	return &b, nil
}
