package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
	"github.com/manan0901/Vibecoder-sub000/internal/models"
	"github.com/manan0901/Vibecoder-sub000/internal/utils/mapping"
)

// PgxProjectRepository reads the marketplace projects table.
type PgxProjectRepository struct {
	BaseRepository
}

func newPgxProjectRepository(pool *pgxpool.Pool) external.ProjectStore {
	return &PgxProjectRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ external.ProjectStore = (*PgxProjectRepository)(nil)

func (r *PgxProjectRepository) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	query := `
		SELECT project_id, seller_id, title, price, currency_code, status, is_active
		FROM projects
		WHERE project_id = $1;
	`
	var m models.Project
	err := r.Pool.QueryRow(ctx, query, projectID).Scan(
		&m.ProjectID,
		&m.SellerID,
		&m.Title,
		&m.Price,
		&m.CurrencyCode,
		&m.Status,
		&m.IsActive,
	)
	if err != nil {
		return nil, mapReadError("project "+projectID, err)
	}
	p := mapping.ToDomainProject(m)
	return &p, nil
}

func (r *PgxProjectRepository) IncrementSaleCount(ctx context.Context, projectID string) error {
	tag, err := r.Pool.Exec(ctx,
		`UPDATE projects SET download_count = download_count + 1, updated_at = NOW() WHERE project_id = $1;`,
		projectID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to increment sale count for project "+projectID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", projectID, apperrors.ErrNotFound)
	}
	return nil
}
