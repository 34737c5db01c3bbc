package pgsql

import (
	portsrepo "github.com/manan0901/Vibecoder-sub000/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TransactionRepo: newPgxTransactionRepository(dbPool),
		ProjectStore:    newPgxProjectRepository(dbPool),
		BuyerStore:      newPgxUserRepository(dbPool),
	}
}
