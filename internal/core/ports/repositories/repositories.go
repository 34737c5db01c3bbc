package repositories

import "github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"

// RepositoryProvider holds all storage-backed dependencies needed by services.
type RepositoryProvider struct {
	TransactionRepo TransactionRepositoryFacade
	ProjectStore    external.ProjectStore
	BuyerStore      external.BuyerStore
}
