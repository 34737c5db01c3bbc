package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/core/ports/external"
)

// Catalog holds projects and buyers for the in-memory driver.
type Catalog struct {
	mu        sync.RWMutex
	projects  map[string]domain.Project
	buyers    map[string]domain.Buyer
	saleCount map[string]int64
}

func NewCatalog() *Catalog {
	return &Catalog{
		projects:  make(map[string]domain.Project),
		buyers:    make(map[string]domain.Buyer),
		saleCount: make(map[string]int64),
	}
}

var (
	_ external.ProjectStore = (*Catalog)(nil)
	_ external.BuyerStore   = (*Catalog)(nil)
)

// PutProject adds or replaces a project.
func (c *Catalog) PutProject(p domain.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects[p.ProjectID] = p
}

// PutBuyer adds or replaces a buyer.
func (c *Catalog) PutBuyer(b domain.Buyer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buyers[b.UserID] = b
}

func (c *Catalog) GetProject(ctx context.Context, projectID string) (*domain.Project, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.projects[projectID]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", projectID, apperrors.ErrNotFound)
	}
	return &p, nil
}

func (c *Catalog) IncrementSaleCount(ctx context.Context, projectID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.projects[projectID]; !ok {
		return fmt.Errorf("project %s: %w", projectID, apperrors.ErrNotFound)
	}
	c.saleCount[projectID]++
	return nil
}

// SaleCount reports how many completed purchases were counted for projectID.
func (c *Catalog) SaleCount(projectID string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.saleCount[projectID]
}

func (c *Catalog) GetBuyer(ctx context.Context, userID string) (*domain.Buyer, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, ok := c.buyers[userID]
	if !ok {
		return nil, fmt.Errorf("buyer %s: %w", userID, apperrors.ErrNotFound)
	}
	return &b, nil
}
