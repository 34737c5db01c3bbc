package mapping

import (
	"github.com/manan0901/Vibecoder-sub000/internal/core/domain"
	"github.com/manan0901/Vibecoder-sub000/internal/models"
)

// ProjectStatusApproved is the only marketplace status that can be sold.
const ProjectStatusApproved = "APPROVED"

// ToDomainProject converts a model Project to a domain Project
func ToDomainProject(m models.Project) domain.Project {
	return domain.Project{
		ProjectID:    m.ProjectID,
		SellerID:     m.SellerID,
		Title:        m.Title,
		Price:        m.Price,
		CurrencyCode: m.CurrencyCode,
		Purchasable:  m.IsActive && m.Status == ProjectStatusApproved,
	}
}

// ToDomainBuyer converts a model User to a domain Buyer
func ToDomainBuyer(m models.User) domain.Buyer {
	return domain.Buyer{
		UserID:   m.UserID,
		Email:    m.Email,
		IsActive: m.IsActive,
	}
}
