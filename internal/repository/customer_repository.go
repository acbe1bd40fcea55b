package repository

import (
	"github.com/plankhq/plank-api/internal/models"
	"gorm.io/gorm"
)

// GormCustomerRepository is a GORM implementation of CustomerRepository
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &GormCustomerRepository{db: db}
}

func (r *GormCustomerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

func (r *GormCustomerRepository) FindByWorkspaceID(workspaceID uint64) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("workspace_id = ?", workspaceID).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *GormCustomerRepository) FindByStripeCustomerID(stripeCustomerID string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("stripe_customer_id = ?", stripeCustomerID).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *GormCustomerRepository) Update(customer *models.Customer) error {
	return r.db.Save(customer).Error
}
