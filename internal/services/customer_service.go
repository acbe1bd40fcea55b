package services

import (
	"errors"
	"fmt"

	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/permissions"
	"github.com/plankhq/plank-api/internal/realtime"
	"github.com/plankhq/plank-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidSeats     = errors.New("seat count must be positive")
	ErrCustomerNotFound = errors.New("customer record not found")
)

// CustomerService provides business logic for workspace billing
// records. Webhook-driven transitions carry no acting user and skip
// permission checks.
type CustomerService struct {
	db            *gorm.DB
	customerRepo  repository.CustomerRepository
	workspaceRepo repository.WorkspaceRepository
	broadcaster   *realtime.Broadcaster
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(
	db *gorm.DB,
	customerRepo repository.CustomerRepository,
	workspaceRepo repository.WorkspaceRepository,
	broadcaster *realtime.Broadcaster,
) *CustomerService {
	return &CustomerService{
		db:            db,
		customerRepo:  customerRepo,
		workspaceRepo: workspaceRepo,
		broadcaster:   broadcaster,
	}
}

// GetForWorkspace returns the customer record of a workspace. Only
// owners see billing state.
func (s *CustomerService) GetForWorkspace(userID uint64, workspaceUUID string) (*models.Customer, error) {
	workspace, err := s.workspaceRepo.FindByUUID(workspaceUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("workspace %s", workspaceUUID)
		}
		return nil, err
	}
	if err := permissions.Check(s.db, userID, workspace.ID, permissions.ActionRead, permissions.ResourceInvite); err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.FindByWorkspaceID(workspace.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}

// Activate switches a customer onto the full plan with the given seat
// count. Called when a checkout completes.
func (s *CustomerService) Activate(customerUUID string, stripeCustomerID string, seats int) (*models.Customer, error) {
	if seats < 1 {
		return nil, ErrInvalidSeats
	}
	customer, err := s.findByUUID(customerUUID)
	if err != nil {
		return nil, err
	}

	customer.SubscriptionStatus = models.SubscriptionActive
	customer.StripeCustomerID = stripeCustomerID
	customer.Seats = seats
	if err := s.customerRepo.Update(customer); err != nil {
		return nil, fmt.Errorf("failed to activate customer: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, customer.WorkspaceID)
	return customer, nil
}

// SetSeats updates the seat count of an active subscription. Called
// when the subscription changes upstream.
func (s *CustomerService) SetSeats(stripeCustomerID string, seats int) (*models.Customer, error) {
	if seats < 1 {
		return nil, ErrInvalidSeats
	}
	customer, err := s.findByStripeID(stripeCustomerID)
	if err != nil {
		return nil, err
	}

	customer.Seats = seats
	if err := s.customerRepo.Update(customer); err != nil {
		return nil, fmt.Errorf("failed to update seats: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, customer.WorkspaceID)
	return customer, nil
}

// Cancel drops a customer back to the cancelled state. The workspace
// keeps its data but new creations fall under trial quotas again.
func (s *CustomerService) Cancel(stripeCustomerID string) (*models.Customer, error) {
	customer, err := s.findByStripeID(stripeCustomerID)
	if err != nil {
		return nil, err
	}

	customer.SubscriptionStatus = models.SubscriptionCancelled
	if err := s.customerRepo.Update(customer); err != nil {
		return nil, fmt.Errorf("failed to cancel customer: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, customer.WorkspaceID)
	return customer, nil
}

// GrantCustom marks a customer as custom-billed, which counts as a full
// plan without a subscription. Operator use only.
func (s *CustomerService) GrantCustom(customerUUID string) (*models.Customer, error) {
	customer, err := s.findByUUID(customerUUID)
	if err != nil {
		return nil, err
	}

	customer.SubscriptionStatus = models.SubscriptionCustom
	if err := s.customerRepo.Update(customer); err != nil {
		return nil, fmt.Errorf("failed to update customer: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, customer.WorkspaceID)
	return customer, nil
}

func (s *CustomerService) findByUUID(uuid string) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.Where("uuid = ?", uuid).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (s *CustomerService) findByStripeID(stripeCustomerID string) (*models.Customer, error) {
	customer, err := s.customerRepo.FindByStripeCustomerID(stripeCustomerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return customer, nil
}
