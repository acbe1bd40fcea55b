package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/plankhq/plank-api/internal/models"
	"gorm.io/gorm"
)

// GormUserRepository is a GORM implementation of UserRepository
type GormUserRepository struct {
	db *gorm.DB
}

var (
	// ErrCreateUser is returned when creating a user fails inside the signup transaction.
	ErrCreateUser = errors.New("user repository: create user failed")
	// ErrRedeemInvite is returned when converting an invite into a membership fails inside the signup transaction.
	ErrRedeemInvite = errors.New("user repository: redeem invite failed")
)

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// CreateRedeemingInvites creates the user and converts every unredeemed
// invite addressed to their email into a membership, atomically. Each
// invite is redeemed exactly once.
func (r *GormUserRepository) CreateRedeemingInvites(user *models.User) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateUser, err)
		}

		var invites []models.TeamMemberInvite
		err := tx.Where("email = ? AND redeemed = ?", user.Email, false).
			Find(&invites).Error
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedeemInvite, err)
		}

		now := time.Now()
		for i := range invites {
			member := models.TeamMember{
				WorkspaceID: invites[i].WorkspaceID,
				UserID:      user.ID,
				Role:        invites[i].Role,
			}
			if err := tx.Create(&member).Error; err != nil {
				return fmt.Errorf("%w: %v", ErrRedeemInvite, err)
			}
			err := tx.Model(&invites[i]).
				Updates(map[string]any{"redeemed": true, "redeemed_at": now}).Error
			if err != nil {
				return fmt.Errorf("%w: %v", ErrRedeemInvite, err)
			}
			members = append(members, member)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *GormUserRepository) FindByID(id uint64) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
