package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/plankhq/plank-api/internal/constants"
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/realtime"
	"github.com/plankhq/plank-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrPasswordTooShort     = errors.New("password too short")
	ErrEmailRequired        = errors.New("email is required")
	ErrFailedToHashPassword = errors.New("failed to hash password")
)

// AuthService handles authentication related business logic.
type AuthService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	broadcaster *realtime.Broadcaster
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *gorm.DB, userRepo repository.UserRepository, broadcaster *realtime.Broadcaster) *AuthService {
	return &AuthService{
		db:          db,
		userRepo:    userRepo,
		broadcaster: broadcaster,
	}
}

// SignupInput represents the required information to create a new user.
type SignupInput struct {
	Email    string
	Password string
}

// Signup creates a new user and redeems any pending workspace invites
// addressed to their email. Workspaces that gained a member get a fresh
// snapshot pushed.
func (s *AuthService) Signup(input SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if len(input.Password) < constants.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	if _, err := s.userRepo.FindByEmail(email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrFailedToHashPassword
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
	}

	members, err := s.userRepo.CreateRedeemingInvites(user)
	if err != nil {
		return nil, err
	}

	for _, member := range members {
		s.broadcaster.WorkspaceChanged(s.db, member.WorkspaceID)
	}

	return user, nil
}

// LoginInput represents credentials for logging in.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and returns the user.
func (s *AuthService) Login(input LoginInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// GetUser returns a user by ID.
func (s *AuthService) GetUser(id uint64) (*models.User, error) {
	return s.userRepo.FindByID(id)
}
