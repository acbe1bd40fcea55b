package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/permissions"
	"github.com/plankhq/plank-api/internal/realtime"
	"github.com/plankhq/plank-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrInvalidRole       = errors.New("invalid role")
	ErrLastOwner         = errors.New("workspace must keep at least one owner")
	ErrAlreadyMember     = errors.New("user is already a member of this workspace")
	ErrAlreadyInvited    = errors.New("email already has a pending invite")
	ErrInviteEmailNeeded = errors.New("invite email cannot be empty")
)

// TeamMemberService provides business logic for memberships and
// invites.
type TeamMemberService struct {
	db            *gorm.DB
	workspaceRepo repository.WorkspaceRepository
	userRepo      repository.UserRepository
	broadcaster   *realtime.Broadcaster
}

// NewTeamMemberService creates a new TeamMemberService.
func NewTeamMemberService(
	db *gorm.DB,
	workspaceRepo repository.WorkspaceRepository,
	userRepo repository.UserRepository,
	broadcaster *realtime.Broadcaster,
) *TeamMemberService {
	return &TeamMemberService{
		db:            db,
		workspaceRepo: workspaceRepo,
		userRepo:      userRepo,
		broadcaster:   broadcaster,
	}
}

// findMemberByUUID looks up a membership row by its external identifier.
func (s *TeamMemberService) findMemberByUUID(uuid string) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := s.db.Where("uuid = ?", uuid).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("team member %s", uuid)
		}
		return nil, err
	}
	return &member, nil
}

// ListMembers lists the team members of a workspace.
func (s *TeamMemberService) ListMembers(userID uint64, workspaceID uint64) ([]models.TeamMember, error) {
	if err := permissions.Check(s.db, userID, workspaceID, permissions.ActionRead, permissions.ResourceTeamMember); err != nil {
		return nil, err
	}
	var members []models.TeamMember
	err := s.db.Preload("User").
		Where("workspace_id = ?", workspaceID).
		Order("created_at ASC").
		Find(&members).Error
	return members, err
}

// UpdateRole changes the role of a team member. A member may demote
// themselves, but once demoted they no longer hold the role required
// to escalate back.
func (s *TeamMemberService) UpdateRole(userID uint64, memberUUID string, role models.Role) (*models.TeamMember, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	member, err := s.findMemberByUUID(memberUUID)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, member.WorkspaceID, permissions.ActionUpdate, permissions.ResourceTeamMember); err != nil {
		return nil, err
	}
	if member.Role == models.RoleOwner && role != models.RoleOwner {
		owners, err := s.countOwners(member.WorkspaceID)
		if err != nil {
			return nil, err
		}
		if owners <= 1 {
			return nil, ErrLastOwner
		}
	}

	member.Role = role
	if err := s.workspaceRepo.UpdateMember(member); err != nil {
		return nil, fmt.Errorf("failed to update team member: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, member.WorkspaceID)
	return member, nil
}

// RemoveMember removes a membership. Task assignments and chat
// authorships held by the member are detached, not deleted.
func (s *TeamMemberService) RemoveMember(userID uint64, memberUUID string) error {
	member, err := s.findMemberByUUID(memberUUID)
	if err != nil {
		return err
	}
	if err := permissions.Check(s.db, userID, member.WorkspaceID, permissions.ActionDelete, permissions.ResourceTeamMember); err != nil {
		return err
	}
	if member.Role == models.RoleOwner {
		owners, err := s.countOwners(member.WorkspaceID)
		if err != nil {
			return err
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	if err := s.workspaceRepo.RemoveMember(member); err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, member.WorkspaceID)
	return nil
}

func (s *TeamMemberService) countOwners(workspaceID uint64) (int64, error) {
	var count int64
	err := s.db.Model(&models.TeamMember{}).
		Where("workspace_id = ? AND role = ?", workspaceID, models.RoleOwner).
		Count(&count).Error
	return count, err
}

// CreateInviteInput represents parameters to invite an email address.
type CreateInviteInput struct {
	WorkspaceID uint64
	Email       string
	Role        models.Role
}

// CreateInvite records a pending invite. If the invited email already
// belongs to a user, a membership is created immediately instead.
func (s *TeamMemberService) CreateInvite(userID uint64, input CreateInviteInput) (*models.TeamMemberInvite, *models.TeamMember, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, nil, ErrInviteEmailNeeded
	}
	role := input.Role
	if role == "" {
		role = models.RoleObserver
	}
	if !role.Valid() {
		return nil, nil, ErrInvalidRole
	}
	if err := permissions.Check(s.db, userID, input.WorkspaceID, permissions.ActionCreate, permissions.ResourceInvite); err != nil {
		return nil, nil, err
	}

	if user, err := s.userRepo.FindByEmail(email); err == nil {
		if _, err := s.workspaceRepo.FindMember(input.WorkspaceID, user.ID); err == nil {
			return nil, nil, ErrAlreadyMember
		}
		member := &models.TeamMember{
			WorkspaceID: input.WorkspaceID,
			UserID:      user.ID,
			Role:        role,
		}
		if err := s.workspaceRepo.AddMember(member); err != nil {
			return nil, nil, fmt.Errorf("failed to add team member: %w", err)
		}
		s.broadcaster.WorkspaceChanged(s.db, input.WorkspaceID)
		return nil, member, nil
	}

	var existing int64
	if err := s.db.Model(&models.TeamMemberInvite{}).
		Where("workspace_id = ? AND email = ? AND redeemed = ?", input.WorkspaceID, email, false).
		Count(&existing).Error; err != nil {
		return nil, nil, err
	}
	if existing > 0 {
		return nil, nil, ErrAlreadyInvited
	}

	invite := &models.TeamMemberInvite{
		WorkspaceID: input.WorkspaceID,
		Email:       email,
		Role:        role,
	}
	if err := s.workspaceRepo.CreateInvite(invite); err != nil {
		return nil, nil, fmt.Errorf("failed to create invite: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, input.WorkspaceID)
	return invite, nil, nil
}

// ListInvites lists the pending invites of a workspace.
func (s *TeamMemberService) ListInvites(userID uint64, workspaceID uint64) ([]models.TeamMemberInvite, error) {
	if err := permissions.Check(s.db, userID, workspaceID, permissions.ActionRead, permissions.ResourceInvite); err != nil {
		return nil, err
	}
	var invites []models.TeamMemberInvite
	err := s.db.Where("workspace_id = ? AND redeemed = ?", workspaceID, false).
		Order("created_at ASC").
		Find(&invites).Error
	return invites, err
}

// DeleteInvite withdraws a pending invite.
func (s *TeamMemberService) DeleteInvite(userID uint64, inviteUUID string) error {
	invite, err := s.workspaceRepo.FindInviteByUUID(inviteUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("invite %s", inviteUUID)
		}
		return err
	}
	if err := permissions.Check(s.db, userID, invite.WorkspaceID, permissions.ActionDelete, permissions.ResourceInvite); err != nil {
		return err
	}
	if invite.Redeemed {
		return apperrors.Validationf("invite already redeemed")
	}

	if err := s.workspaceRepo.DeleteInvite(invite.ID); err != nil {
		return fmt.Errorf("failed to delete invite: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, invite.WorkspaceID)
	return nil
}
