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
	ErrTitleRequired     = errors.New("title cannot be empty")
	ErrWorkspaceNotEmpty = errors.New("workspace still has projects, members or pending invites")
)

// WorkspaceService provides business logic for workspace operations.
type WorkspaceService struct {
	db            *gorm.DB
	workspaceRepo repository.WorkspaceRepository
	broadcaster   *realtime.Broadcaster
}

// NewWorkspaceService creates a new WorkspaceService.
func NewWorkspaceService(
	db *gorm.DB,
	workspaceRepo repository.WorkspaceRepository,
	broadcaster *realtime.Broadcaster,
) *WorkspaceService {
	return &WorkspaceService{
		db:            db,
		workspaceRepo: workspaceRepo,
		broadcaster:   broadcaster,
	}
}

// CreateWorkspaceInput represents parameters to create a new workspace.
type CreateWorkspaceInput struct {
	Title       string
	Description string
	OwnerID     uint64
}

// CreateWorkspace creates a workspace, makes the creator its owner and
// opens an unpaid (trial) customer record.
func (s *WorkspaceService) CreateWorkspace(input CreateWorkspaceInput) (*models.Workspace, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	workspace := &models.Workspace{
		Title:       input.Title,
		Description: input.Description,
	}
	member := &models.TeamMember{
		UserID: input.OwnerID,
		Role:   models.RoleOwner,
	}
	customer := &models.Customer{
		SubscriptionStatus: models.SubscriptionUnpaid,
	}
	if err := s.workspaceRepo.CreateWithOwner(workspace, member, customer); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, workspace.ID)
	return workspace, nil
}

// visibleWorkspace resolves a workspace UUID within the caller's
// visible scope. Unknown UUIDs and foreign workspaces are identical
// not-found errors.
func (s *WorkspaceService) visibleWorkspace(userID uint64, uuid string) (*models.Workspace, error) {
	workspace, err := s.workspaceRepo.FindByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("workspace %s", uuid)
		}
		return nil, err
	}
	if err := permissions.Check(s.db, userID, workspace.ID, permissions.ActionRead, permissions.ResourceWorkspace); err != nil {
		return nil, err
	}
	return workspace, nil
}

// GetWorkspace returns a workspace with members, labels and projects.
func (s *WorkspaceService) GetWorkspace(userID uint64, uuid string) (*models.Workspace, error) {
	workspace, err := s.visibleWorkspace(userID, uuid)
	if err != nil {
		return nil, err
	}
	return s.workspaceRepo.FindDetail(workspace.ID)
}

// ListWorkspaces returns the memberships of a user with workspaces
// preloaded.
func (s *WorkspaceService) ListWorkspaces(userID uint64) ([]models.TeamMember, error) {
	return s.workspaceRepo.ListMembershipsForUser(userID)
}

// UpdateWorkspaceInput represents updatable workspace fields.
type UpdateWorkspaceInput struct {
	Title       string
	Description string
	Picture     string
}

// UpdateWorkspace updates workspace metadata.
func (s *WorkspaceService) UpdateWorkspace(userID uint64, uuid string, input UpdateWorkspaceInput) (*models.Workspace, error) {
	workspace, err := s.visibleWorkspace(userID, uuid)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, workspace.ID, permissions.ActionUpdate, permissions.ResourceWorkspace); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	workspace.Title = input.Title
	workspace.Description = input.Description
	workspace.Picture = input.Picture
	if err := s.workspaceRepo.Update(workspace); err != nil {
		return nil, fmt.Errorf("failed to update workspace: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, workspace.ID)
	return workspace, nil
}

// DeleteWorkspace removes a workspace. Deletion only proceeds from an
// empty state: exactly one member, no pending invites, no projects.
// Subscribers of the workspace channel get a final snapshot and are
// disconnected.
func (s *WorkspaceService) DeleteWorkspace(userID uint64, uuid string) error {
	workspace, err := s.visibleWorkspace(userID, uuid)
	if err != nil {
		return err
	}
	if err := permissions.Check(s.db, userID, workspace.ID, permissions.ActionDelete, permissions.ResourceWorkspace); err != nil {
		return err
	}

	members, err := s.workspaceRepo.CountMembers(workspace.ID)
	if err != nil {
		return err
	}
	invites, err := s.workspaceRepo.CountPendingInvites(workspace.ID)
	if err != nil {
		return err
	}
	projects, err := s.workspaceRepo.CountProjects(workspace.ID)
	if err != nil {
		return err
	}
	if members != 1 || invites != 0 || projects != 0 {
		return ErrWorkspaceNotEmpty
	}

	if err := s.workspaceRepo.Delete(workspace.ID); err != nil {
		return fmt.Errorf("failed to delete workspace: %w", err)
	}

	s.broadcaster.WorkspaceDeleted(*workspace)
	return nil
}

// CreateLabelInput represents parameters to create a label.
type CreateLabelInput struct {
	Name  string
	Color uint8
}

// CreateLabel creates a label in a workspace.
func (s *WorkspaceService) CreateLabel(userID uint64, workspaceUUID string, input CreateLabelInput) (*models.Label, error) {
	workspace, err := s.visibleWorkspace(userID, workspaceUUID)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, workspace.ID, permissions.ActionCreate, permissions.ResourceLabel); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrTitleRequired
	}

	label := &models.Label{
		WorkspaceID: workspace.ID,
		Name:        input.Name,
		Color:       input.Color,
	}
	if err := s.workspaceRepo.CreateLabel(label); err != nil {
		return nil, fmt.Errorf("failed to create label: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, workspace.ID)
	return label, nil
}

// UpdateLabel renames or recolors a label.
func (s *WorkspaceService) UpdateLabel(userID uint64, labelUUID string, input CreateLabelInput) (*models.Label, error) {
	label, err := s.workspaceRepo.FindLabelByUUID(labelUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("label %s", labelUUID)
		}
		return nil, err
	}
	if err := permissions.Check(s.db, userID, label.WorkspaceID, permissions.ActionUpdate, permissions.ResourceLabel); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrTitleRequired
	}

	label.Name = input.Name
	label.Color = input.Color
	if err := s.workspaceRepo.UpdateLabel(label); err != nil {
		return nil, fmt.Errorf("failed to update label: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, label.WorkspaceID)
	return label, nil
}

// DeleteLabel removes a label from a workspace along with its task
// attachments.
func (s *WorkspaceService) DeleteLabel(userID uint64, labelUUID string) error {
	label, err := s.workspaceRepo.FindLabelByUUID(labelUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("label %s", labelUUID)
		}
		return err
	}
	if err := permissions.Check(s.db, userID, label.WorkspaceID, permissions.ActionDelete, permissions.ResourceLabel); err != nil {
		return err
	}

	if err := s.workspaceRepo.DeleteLabel(label.ID); err != nil {
		return fmt.Errorf("failed to delete label: %w", err)
	}

	s.broadcaster.WorkspaceChanged(s.db, label.WorkspaceID)
	return nil
}
