package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/permissions"
	"github.com/plankhq/plank-api/internal/realtime"
	"github.com/plankhq/plank-api/internal/repository"
	"gorm.io/gorm"
)

var ErrProjectArchived = errors.New("project is archived")

// ProjectService provides business logic for projects and their
// sections.
type ProjectService struct {
	db            *gorm.DB
	projectRepo   repository.ProjectRepository
	workspaceRepo repository.WorkspaceRepository
	broadcaster   *realtime.Broadcaster
}

// NewProjectService creates a new ProjectService.
func NewProjectService(
	db *gorm.DB,
	projectRepo repository.ProjectRepository,
	workspaceRepo repository.WorkspaceRepository,
	broadcaster *realtime.Broadcaster,
) *ProjectService {
	return &ProjectService{
		db:            db,
		projectRepo:   projectRepo,
		workspaceRepo: workspaceRepo,
		broadcaster:   broadcaster,
	}
}

// visibleProject resolves a project UUID within the caller's visible
// scope.
func (s *ProjectService) visibleProject(userID uint64, uuid string) (*models.Project, error) {
	project, err := s.projectRepo.FindByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("project %s", uuid)
		}
		return nil, err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionRead, permissions.ResourceProject); err != nil {
		return nil, err
	}
	return project, nil
}

// CreateProjectInput represents parameters to create a project.
type CreateProjectInput struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// CreateProject creates a project in a workspace.
func (s *ProjectService) CreateProject(userID uint64, workspaceUUID string, input CreateProjectInput) (*models.Project, error) {
	workspace, err := s.workspaceRepo.FindByUUID(workspaceUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("workspace %s", workspaceUUID)
		}
		return nil, err
	}
	if err := permissions.Check(s.db, userID, workspace.ID, permissions.ActionCreate, permissions.ResourceProject); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	project := &models.Project{
		WorkspaceID: workspace.ID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.broadcaster.ProjectChanged(s.db, project.ID)
	return project, nil
}

// GetProject returns a project with its sections and tasks in order.
func (s *ProjectService) GetProject(userID uint64, uuid string) (*models.Project, error) {
	project, err := s.visibleProject(userID, uuid)
	if err != nil {
		return nil, err
	}
	return s.projectRepo.FindDetail(project.ID)
}

// ListProjects lists the projects of a workspace.
func (s *ProjectService) ListProjects(userID uint64, workspaceUUID string, includeArchived bool) ([]models.Project, error) {
	workspace, err := s.workspaceRepo.FindByUUID(workspaceUUID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("workspace %s", workspaceUUID)
		}
		return nil, err
	}
	if err := permissions.Check(s.db, userID, workspace.ID, permissions.ActionRead, permissions.ResourceProject); err != nil {
		return nil, err
	}
	return s.projectRepo.ListForWorkspace(workspace.ID, includeArchived)
}

// UpdateProjectInput represents updatable project fields.
type UpdateProjectInput struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// UpdateProject updates project metadata.
func (s *ProjectService) UpdateProject(userID uint64, uuid string, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.visibleProject(userID, uuid)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionUpdate, permissions.ResourceProject); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	project.Title = input.Title
	project.Description = input.Description
	project.DueDate = input.DueDate
	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.broadcaster.ProjectChanged(s.db, project.ID)
	return project, nil
}

// SetProjectArchived archives or restores a project. Archiving is
// idempotent and keeps the original archival timestamp.
func (s *ProjectService) SetProjectArchived(userID uint64, uuid string, archived bool) (*models.Project, error) {
	project, err := s.visibleProject(userID, uuid)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionUpdate, permissions.ResourceProject); err != nil {
		return nil, err
	}

	switch {
	case archived && project.Archived == nil:
		now := time.Now().UTC()
		project.Archived = &now
	case !archived && project.Archived != nil:
		project.Archived = nil
	default:
		return project, nil
	}
	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.broadcaster.ProjectChanged(s.db, project.ID)
	return project, nil
}

// DeleteProject removes a project and all of its content. Subscribers
// of the project channel get a final snapshot and are disconnected.
func (s *ProjectService) DeleteProject(userID uint64, uuid string) error {
	project, err := s.visibleProject(userID, uuid)
	if err != nil {
		return err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionDelete, permissions.ResourceProject); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(project.ID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.broadcaster.ProjectDeleted(s.db, *project)
	return nil
}

// CreateSectionInput represents parameters to create a section.
type CreateSectionInput struct {
	Title       string
	Description string
}

// CreateSection appends a section to the end of a project.
func (s *ProjectService) CreateSection(userID uint64, projectUUID string, input CreateSectionInput) (*models.Section, error) {
	project, err := s.visibleProject(userID, projectUUID)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionCreate, permissions.ResourceSection); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	section := &models.Section{
		ProjectID:   project.ID,
		Title:       input.Title,
		Description: input.Description,
	}
	if err := s.projectRepo.CreateSection(section); err != nil {
		return nil, fmt.Errorf("failed to create section: %w", err)
	}

	s.broadcaster.ProjectContentChanged(s.db, project.ID)
	return section, nil
}

// visibleSection resolves a section UUID within the caller's visible
// scope, returning the section together with its project.
func (s *ProjectService) visibleSection(userID uint64, uuid string) (*models.Section, *models.Project, error) {
	section, err := s.projectRepo.FindSectionByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFoundf("section %s", uuid)
		}
		return nil, nil, err
	}
	project, err := s.projectRepo.FindByID(section.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionRead, permissions.ResourceSection); err != nil {
		return nil, nil, err
	}
	return section, project, nil
}

// UpdateSection updates a section's title and description.
func (s *ProjectService) UpdateSection(userID uint64, uuid string, input CreateSectionInput) (*models.Section, error) {
	section, project, err := s.visibleSection(userID, uuid)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionUpdate, permissions.ResourceSection); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	section.Title = input.Title
	section.Description = input.Description
	if err := s.projectRepo.UpdateSection(section); err != nil {
		return nil, fmt.Errorf("failed to update section: %w", err)
	}

	s.broadcaster.ProjectContentChanged(s.db, project.ID)
	return section, nil
}

// MoveSection moves a section to a target position within its project.
// Out of range targets clamp to the nearest end.
func (s *ProjectService) MoveSection(userID uint64, uuid string, target int) (*models.Section, error) {
	section, project, err := s.visibleSection(userID, uuid)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionUpdate, permissions.ResourceSection); err != nil {
		return nil, err
	}

	if err := s.projectRepo.MoveSection(section, target); err != nil {
		return nil, fmt.Errorf("failed to move section: %w", err)
	}

	s.broadcaster.ProjectContentChanged(s.db, project.ID)
	return section, nil
}

// DeleteSection removes a section along with its tasks.
func (s *ProjectService) DeleteSection(userID uint64, uuid string) error {
	section, project, err := s.visibleSection(userID, uuid)
	if err != nil {
		return err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionDelete, permissions.ResourceSection); err != nil {
		return err
	}

	if err := s.projectRepo.DeleteSection(section); err != nil {
		return fmt.Errorf("failed to delete section: %w", err)
	}

	s.broadcaster.ProjectContentChanged(s.db, project.ID)
	return nil
}
