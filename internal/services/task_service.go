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
	"github.com/plankhq/plank-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrAssigneeNotInWorkspace = errors.New("assignee does not belong to this workspace")
	ErrLabelNotInWorkspace    = errors.New("label does not belong to this workspace")
	ErrSectionWorkspaceChange = errors.New("task cannot move to a section in another workspace")
	ErrChatTextRequired       = errors.New("chat message text cannot be empty")
)

// TaskService provides business logic for tasks, sub-tasks, labels on
// tasks and task chat.
type TaskService struct {
	db            *gorm.DB
	taskRepo      repository.TaskRepository
	projectRepo   repository.ProjectRepository
	workspaceRepo repository.WorkspaceRepository
	broadcaster   *realtime.Broadcaster
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	db *gorm.DB,
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	workspaceRepo repository.WorkspaceRepository,
	broadcaster *realtime.Broadcaster,
) *TaskService {
	return &TaskService{
		db:            db,
		taskRepo:      taskRepo,
		projectRepo:   projectRepo,
		workspaceRepo: workspaceRepo,
		broadcaster:   broadcaster,
	}
}

// sectionContext resolves a section together with its project, scoped
// to nothing yet. Callers run the permission check against the
// project's workspace.
func (s *TaskService) sectionContext(uuid string) (*models.Section, *models.Project, error) {
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
	return section, project, nil
}

// visibleTask resolves a task UUID within the caller's visible scope.
func (s *TaskService) visibleTask(userID uint64, uuid string) (*models.Task, error) {
	task, err := s.taskRepo.FindByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFoundf("task %s", uuid)
		}
		return nil, err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionRead, permissions.ResourceTask); err != nil {
		return nil, err
	}
	return task, nil
}

// resolveAssignee maps a team member UUID onto a membership of the
// given workspace.
func (s *TaskService) resolveAssignee(workspaceID uint64, memberUUID *string) (*uint64, error) {
	if memberUUID == nil || *memberUUID == "" {
		return nil, nil
	}
	var member models.TeamMember
	if err := s.db.Where("uuid = ?", *memberUUID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssigneeNotInWorkspace
		}
		return nil, err
	}
	if member.WorkspaceID != workspaceID {
		return nil, ErrAssigneeNotInWorkspace
	}
	return &member.ID, nil
}

// resolveLabels maps label UUIDs onto label IDs of the given workspace.
func (s *TaskService) resolveLabels(workspaceID uint64, labelUUIDs []string) ([]uint64, error) {
	if labelUUIDs == nil {
		return nil, nil
	}
	ids := make([]uint64, 0, len(labelUUIDs))
	if len(labelUUIDs) == 0 {
		return ids, nil
	}
	var labels []models.Label
	if err := s.db.Where("uuid IN ?", labelUUIDs).Find(&labels).Error; err != nil {
		return nil, err
	}
	if len(labels) != len(labelUUIDs) {
		return nil, ErrLabelNotInWorkspace
	}
	for _, label := range labels {
		if label.WorkspaceID != workspaceID {
			return nil, ErrLabelNotInWorkspace
		}
		ids = append(ids, label.ID)
	}
	return ids, nil
}

// CreateTaskInput represents parameters to create a task.
type CreateTaskInput struct {
	Title        string
	Description  string
	DueDate      *time.Time
	AssigneeUUID *string
	LabelUUIDs   []string
}

// CreateTask appends a task to the end of a section and assigns it the
// next workspace task number.
func (s *TaskService) CreateTask(userID uint64, sectionUUID string, input CreateTaskInput) (*models.Task, error) {
	section, project, err := s.sectionContext(sectionUUID)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, project.WorkspaceID, permissions.ActionCreate, permissions.ResourceTask); err != nil {
		return nil, err
	}
	if project.Archived != nil {
		return nil, ErrProjectArchived
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	assigneeID, err := s.resolveAssignee(project.WorkspaceID, input.AssigneeUUID)
	if err != nil {
		return nil, err
	}
	labelIDs, err := s.resolveLabels(project.WorkspaceID, input.LabelUUIDs)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		WorkspaceID: project.WorkspaceID,
		SectionID:   section.ID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		AssigneeID:  assigneeID,
	}
	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if len(labelIDs) > 0 {
		if err := s.taskRepo.SetLabels(task.ID, labelIDs); err != nil {
			return nil, fmt.Errorf("failed to attach labels: %w", err)
		}
	}

	s.broadcaster.TaskChanged(s.db, task.ID)
	return s.taskRepo.FindDetail(task.ID)
}

// GetTask returns a task with assignee, labels, sub-tasks and chat.
func (s *TaskService) GetTask(userID uint64, uuid string) (*models.Task, error) {
	task, err := s.visibleTask(userID, uuid)
	if err != nil {
		return nil, err
	}
	return s.taskRepo.FindDetail(task.ID)
}

// UpdateTaskInput represents updatable task fields. Nil AssigneeUUID
// clears the assignee; nil LabelUUIDs leaves labels untouched.
type UpdateTaskInput struct {
	Title        string
	Description  string
	DueDate      *time.Time
	AssigneeUUID *string
	LabelUUIDs   []string
}

// UpdateTask updates a task's fields, assignee and label set.
func (s *TaskService) UpdateTask(userID uint64, uuid string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.visibleTask(userID, uuid)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionUpdate, permissions.ResourceTask); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	assigneeID, err := s.resolveAssignee(task.WorkspaceID, input.AssigneeUUID)
	if err != nil {
		return nil, err
	}
	labelIDs, err := s.resolveLabels(task.WorkspaceID, input.LabelUUIDs)
	if err != nil {
		return nil, err
	}

	task.Title = input.Title
	task.Description = input.Description
	task.DueDate = input.DueDate
	task.AssigneeID = assigneeID
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	if input.LabelUUIDs != nil {
		if err := s.taskRepo.SetLabels(task.ID, labelIDs); err != nil {
			return nil, fmt.Errorf("failed to update labels: %w", err)
		}
	}

	s.broadcaster.TaskChanged(s.db, task.ID)
	return s.taskRepo.FindDetail(task.ID)
}

// MoveTask moves a task to a position, optionally into another section.
// The target section must belong to the same workspace; the task keeps
// its number either way.
func (s *TaskService) MoveTask(userID uint64, uuid string, targetSectionUUID string, target int) (*models.Task, error) {
	task, err := s.visibleTask(userID, uuid)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionUpdate, permissions.ResourceTask); err != nil {
		return nil, err
	}

	targetSectionID := task.SectionID
	if targetSectionUUID != "" {
		section, project, err := s.sectionContext(targetSectionUUID)
		if err != nil {
			return nil, err
		}
		if project.WorkspaceID != task.WorkspaceID {
			return nil, ErrSectionWorkspaceChange
		}
		targetSectionID = section.ID
	}

	if err := s.taskRepo.Move(task, targetSectionID, target); err != nil {
		return nil, fmt.Errorf("failed to move task: %w", err)
	}

	s.broadcaster.TaskChanged(s.db, task.ID)
	return task, nil
}

// DeleteTask removes a task and its content. Subscribers of the task
// channel get a final snapshot and are disconnected.
func (s *TaskService) DeleteTask(userID uint64, uuid string) error {
	task, err := s.visibleTask(userID, uuid)
	if err != nil {
		return err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionDelete, permissions.ResourceTask); err != nil {
		return err
	}

	var section models.Section
	if err := s.db.First(&section, task.SectionID).Error; err != nil {
		return err
	}

	if err := s.taskRepo.Delete(task); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.broadcaster.TaskDeleted(s.db, *task, section.ProjectID)
	return nil
}

// CreateSubTaskInput represents parameters to create a sub-task.
type CreateSubTaskInput struct {
	Title       string
	Description string
}

// CreateSubTask appends a sub-task to the end of a task's checklist.
func (s *TaskService) CreateSubTask(userID uint64, taskUUID string, input CreateSubTaskInput) (*models.SubTask, error) {
	task, err := s.visibleTask(userID, taskUUID)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionCreate, permissions.ResourceSubTask); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	subTask := &models.SubTask{
		TaskID:      task.ID,
		Title:       input.Title,
		Description: input.Description,
	}
	if err := s.taskRepo.CreateSubTask(subTask); err != nil {
		return nil, fmt.Errorf("failed to create sub-task: %w", err)
	}

	s.broadcaster.TaskChanged(s.db, task.ID)
	return subTask, nil
}

// visibleSubTask resolves a sub-task UUID within the caller's visible
// scope, returning it together with its task.
func (s *TaskService) visibleSubTask(userID uint64, uuid string) (*models.SubTask, *models.Task, error) {
	subTask, err := s.taskRepo.FindSubTaskByUUID(uuid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.NotFoundf("sub-task %s", uuid)
		}
		return nil, nil, err
	}
	task, err := s.taskRepo.FindByID(subTask.TaskID)
	if err != nil {
		return nil, nil, err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionRead, permissions.ResourceSubTask); err != nil {
		return nil, nil, err
	}
	return subTask, task, nil
}

// UpdateSubTaskInput represents updatable sub-task fields.
type UpdateSubTaskInput struct {
	Title       string
	Description string
	Done        bool
}

// UpdateSubTask updates a sub-task's fields and done state.
func (s *TaskService) UpdateSubTask(userID uint64, uuid string, input UpdateSubTaskInput) (*models.SubTask, error) {
	subTask, task, err := s.visibleSubTask(userID, uuid)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionUpdate, permissions.ResourceSubTask); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	subTask.Title = input.Title
	subTask.Description = input.Description
	subTask.Done = input.Done
	if err := s.taskRepo.UpdateSubTask(subTask); err != nil {
		return nil, fmt.Errorf("failed to update sub-task: %w", err)
	}

	s.broadcaster.TaskChanged(s.db, task.ID)
	return subTask, nil
}

// MoveSubTask moves a sub-task to a target position within its task.
func (s *TaskService) MoveSubTask(userID uint64, uuid string, target int) (*models.SubTask, error) {
	subTask, task, err := s.visibleSubTask(userID, uuid)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionUpdate, permissions.ResourceSubTask); err != nil {
		return nil, err
	}

	if err := s.taskRepo.MoveSubTask(subTask, target); err != nil {
		return nil, fmt.Errorf("failed to move sub-task: %w", err)
	}

	s.broadcaster.TaskChanged(s.db, task.ID)
	return subTask, nil
}

// DeleteSubTask removes a sub-task from its task's checklist.
func (s *TaskService) DeleteSubTask(userID uint64, uuid string) error {
	subTask, task, err := s.visibleSubTask(userID, uuid)
	if err != nil {
		return err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionDelete, permissions.ResourceSubTask); err != nil {
		return err
	}

	if err := s.taskRepo.DeleteSubTask(subTask); err != nil {
		return fmt.Errorf("failed to delete sub-task: %w", err)
	}

	s.broadcaster.TaskChanged(s.db, task.ID)
	return nil
}

// CreateChatMessage appends a chat message to a task. Messages are
// append-only.
func (s *TaskService) CreateChatMessage(userID uint64, taskUUID string, text string) (*models.ChatMessage, error) {
	task, err := s.visibleTask(userID, taskUUID)
	if err != nil {
		return nil, err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionCreate, permissions.ResourceChat); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrChatTextRequired
	}

	member, err := permissions.MemberFor(s.db, userID, task.WorkspaceID)
	if err != nil {
		return nil, err
	}
	message := &models.ChatMessage{
		TaskID:   task.ID,
		AuthorID: &member.ID,
		Text:     text,
	}
	if err := s.taskRepo.CreateChatMessage(message); err != nil {
		return nil, fmt.Errorf("failed to create chat message: %w", err)
	}

	s.broadcaster.TaskContentChanged(s.db, task.ID)
	return message, nil
}

// ListChatMessages lists a page of a task's chat messages oldest first.
func (s *TaskService) ListChatMessages(userID uint64, taskUUID string, params utils.PaginationParams) ([]models.ChatMessage, int64, error) {
	task, err := s.visibleTask(userID, taskUUID)
	if err != nil {
		return nil, 0, err
	}
	if err := permissions.Check(s.db, userID, task.WorkspaceID, permissions.ActionRead, permissions.ResourceChat); err != nil {
		return nil, 0, err
	}
	return s.taskRepo.ListChatMessages(task.ID, params)
}
