package services

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/utils"
)

func TestTaskService_CreateTaskAssignsNumberAndPosition(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)
	_, section := env.board(t, owner, workspace)

	first, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "First"})
	require.NoError(t, err)
	second, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Second"})
	require.NoError(t, err)

	require.EqualValues(t, 1, first.Number)
	require.EqualValues(t, 2, second.Number)
	require.Equal(t, 0, first.Position)
	require.Equal(t, 1, second.Position)
}

func TestTaskService_CreateTaskObserverForbidden(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	observer := env.createUser(t, uniqueEmail("observer"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)
	env.addMember(t, workspace, observer, models.RoleObserver)
	_, section := env.board(t, owner, workspace)

	_, err := env.tasks.CreateTask(observer.ID, section.UUID, CreateTaskInput{Title: "Nope"})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTaskService_CreateTaskInArchivedProjectRejected(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)
	project, section := env.board(t, owner, workspace)

	_, err := env.projects.SetProjectArchived(owner.ID, project.UUID, true)
	require.NoError(t, err)

	_, err = env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Late"})
	require.ErrorIs(t, err, ErrProjectArchived)
}

func TestTaskService_CreateTaskWithAssigneeAndLabels(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	colleague := env.createUser(t, uniqueEmail("colleague"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)
	member := env.addMember(t, workspace, colleague, models.RoleMember)
	_, section := env.board(t, owner, workspace)

	label, err := env.workspaces.CreateLabel(owner.ID, workspace.UUID, CreateLabelInput{Name: "bug", Color: 1})
	require.NoError(t, err)

	memberUUID := member.UUID
	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{
		Title:        "Tagged",
		AssigneeUUID: &memberUUID,
		LabelUUIDs:   []string{label.UUID},
	})
	require.NoError(t, err)
	require.NotNil(t, task.Assignee)
	require.Equal(t, member.ID, task.Assignee.ID)
	require.Len(t, task.Labels, 1)
	require.Equal(t, "bug", task.Labels[0].Name)
}

func TestTaskService_ForeignAssigneeAndLabelRejected(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	other := env.createUser(t, uniqueEmail("other"))
	workspace := env.createWorkspace(t, owner, "Acme")
	foreign := env.createWorkspace(t, other, "Foreign")
	env.activate(t, workspace)
	env.activate(t, foreign)
	_, section := env.board(t, owner, workspace)

	var foreignMember models.TeamMember
	require.NoError(t, env.db.Where("workspace_id = ?", foreign.ID).First(&foreignMember).Error)
	foreignUUID := foreignMember.UUID

	_, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{
		Title:        "Bad assignee",
		AssigneeUUID: &foreignUUID,
	})
	require.ErrorIs(t, err, ErrAssigneeNotInWorkspace)

	foreignLabel, err := env.workspaces.CreateLabel(other.ID, foreign.UUID, CreateLabelInput{Name: "bug", Color: 1})
	require.NoError(t, err)

	_, err = env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{
		Title:      "Bad label",
		LabelUUIDs: []string{foreignLabel.UUID},
	})
	require.ErrorIs(t, err, ErrLabelNotInWorkspace)
}

func TestTaskService_UpdateTaskNilLabelsLeaveLabelsAlone(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)
	_, section := env.board(t, owner, workspace)

	label, err := env.workspaces.CreateLabel(owner.ID, workspace.UUID, CreateLabelInput{Name: "bug", Color: 1})
	require.NoError(t, err)
	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{
		Title:      "Tagged",
		LabelUUIDs: []string{label.UUID},
	})
	require.NoError(t, err)

	updated, err := env.tasks.UpdateTask(owner.ID, task.UUID, UpdateTaskInput{Title: "Renamed"})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Title)
	require.Len(t, updated.Labels, 1)

	cleared, err := env.tasks.UpdateTask(owner.ID, task.UUID, UpdateTaskInput{
		Title:      "Renamed",
		LabelUUIDs: []string{},
	})
	require.NoError(t, err)
	require.Empty(t, cleared.Labels)
}

func TestTaskService_MoveTaskAcrossSectionsKeepsNumber(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)
	project, section := env.board(t, owner, workspace)
	done, err := env.projects.CreateSection(owner.ID, project.UUID, CreateSectionInput{Title: "Done"})
	require.NoError(t, err)

	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Ship"})
	require.NoError(t, err)

	moved, err := env.tasks.MoveTask(owner.ID, task.UUID, done.UUID, 0)
	require.NoError(t, err)
	require.Equal(t, done.ID, moved.SectionID)
	require.Equal(t, task.Number, moved.Number)
}

func TestTaskService_MoveTaskToForeignWorkspaceRejected(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	foreign := env.createWorkspace(t, owner, "Other")
	env.activate(t, workspace)
	env.activate(t, foreign)
	_, section := env.board(t, owner, workspace)
	_, foreignSection := env.board(t, owner, foreign)

	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Stay put"})
	require.NoError(t, err)

	_, err = env.tasks.MoveTask(owner.ID, task.UUID, foreignSection.UUID, 0)
	require.ErrorIs(t, err, ErrSectionWorkspaceChange)
}

func TestTaskService_DeleteTaskRequiresMaintainer(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	colleague := env.createUser(t, uniqueEmail("colleague"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)
	env.addMember(t, workspace, colleague, models.RoleMember)
	_, section := env.board(t, owner, workspace)

	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Doomed"})
	require.NoError(t, err)

	err = env.tasks.DeleteTask(colleague.ID, task.UUID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, env.tasks.DeleteTask(owner.ID, task.UUID))
	err = env.db.First(&models.Task{}, task.ID).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTaskService_SubTaskLifecycle(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)
	_, section := env.board(t, owner, workspace)
	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Parent"})
	require.NoError(t, err)

	first, err := env.tasks.CreateSubTask(owner.ID, task.UUID, CreateSubTaskInput{Title: "Step one"})
	require.NoError(t, err)
	second, err := env.tasks.CreateSubTask(owner.ID, task.UUID, CreateSubTaskInput{Title: "Step two"})
	require.NoError(t, err)
	require.Equal(t, 0, first.Position)
	require.Equal(t, 1, second.Position)

	done, err := env.tasks.UpdateSubTask(owner.ID, first.UUID, UpdateSubTaskInput{Title: "Step one", Done: true})
	require.NoError(t, err)
	require.True(t, done.Done)

	moved, err := env.tasks.MoveSubTask(owner.ID, second.UUID, 0)
	require.NoError(t, err)
	require.Equal(t, 0, moved.Position)

	require.NoError(t, env.tasks.DeleteSubTask(owner.ID, first.UUID))
	var remaining []models.SubTask
	require.NoError(t, env.db.Where("task_id = ?", task.ID).Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Equal(t, 0, remaining[0].Position)
}

func TestTaskService_ChatRequiresFullPlan(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	_, section := env.board(t, owner, workspace)
	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Talk here"})
	require.NoError(t, err)

	// Chat is quota zero on trial
	_, err = env.tasks.CreateChatMessage(owner.ID, task.UUID, "hello")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	env.activate(t, workspace)
	message, err := env.tasks.CreateChatMessage(owner.ID, task.UUID, "hello")
	require.NoError(t, err)
	require.NotNil(t, message.AuthorID)
}

func TestTaskService_ChatPagination(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)
	_, section := env.board(t, owner, workspace)
	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Thread"})
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := env.tasks.CreateChatMessage(owner.ID, task.UUID, text)
		require.NoError(t, err)
	}

	messages, total, err := env.tasks.ListChatMessages(owner.ID, task.UUID, utils.PaginationParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, messages, 2)
	require.Equal(t, "one", messages[0].Text)
}
