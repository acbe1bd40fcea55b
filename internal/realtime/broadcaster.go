package realtime

import (
	"github.com/plankhq/plank-api/internal/dto"
	"github.com/plankhq/plank-api/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Broadcaster re-serializes addressable resources and publishes their
// snapshots to the matching groups. Services call it explicitly after
// each mutation; there is no implicit save hook. A failed load or
// publish is logged and swallowed so push delivery can never fail the
// triggering mutation.
type Broadcaster struct {
	pub    GroupPublisher
	logger *zap.Logger
}

func NewBroadcaster(pub GroupPublisher, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		pub:    pub,
		logger: logger,
	}
}

// WorkspaceChanged pushes the workspace snapshot. Used directly for
// workspace, label, team member, invite and customer mutations.
func (b *Broadcaster) WorkspaceChanged(db *gorm.DB, workspaceID uint64) {
	workspace, err := loadWorkspace(db, workspaceID)
	if err != nil {
		b.logger.Warn("skipping workspace push", zap.Uint64("workspace_id", workspaceID), zap.Error(err))
		return
	}
	b.pub.Publish(WorkspaceGroup(workspace.UUID), Message{
		Type: TypeWorkspaceChange,
		UUID: workspace.UUID,
		Data: dto.ToWorkspaceDetailDTO(*workspace),
	})
}

// ProjectChanged pushes the project snapshot and, because the project
// row itself belongs to the workspace, the workspace snapshot too.
func (b *Broadcaster) ProjectChanged(db *gorm.DB, projectID uint64) {
	project := b.pushProject(db, projectID)
	if project != nil {
		b.WorkspaceChanged(db, project.WorkspaceID)
	}
}

// ProjectContentChanged pushes only the project snapshot. Used for
// section mutations, whose nearest addressable ancestor is the project.
func (b *Broadcaster) ProjectContentChanged(db *gorm.DB, projectID uint64) {
	b.pushProject(db, projectID)
}

// TaskChanged pushes the task snapshot and its parent project snapshot.
// Used for task and sub-task mutations.
func (b *Broadcaster) TaskChanged(db *gorm.DB, taskID uint64) {
	task := b.pushTask(db, taskID)
	if task != nil {
		b.pushProject(db, task.Section.ProjectID)
	}
}

// TaskContentChanged pushes only the task snapshot. Used for chat
// messages, which address no ancestor beyond the task.
func (b *Broadcaster) TaskContentChanged(db *gorm.DB, taskID uint64) {
	b.pushTask(db, taskID)
}

// WorkspaceDeleted pushes one final snapshot built from the deleted row
// and then disconnects every subscriber of the workspace channel.
func (b *Broadcaster) WorkspaceDeleted(workspace models.Workspace) {
	group := WorkspaceGroup(workspace.UUID)
	b.pub.Publish(group, Message{
		Type: TypeWorkspaceChange,
		UUID: workspace.UUID,
		Data: dto.ToWorkspaceDetailDTO(workspace),
	})
	b.pub.CloseGroup(group)
}

// ProjectDeleted disconnects the project channel and refreshes the
// workspace snapshot.
func (b *Broadcaster) ProjectDeleted(db *gorm.DB, project models.Project) {
	group := ProjectGroup(project.UUID)
	b.pub.Publish(group, Message{
		Type: TypeProjectChange,
		UUID: project.UUID,
		Data: dto.ToProjectDetailDTO(project),
	})
	b.pub.CloseGroup(group)
	b.WorkspaceChanged(db, project.WorkspaceID)
}

// TaskDeleted disconnects the task channel and refreshes the parent
// project snapshot.
func (b *Broadcaster) TaskDeleted(db *gorm.DB, task models.Task, projectID uint64) {
	group := TaskGroup(task.UUID)
	b.pub.Publish(group, Message{
		Type: TypeTaskChange,
		UUID: task.UUID,
		Data: dto.ToTaskDetailDTO(task),
	})
	b.pub.CloseGroup(group)
	b.pushProject(db, projectID)
}

func (b *Broadcaster) pushProject(db *gorm.DB, projectID uint64) *models.Project {
	project, err := loadProject(db, projectID)
	if err != nil {
		b.logger.Warn("skipping project push", zap.Uint64("project_id", projectID), zap.Error(err))
		return nil
	}
	b.pub.Publish(ProjectGroup(project.UUID), Message{
		Type: TypeProjectChange,
		UUID: project.UUID,
		Data: dto.ToProjectDetailDTO(*project),
	})
	return project
}

func (b *Broadcaster) pushTask(db *gorm.DB, taskID uint64) *models.Task {
	task, err := loadTask(db, taskID)
	if err != nil {
		b.logger.Warn("skipping task push", zap.Uint64("task_id", taskID), zap.Error(err))
		return nil
	}
	b.pub.Publish(TaskGroup(task.UUID), Message{
		Type: TypeTaskChange,
		UUID: task.UUID,
		Data: dto.ToTaskDetailDTO(*task),
	})
	return task
}

func loadWorkspace(db *gorm.DB, id uint64) (*models.Workspace, error) {
	var workspace models.Workspace
	err := db.
		Preload("TeamMembers.User").
		Preload("Labels").
		Preload("Projects").
		Preload("Customer").
		First(&workspace, id).Error
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

func loadProject(db *gorm.DB, id uint64) (*models.Project, error) {
	var project models.Project
	err := db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.position")
		}).
		Preload("Sections.Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("tasks.position")
		}).
		Preload("Sections.Tasks.Assignee.User").
		Preload("Sections.Tasks.Labels").
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func loadTask(db *gorm.DB, id uint64) (*models.Task, error) {
	var task models.Task
	err := db.
		Preload("Section").
		Preload("Assignee.User").
		Preload("Labels").
		Preload("SubTasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_tasks.position")
		}).
		Preload("ChatMessages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_messages.created_at")
		}).
		Preload("ChatMessages.Author.User").
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}
