package realtime

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/plankhq/plank-api/internal/dto"
	"github.com/plankhq/plank-api/internal/models"
)

type broadcasterTestEnv struct {
	db        *gorm.DB
	hub       *Hub
	b         *Broadcaster
	workspace models.Workspace
	project   models.Project
	section   models.Section
	task      models.Task
}

func setupBroadcasterTestEnv(t *testing.T) *broadcasterTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.TeamMember{},
		&models.TeamMemberInvite{},
		&models.Customer{},
		&models.Label{},
		&models.Project{},
		&models.Section{},
		&models.Task{},
		&models.SubTask{},
		&models.ChatMessage{},
		&models.TaskLabel{},
	))

	env := &broadcasterTestEnv{
		db:  db,
		hub: NewHub(zap.NewNop()),
	}
	env.b = NewBroadcaster(env.hub, zap.NewNop())

	env.workspace = models.Workspace{Title: "Push Target"}
	require.NoError(t, db.Create(&env.workspace).Error)
	env.project = models.Project{WorkspaceID: env.workspace.ID, Title: "Board"}
	require.NoError(t, db.Create(&env.project).Error)
	env.section = models.Section{ProjectID: env.project.ID, Title: "To Do", Position: 0}
	require.NoError(t, db.Create(&env.section).Error)
	env.task = models.Task{
		WorkspaceID: env.workspace.ID,
		SectionID:   env.section.ID,
		Title:       "Ship it",
		Number:      1,
		Position:    0,
	}
	require.NoError(t, db.Create(&env.task).Error)
	return env
}

func requireOneMessage(t *testing.T, sub *Subscription) Message {
	t.Helper()
	require.Len(t, sub.C, 1)
	return <-sub.C
}

func TestBroadcaster_WorkspaceChanged(t *testing.T) {
	env := setupBroadcasterTestEnv(t)
	sub := env.hub.Subscribe(WorkspaceGroup(env.workspace.UUID))

	env.b.WorkspaceChanged(env.db, env.workspace.ID)

	msg := requireOneMessage(t, sub)
	require.Equal(t, TypeWorkspaceChange, msg.Type)
	require.Equal(t, env.workspace.UUID, msg.UUID)
	snapshot, ok := msg.Data.(dto.WorkspaceDetailDTO)
	require.True(t, ok)
	require.Equal(t, "Push Target", snapshot.Title)
	require.Len(t, snapshot.Projects, 1)
}

func TestBroadcaster_WorkspaceChangedMissingRowIsSwallowed(t *testing.T) {
	env := setupBroadcasterTestEnv(t)
	sub := env.hub.Subscribe(WorkspaceGroup(env.workspace.UUID))

	env.b.WorkspaceChanged(env.db, 9999)

	require.Empty(t, sub.C)
}

func TestBroadcaster_ProjectChangedAlsoRefreshesWorkspace(t *testing.T) {
	env := setupBroadcasterTestEnv(t)
	projectSub := env.hub.Subscribe(ProjectGroup(env.project.UUID))
	workspaceSub := env.hub.Subscribe(WorkspaceGroup(env.workspace.UUID))

	env.b.ProjectChanged(env.db, env.project.ID)

	msg := requireOneMessage(t, projectSub)
	require.Equal(t, TypeProjectChange, msg.Type)
	require.Equal(t, env.project.UUID, msg.UUID)

	msg = requireOneMessage(t, workspaceSub)
	require.Equal(t, TypeWorkspaceChange, msg.Type)
}

func TestBroadcaster_ProjectContentChangedSkipsWorkspace(t *testing.T) {
	env := setupBroadcasterTestEnv(t)
	projectSub := env.hub.Subscribe(ProjectGroup(env.project.UUID))
	workspaceSub := env.hub.Subscribe(WorkspaceGroup(env.workspace.UUID))

	env.b.ProjectContentChanged(env.db, env.project.ID)

	msg := requireOneMessage(t, projectSub)
	snapshot, ok := msg.Data.(dto.ProjectDetailDTO)
	require.True(t, ok)
	require.Len(t, snapshot.Sections, 1)
	require.Len(t, snapshot.Sections[0].Tasks, 1)

	require.Empty(t, workspaceSub.C)
}

func TestBroadcaster_TaskChangedAlsoRefreshesProject(t *testing.T) {
	env := setupBroadcasterTestEnv(t)
	taskSub := env.hub.Subscribe(TaskGroup(env.task.UUID))
	projectSub := env.hub.Subscribe(ProjectGroup(env.project.UUID))
	workspaceSub := env.hub.Subscribe(WorkspaceGroup(env.workspace.UUID))

	env.b.TaskChanged(env.db, env.task.ID)

	msg := requireOneMessage(t, taskSub)
	require.Equal(t, TypeTaskChange, msg.Type)
	require.Equal(t, env.task.UUID, msg.UUID)

	msg = requireOneMessage(t, projectSub)
	require.Equal(t, TypeProjectChange, msg.Type)

	require.Empty(t, workspaceSub.C)
}

func TestBroadcaster_TaskContentChangedSkipsProject(t *testing.T) {
	env := setupBroadcasterTestEnv(t)
	taskSub := env.hub.Subscribe(TaskGroup(env.task.UUID))
	projectSub := env.hub.Subscribe(ProjectGroup(env.project.UUID))

	env.b.TaskContentChanged(env.db, env.task.ID)

	requireOneMessage(t, taskSub)
	require.Empty(t, projectSub.C)
}

func TestBroadcaster_WorkspaceDeletedPushesFinalSnapshotThenCloses(t *testing.T) {
	env := setupBroadcasterTestEnv(t)
	sub := env.hub.Subscribe(WorkspaceGroup(env.workspace.UUID))

	env.b.WorkspaceDeleted(env.workspace)

	msg, open := <-sub.C
	require.True(t, open)
	require.Equal(t, env.workspace.UUID, msg.UUID)

	_, open = <-sub.C
	require.False(t, open)
}

func TestBroadcaster_TaskDeletedClosesTaskAndRefreshesProject(t *testing.T) {
	env := setupBroadcasterTestEnv(t)
	taskSub := env.hub.Subscribe(TaskGroup(env.task.UUID))
	projectSub := env.hub.Subscribe(ProjectGroup(env.project.UUID))

	require.NoError(t, env.db.Delete(&models.Task{}, env.task.ID).Error)
	env.b.TaskDeleted(env.db, env.task, env.project.ID)

	msg, open := <-taskSub.C
	require.True(t, open)
	require.Equal(t, env.task.UUID, msg.UUID)
	_, open = <-taskSub.C
	require.False(t, open)

	msg = requireOneMessage(t, projectSub)
	snapshot, ok := msg.Data.(dto.ProjectDetailDTO)
	require.True(t, ok)
	require.Empty(t, snapshot.Sections[0].Tasks)
}
