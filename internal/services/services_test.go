package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/realtime"
	"github.com/plankhq/plank-api/internal/repository"
)

// serviceTestEnv wires the full service layer onto an in-memory
// database. The broadcaster runs against a hub with no subscribers so
// pushes are exercised but discarded.
type serviceTestEnv struct {
	db          *gorm.DB
	hub         *realtime.Hub
	workspaces  *WorkspaceService
	teamMembers *TeamMemberService
	projects    *ProjectService
	tasks       *TaskService
	customers   *CustomerService
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
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

	hub := realtime.NewHub(zap.NewNop())
	broadcaster := realtime.NewBroadcaster(hub, zap.NewNop())

	workspaceRepo := repository.NewWorkspaceRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	userRepo := repository.NewUserRepository(db)

	return &serviceTestEnv{
		db:          db,
		hub:         hub,
		workspaces:  NewWorkspaceService(db, workspaceRepo, broadcaster),
		teamMembers: NewTeamMemberService(db, workspaceRepo, userRepo, broadcaster),
		projects:    NewProjectService(db, projectRepo, workspaceRepo, broadcaster),
		tasks:       NewTaskService(db, taskRepo, projectRepo, workspaceRepo, broadcaster),
		customers:   NewCustomerService(db, customerRepo, workspaceRepo, broadcaster),
	}
}

// createUser seeds a user row directly; credential handling is covered
// by the auth service tests.
func (env *serviceTestEnv) createUser(t *testing.T, email string) models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x"}
	require.NoError(t, env.db.Create(&user).Error)
	return user
}

// createWorkspace creates a workspace through the service so the owner
// membership and trial customer exist like in production.
func (env *serviceTestEnv) createWorkspace(t *testing.T, owner models.User, title string) models.Workspace {
	t.Helper()
	workspace, err := env.workspaces.CreateWorkspace(CreateWorkspaceInput{
		Title:   title,
		OwnerID: owner.ID,
	})
	require.NoError(t, err)
	return *workspace
}

// addMember attaches an existing user to a workspace with a role.
func (env *serviceTestEnv) addMember(t *testing.T, workspace models.Workspace, user models.User, role models.Role) models.TeamMember {
	t.Helper()
	member := models.TeamMember{
		WorkspaceID: workspace.ID,
		UserID:      user.ID,
		Role:        role,
	}
	require.NoError(t, env.db.Create(&member).Error)
	return member
}

// activate flips the workspace's customer onto the full plan so trial
// quotas stop applying.
func (env *serviceTestEnv) activate(t *testing.T, workspace models.Workspace) {
	t.Helper()
	err := env.db.Model(&models.Customer{}).
		Where("workspace_id = ?", workspace.ID).
		Updates(map[string]any{
			"subscription_status": models.SubscriptionActive,
			"seats":               10,
		}).Error
	require.NoError(t, err)
}

// board seeds a project with one section for task-level tests.
func (env *serviceTestEnv) board(t *testing.T, owner models.User, workspace models.Workspace) (models.Project, models.Section) {
	t.Helper()
	project, err := env.projects.CreateProject(owner.ID, workspace.UUID, CreateProjectInput{Title: "Board"})
	require.NoError(t, err)
	section, err := env.projects.CreateSection(owner.ID, project.UUID, CreateSectionInput{Title: "To Do"})
	require.NoError(t, err)
	return *project, *section
}

func uniqueEmail(prefix string) string {
	return fmt.Sprintf("%s@example.com", prefix)
}
