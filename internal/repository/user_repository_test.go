package repository

import (
	"testing"

	"github.com/plankhq/plank-api/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupUserRepoTestEnv(t *testing.T) (*gorm.DB, UserRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.TeamMember{},
		&models.TeamMemberInvite{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db, NewUserRepository(db)
}

func TestUserRepository_CreateRedeemingInvites(t *testing.T) {
	db, repo := setupUserRepoTestEnv(t)

	first := models.Workspace{Title: "First"}
	second := models.Workspace{Title: "Second"}
	require.NoError(t, db.Create(&first).Error)
	require.NoError(t, db.Create(&second).Error)

	invites := []models.TeamMemberInvite{
		{WorkspaceID: first.ID, Email: "new@example.com", Role: models.RoleMember},
		{WorkspaceID: second.ID, Email: "new@example.com", Role: models.RoleMaintainer},
		{WorkspaceID: second.ID, Email: "other@example.com", Role: models.RoleObserver},
	}
	for i := range invites {
		require.NoError(t, db.Create(&invites[i]).Error)
	}

	user := &models.User{Email: "new@example.com", PasswordHash: "x"}
	members, err := repo.CreateRedeemingInvites(user)
	require.NoError(t, err)
	require.Len(t, members, 2)

	rolesByWorkspace := map[uint64]models.Role{}
	for _, member := range members {
		require.Equal(t, user.ID, member.UserID)
		rolesByWorkspace[member.WorkspaceID] = member.Role
	}
	require.Equal(t, models.RoleMember, rolesByWorkspace[first.ID])
	require.Equal(t, models.RoleMaintainer, rolesByWorkspace[second.ID])

	// Redeemed invites are marked, the unrelated one is untouched
	var redeemed []models.TeamMemberInvite
	require.NoError(t, db.Where("email = ?", "new@example.com").Find(&redeemed).Error)
	for _, invite := range redeemed {
		require.True(t, invite.Redeemed)
		require.NotNil(t, invite.RedeemedAt)
	}
	var pending models.TeamMemberInvite
	require.NoError(t, db.Where("email = ?", "other@example.com").First(&pending).Error)
	require.False(t, pending.Redeemed)
}

func TestUserRepository_CreateWithoutInvites(t *testing.T) {
	_, repo := setupUserRepoTestEnv(t)

	user := &models.User{Email: "solo@example.com", PasswordHash: "x"}
	members, err := repo.CreateRedeemingInvites(user)
	require.NoError(t, err)
	require.Empty(t, members)
	require.NotZero(t, user.ID)

	found, err := repo.FindByEmail("solo@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)
}
