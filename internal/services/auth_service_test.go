package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/realtime"
	"github.com/plankhq/plank-api/internal/repository"
	"go.uber.org/zap"
)

func (env *serviceTestEnv) authService() *AuthService {
	hub := realtime.NewHub(zap.NewNop())
	return NewAuthService(env.db, repository.NewUserRepository(env.db), realtime.NewBroadcaster(hub, zap.NewNop()))
}

func TestAuthService_SignupAndLogin(t *testing.T) {
	env := setupServiceTestEnv(t)
	auth := env.authService()

	user, err := auth.Signup(SignupInput{Email: "New@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)
	require.NotEqual(t, "correct horse", user.PasswordHash)

	loggedIn, err := auth.Login(LoginInput{Email: "NEW@example.com", Password: "correct horse"})
	require.NoError(t, err)
	require.Equal(t, user.ID, loggedIn.ID)

	_, err = auth.Login(LoginInput{Email: "new@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(LoginInput{Email: "unknown@example.com", Password: "whatever"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_SignupValidation(t *testing.T) {
	env := setupServiceTestEnv(t)
	auth := env.authService()

	_, err := auth.Signup(SignupInput{Email: "  ", Password: "correct horse"})
	require.ErrorIs(t, err, ErrEmailRequired)

	_, err = auth.Signup(SignupInput{Email: "short@example.com", Password: "hi"})
	require.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = auth.Signup(SignupInput{Email: "dupe@example.com", Password: "correct horse"})
	require.NoError(t, err)
	_, err = auth.Signup(SignupInput{Email: "Dupe@Example.com", Password: "correct horse"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_SignupRedeemsPendingInvites(t *testing.T) {
	env := setupServiceTestEnv(t)
	auth := env.authService()
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")

	_, _, err := env.teamMembers.CreateInvite(owner.ID, CreateInviteInput{
		WorkspaceID: workspace.ID,
		Email:       "invited@example.com",
		Role:        models.RoleMaintainer,
	})
	require.NoError(t, err)

	user, err := auth.Signup(SignupInput{Email: "invited@example.com", Password: "correct horse"})
	require.NoError(t, err)

	var member models.TeamMember
	require.NoError(t, env.db.
		Where("workspace_id = ? AND user_id = ?", workspace.ID, user.ID).
		First(&member).Error)
	require.Equal(t, models.RoleMaintainer, member.Role)

	var invite models.TeamMemberInvite
	require.NoError(t, env.db.Where("workspace_id = ?", workspace.ID).First(&invite).Error)
	require.True(t, invite.Redeemed)
}
