package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/models"
)

func TestTeamMemberService_ListMembersRequiresMembership(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	outsider := env.createUser(t, uniqueEmail("outsider"))
	workspace := env.createWorkspace(t, owner, "Acme")

	members, err := env.teamMembers.ListMembers(owner.ID, workspace.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, owner.Email, members[0].User.Email)

	_, err = env.teamMembers.ListMembers(outsider.ID, workspace.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestTeamMemberService_UpdateRole(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	colleague := env.createUser(t, uniqueEmail("colleague"))
	workspace := env.createWorkspace(t, owner, "Acme")
	member := env.addMember(t, workspace, colleague, models.RoleObserver)

	updated, err := env.teamMembers.UpdateRole(owner.ID, member.UUID, models.RoleMaintainer)
	require.NoError(t, err)
	require.Equal(t, models.RoleMaintainer, updated.Role)

	_, err = env.teamMembers.UpdateRole(owner.ID, member.UUID, "superuser")
	require.ErrorIs(t, err, ErrInvalidRole)

	// A MAINTAINER cannot change roles, that takes OWNER
	_, err = env.teamMembers.UpdateRole(colleague.ID, member.UUID, models.RoleOwner)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTeamMemberService_LastOwnerCannotBeDemoted(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")

	var member models.TeamMember
	require.NoError(t, env.db.Where("workspace_id = ?", workspace.ID).First(&member).Error)

	_, err := env.teamMembers.UpdateRole(owner.ID, member.UUID, models.RoleMember)
	require.ErrorIs(t, err, ErrLastOwner)

	err = env.teamMembers.RemoveMember(owner.ID, member.UUID)
	require.ErrorIs(t, err, ErrLastOwner)
}

func TestTeamMemberService_SelfDemotionIsOneWay(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	second := env.createUser(t, uniqueEmail("second"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.addMember(t, workspace, second, models.RoleOwner)

	var member models.TeamMember
	require.NoError(t, env.db.
		Where("workspace_id = ? AND user_id = ?", workspace.ID, second.ID).
		First(&member).Error)

	demoted, err := env.teamMembers.UpdateRole(second.ID, member.UUID, models.RoleObserver)
	require.NoError(t, err)
	require.Equal(t, models.RoleObserver, demoted.Role)

	// The demoted member no longer holds the role needed to undo it
	_, err = env.teamMembers.UpdateRole(second.ID, member.UUID, models.RoleOwner)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTeamMemberService_RemoveMemberDetachesWork(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	colleague := env.createUser(t, uniqueEmail("colleague"))
	workspace := env.createWorkspace(t, owner, "Acme")
	member := env.addMember(t, workspace, colleague, models.RoleMember)
	env.activate(t, workspace)

	_, section := env.board(t, owner, workspace)
	memberUUID := member.UUID
	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{
		Title:        "Assigned work",
		AssigneeUUID: &memberUUID,
	})
	require.NoError(t, err)
	require.NotNil(t, task.AssigneeID)

	require.NoError(t, env.teamMembers.RemoveMember(owner.ID, member.UUID))

	var reloaded models.Task
	require.NoError(t, env.db.First(&reloaded, task.ID).Error)
	require.Nil(t, reloaded.AssigneeID)
}

func TestTeamMemberService_CreateInviteForUnknownEmail(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)

	invite, member, err := env.teamMembers.CreateInvite(owner.ID, CreateInviteInput{
		WorkspaceID: workspace.ID,
		Email:       "New.Hire@Example.com",
		Role:        models.RoleMember,
	})
	require.NoError(t, err)
	require.Nil(t, member)
	require.Equal(t, "new.hire@example.com", invite.Email)
	require.Equal(t, models.RoleMember, invite.Role)
	require.False(t, invite.Redeemed)

	// Same email again while the invite is pending
	_, _, err = env.teamMembers.CreateInvite(owner.ID, CreateInviteInput{
		WorkspaceID: workspace.ID,
		Email:       "new.hire@example.com",
	})
	require.ErrorIs(t, err, ErrAlreadyInvited)
}

func TestTeamMemberService_CreateInviteForExistingUserJoinsDirectly(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	existing := env.createUser(t, uniqueEmail("existing"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.activate(t, workspace)

	invite, member, err := env.teamMembers.CreateInvite(owner.ID, CreateInviteInput{
		WorkspaceID: workspace.ID,
		Email:       existing.Email,
		Role:        models.RoleMaintainer,
	})
	require.NoError(t, err)
	require.Nil(t, invite)
	require.Equal(t, existing.ID, member.UserID)
	require.Equal(t, models.RoleMaintainer, member.Role)

	_, _, err = env.teamMembers.CreateInvite(owner.ID, CreateInviteInput{
		WorkspaceID: workspace.ID,
		Email:       existing.Email,
	})
	require.ErrorIs(t, err, ErrAlreadyMember)
}

func TestTeamMemberService_InvitesAreOwnerOnly(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	maintainer := env.createUser(t, uniqueEmail("maintainer"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.addMember(t, workspace, maintainer, models.RoleMaintainer)

	_, _, err := env.teamMembers.CreateInvite(maintainer.ID, CreateInviteInput{
		WorkspaceID: workspace.ID,
		Email:       "someone@example.com",
	})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.teamMembers.ListInvites(maintainer.ID, workspace.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTeamMemberService_DeleteInvite(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")

	invite, _, err := env.teamMembers.CreateInvite(owner.ID, CreateInviteInput{
		WorkspaceID: workspace.ID,
		Email:       "pending@example.com",
	})
	require.NoError(t, err)

	require.NoError(t, env.teamMembers.DeleteInvite(owner.ID, invite.UUID))

	invites, err := env.teamMembers.ListInvites(owner.ID, workspace.ID)
	require.NoError(t, err)
	require.Empty(t, invites)
}

func TestTeamMemberService_DeleteRedeemedInviteRejected(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")

	invite, _, err := env.teamMembers.CreateInvite(owner.ID, CreateInviteInput{
		WorkspaceID: workspace.ID,
		Email:       "joined@example.com",
	})
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&models.TeamMemberInvite{}).
		Where("id = ?", invite.ID).
		Update("redeemed", true).Error)

	err = env.teamMembers.DeleteInvite(owner.ID, invite.UUID)
	require.ErrorIs(t, err, apperrors.ErrValidation)
}
