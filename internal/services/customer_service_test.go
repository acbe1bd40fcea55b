package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/models"
)

func (env *serviceTestEnv) customerFor(t *testing.T, workspace models.Workspace) models.Customer {
	t.Helper()
	var customer models.Customer
	require.NoError(t, env.db.Where("workspace_id = ?", workspace.ID).First(&customer).Error)
	return customer
}

func TestCustomerService_GetForWorkspaceIsOwnerOnly(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	maintainer := env.createUser(t, uniqueEmail("maintainer"))
	workspace := env.createWorkspace(t, owner, "Acme")
	env.addMember(t, workspace, maintainer, models.RoleMaintainer)

	customer, err := env.customers.GetForWorkspace(owner.ID, workspace.UUID)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionUnpaid, customer.SubscriptionStatus)

	_, err = env.customers.GetForWorkspace(maintainer.ID, workspace.UUID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCustomerService_ActivateFromCheckout(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	customer := env.customerFor(t, workspace)

	activated, err := env.customers.Activate(customer.UUID, "cus_123", 5)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionActive, activated.SubscriptionStatus)
	require.Equal(t, "cus_123", activated.StripeCustomerID)
	require.Equal(t, 5, activated.Seats)

	_, err = env.customers.Activate(customer.UUID, "cus_123", 0)
	require.ErrorIs(t, err, ErrInvalidSeats)

	_, err = env.customers.Activate("no-such-customer", "cus_999", 1)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCustomerService_SetSeats(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	customer := env.customerFor(t, workspace)

	_, err := env.customers.Activate(customer.UUID, "cus_123", 5)
	require.NoError(t, err)

	updated, err := env.customers.SetSeats("cus_123", 8)
	require.NoError(t, err)
	require.Equal(t, 8, updated.Seats)

	_, err = env.customers.SetSeats("cus_unknown", 8)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCustomerService_CancelRestoresTrialQuotas(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	customer := env.customerFor(t, workspace)

	_, err := env.customers.Activate(customer.UUID, "cus_123", 5)
	require.NoError(t, err)

	_, section := env.board(t, owner, workspace)
	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Talk"})
	require.NoError(t, err)
	_, err = env.tasks.CreateChatMessage(owner.ID, task.UUID, "while paid")
	require.NoError(t, err)

	cancelled, err := env.customers.Cancel("cus_123")
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionCancelled, cancelled.SubscriptionStatus)

	// Back on trial rules: chat creation is blocked again
	_, err = env.tasks.CreateChatMessage(owner.ID, task.UUID, "after cancel")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCustomerService_GrantCustomCountsAsPaid(t *testing.T) {
	env := setupServiceTestEnv(t)
	owner := env.createUser(t, uniqueEmail("owner"))
	workspace := env.createWorkspace(t, owner, "Acme")
	customer := env.customerFor(t, workspace)

	granted, err := env.customers.GrantCustom(customer.UUID)
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionCustom, granted.SubscriptionStatus)

	_, section := env.board(t, owner, workspace)
	task, err := env.tasks.CreateTask(owner.ID, section.UUID, CreateTaskInput{Title: "Talk"})
	require.NoError(t, err)
	_, err = env.tasks.CreateChatMessage(owner.ID, task.UUID, "custom plan chats")
	require.NoError(t, err)
}
