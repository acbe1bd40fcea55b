// Package permissions decides, for a (user, workspace, action, resource)
// tuple, whether an operation is allowed. Evaluation is read-only: it
// never mutates state, and it distinguishes "you cannot see this
// workspace" (not found) from "you can see it but may not do this"
// (forbidden).
package permissions

import (
	"errors"

	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/models"
	"gorm.io/gorm"
)

type Resource string

const (
	ResourceWorkspace  Resource = "workspace"
	ResourceTeamMember Resource = "team_member"
	ResourceInvite     Resource = "team_member_invite"
	ResourceProject    Resource = "project"
	ResourceSection    Resource = "section"
	ResourceTask       Resource = "task"
	ResourceLabel      Resource = "label"
	ResourceTaskLabel  Resource = "task_label"
	ResourceSubTask    Resource = "sub_task"
	ResourceChat       Resource = "chat_message"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// requiredRoles is the flattened rule table. Reads need OBSERVER
// everywhere; membership and billing-adjacent resources need OWNER;
// board structure needs MAINTAINER; day-to-day task work needs MEMBER.
var requiredRoles = map[Resource]map[Action]models.Role{
	ResourceWorkspace: {
		ActionCreate: models.RoleOwner,
		ActionRead:   models.RoleObserver,
		ActionUpdate: models.RoleOwner,
		ActionDelete: models.RoleOwner,
	},
	ResourceTeamMember: {
		ActionCreate: models.RoleOwner,
		ActionRead:   models.RoleObserver,
		ActionUpdate: models.RoleOwner,
		ActionDelete: models.RoleOwner,
	},
	ResourceInvite: {
		ActionCreate: models.RoleOwner,
		ActionRead:   models.RoleOwner,
		ActionUpdate: models.RoleOwner,
		ActionDelete: models.RoleOwner,
	},
	ResourceProject: {
		ActionCreate: models.RoleMaintainer,
		ActionRead:   models.RoleObserver,
		ActionUpdate: models.RoleMaintainer,
		ActionDelete: models.RoleMaintainer,
	},
	ResourceSection: {
		ActionCreate: models.RoleMaintainer,
		ActionRead:   models.RoleObserver,
		ActionUpdate: models.RoleMaintainer,
		ActionDelete: models.RoleMaintainer,
	},
	ResourceTask: {
		ActionCreate: models.RoleMember,
		ActionRead:   models.RoleObserver,
		ActionUpdate: models.RoleMember,
		ActionDelete: models.RoleMaintainer,
	},
	ResourceLabel: {
		ActionCreate: models.RoleMaintainer,
		ActionRead:   models.RoleObserver,
		ActionUpdate: models.RoleMaintainer,
		ActionDelete: models.RoleMaintainer,
	},
	ResourceTaskLabel: {
		ActionCreate: models.RoleMember,
		ActionRead:   models.RoleObserver,
		ActionUpdate: models.RoleMember,
		ActionDelete: models.RoleMember,
	},
	ResourceSubTask: {
		ActionCreate: models.RoleMember,
		ActionRead:   models.RoleObserver,
		ActionUpdate: models.RoleMember,
		ActionDelete: models.RoleMember,
	},
	ResourceChat: {
		ActionCreate: models.RoleMember,
		ActionRead:   models.RoleObserver,
		ActionUpdate: models.RoleMember,
		ActionDelete: models.RoleMaintainer,
	},
}

// trialCeilings caps how many rows of each kind a trial workspace may
// hold. Resources missing from the map are unlimited (TaskLabel).
// TeamMember counts memberships plus unredeemed invites combined.
var trialCeilings = map[Resource]int64{
	ResourceChat:       0,
	ResourceLabel:      10,
	ResourceSubTask:    1000,
	ResourceTask:       1000,
	ResourceProject:    10,
	ResourceSection:    100,
	ResourceTeamMember: 2,
	ResourceInvite:     2,
}

// MemberFor looks up the caller's membership row for a workspace.
func MemberFor(db *gorm.DB, userID, workspaceID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// HasRoleAtLeast reports whether the user holds at least the required
// role in the workspace. Users without a membership row always fail.
func HasRoleAtLeast(db *gorm.DB, userID, workspaceID uint64, required models.Role) bool {
	member, err := MemberFor(db, userID, workspaceID)
	if err != nil {
		return false
	}
	return member.Role.AtLeast(required)
}

// Feature tags resolved from the workspace's subscription status.
const (
	FeatureTrial = "trial"
	FeatureFull  = "full"
)

// WorkspaceFeature resolves the workspace's plan. Workspaces without a
// customer row, or with an UNPAID or CANCELLED subscription, are on
// trial.
func WorkspaceFeature(db *gorm.DB, workspaceID uint64) string {
	var customer models.Customer
	err := db.Where("workspace_id = ?", workspaceID).First(&customer).Error
	if err != nil {
		return FeatureTrial
	}
	if customer.Active() {
		return FeatureFull
	}
	return FeatureTrial
}

// FeatureAvailable reports whether the workspace's plan matches the
// requested feature tag, for a user that belongs to the workspace.
func FeatureAvailable(db *gorm.DB, userID, workspaceID uint64, feature string) bool {
	if _, err := MemberFor(db, userID, workspaceID); err != nil {
		return false
	}
	return WorkspaceFeature(db, workspaceID) == feature
}

// WithinTrialQuota reports whether one more row of the given resource
// kind may be created in a trial workspace.
func WithinTrialQuota(db *gorm.DB, resource Resource, workspaceID uint64) (bool, error) {
	ceiling, capped := trialCeilings[resource]
	if !capped {
		return true, nil
	}

	var count int64
	var err error
	switch resource {
	case ResourceChat:
		err = db.Model(&models.ChatMessage{}).
			Joins("JOIN tasks ON tasks.id = chat_messages.task_id").
			Where("tasks.workspace_id = ?", workspaceID).
			Count(&count).Error
	case ResourceLabel:
		err = db.Model(&models.Label{}).
			Where("workspace_id = ?", workspaceID).
			Count(&count).Error
	case ResourceSubTask:
		err = db.Model(&models.SubTask{}).
			Joins("JOIN tasks ON tasks.id = sub_tasks.task_id").
			Where("tasks.workspace_id = ?", workspaceID).
			Count(&count).Error
	case ResourceTask:
		err = db.Model(&models.Task{}).
			Where("workspace_id = ?", workspaceID).
			Count(&count).Error
	case ResourceProject:
		err = db.Model(&models.Project{}).
			Where("workspace_id = ?", workspaceID).
			Count(&count).Error
	case ResourceSection:
		err = db.Model(&models.Section{}).
			Joins("JOIN projects ON projects.id = sections.project_id").
			Where("projects.workspace_id = ?", workspaceID).
			Count(&count).Error
	case ResourceTeamMember, ResourceInvite:
		var invites int64
		err = db.Model(&models.TeamMember{}).
			Where("workspace_id = ?", workspaceID).
			Count(&count).Error
		if err == nil {
			err = db.Model(&models.TeamMemberInvite{}).
				Where("workspace_id = ? AND redeemed = ?", workspaceID, false).
				Count(&invites).Error
			count += invites
		}
	}
	if err != nil {
		return false, err
	}
	return count < ceiling, nil
}

// Check is the composite permission: membership exists, role suffices,
// and for creates the plan allows one more row. Missing membership maps
// to not-found so callers never confirm foreign workspaces; everything
// else that fails maps to forbidden.
func Check(db *gorm.DB, userID, workspaceID uint64, action Action, resource Resource) error {
	member, err := MemberFor(db, userID, workspaceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFoundf("no membership in workspace %d", workspaceID)
		}
		return err
	}

	required, ok := requiredRoles[resource][action]
	if !ok {
		return apperrors.Forbiddenf("no rule for %s %s", action, resource)
	}
	if !member.Role.AtLeast(required) {
		return apperrors.Forbiddenf("%s requires at least %s", action, required)
	}

	// Quota ceilings only gate row creation.
	if action != ActionCreate {
		return nil
	}
	if WorkspaceFeature(db, workspaceID) == FeatureFull {
		return nil
	}
	within, err := WithinTrialQuota(db, resource, workspaceID)
	if err != nil {
		return err
	}
	if !within {
		return apperrors.Forbiddenf("trial quota reached for %s", resource)
	}
	return nil
}
