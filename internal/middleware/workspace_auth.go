package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/database"
	"github.com/plankhq/plank-api/internal/models"
)

const (
	ContextKeyWorkspace = "workspace"
	ContextKeyMember    = "team_member"
)

// RequireWorkspaceAccess checks if the user is a member of the
// workspace named by the :uuid parameter
func RequireWorkspaceAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		workspaceUUID := c.Param("uuid")
		if workspaceUUID == "" {
			apperrors.BadRequest(c, "Workspace UUID required")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var workspace models.Workspace
		if err := database.GetDB().Where("uuid = ?", workspaceUUID).First(&workspace).Error; err != nil {
			apperrors.NotFound(c, "Workspace not found")
			c.Abort()
			return
		}

		// Return 404 instead of 403 to avoid leaking workspace existence
		var member models.TeamMember
		err := database.GetDB().
			Where("workspace_id = ? AND user_id = ?", workspace.ID, userID).
			First(&member).Error
		if err != nil {
			apperrors.NotFound(c, "Workspace not found")
			c.Abort()
			return
		}

		c.Set(ContextKeyWorkspace, workspace)
		c.Set(ContextKeyMember, member)
		c.Next()
	}
}

// GetWorkspace retrieves the workspace stored by RequireWorkspaceAccess
func GetWorkspace(c *gin.Context) (models.Workspace, bool) {
	value, exists := c.Get(ContextKeyWorkspace)
	if !exists {
		return models.Workspace{}, false
	}
	workspace, ok := value.(models.Workspace)
	return workspace, ok
}

// GetTeamMember retrieves the membership stored by RequireWorkspaceAccess
func GetTeamMember(c *gin.Context) (models.TeamMember, bool) {
	value, exists := c.Get(ContextKeyMember)
	if !exists {
		return models.TeamMember{}, false
	}
	member, ok := value.(models.TeamMember)
	return member, ok
}
