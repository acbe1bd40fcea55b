package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/dto"
	"github.com/plankhq/plank-api/internal/middleware"
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/services"
)

// TeamMemberHandler coordinates membership and invite HTTP handlers.
type TeamMemberHandler struct {
	teamMemberService *services.TeamMemberService
}

// NewTeamMemberHandler creates a new TeamMemberHandler.
func NewTeamMemberHandler(teamMemberService *services.TeamMemberService) *TeamMemberHandler {
	return &TeamMemberHandler{
		teamMemberService: teamMemberService,
	}
}

// ListMembers lists the team members of a workspace.
func (h *TeamMemberHandler) ListMembers(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}
	workspace, ok := middleware.GetWorkspace(c)
	if !ok {
		apperrors.InternalError(c, "Workspace not found in context")
		return
	}

	members, err := h.teamMemberService.ListMembers(userID, workspace.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	memberDTOs := make([]dto.TeamMemberDTO, 0, len(members))
	for _, member := range members {
		memberDTOs = append(memberDTOs, dto.ToTeamMemberDTO(member))
	}
	c.JSON(http.StatusOK, gin.H{"team_members": memberDTOs})
}

// UpdateMemberRole changes the role of a team member.
func (h *TeamMemberHandler) UpdateMemberRole(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateRoleRequest struct {
		Role string `json:"role" binding:"required"`
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.teamMemberService.UpdateRole(userID, c.Param("uuid"), models.Role(req.Role))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamMemberDTO(*member))
}

// RemoveMember removes a membership from a workspace.
func (h *TeamMemberHandler) RemoveMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.teamMemberService.RemoveMember(userID, c.Param("uuid")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Team member removed successfully"})
}

// CreateInvite invites an email address to a workspace. If the email
// already belongs to a user the membership is created directly.
func (h *TeamMemberHandler) CreateInvite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}
	workspace, ok := middleware.GetWorkspace(c)
	if !ok {
		apperrors.InternalError(c, "Workspace not found in context")
		return
	}

	type CreateInviteRequest struct {
		Email string `json:"email" binding:"required,email"`
		Role  string `json:"role"`
	}

	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	invite, member, err := h.teamMemberService.CreateInvite(userID, services.CreateInviteInput{
		WorkspaceID: workspace.ID,
		Email:       req.Email,
		Role:        models.Role(req.Role),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if member != nil {
		c.JSON(http.StatusCreated, gin.H{"team_member": dto.ToTeamMemberDTO(*member)})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invite": dto.ToInviteDTO(*invite)})
}

// ListInvites lists the pending invites of a workspace.
func (h *TeamMemberHandler) ListInvites(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}
	workspace, ok := middleware.GetWorkspace(c)
	if !ok {
		apperrors.InternalError(c, "Workspace not found in context")
		return
	}

	invites, err := h.teamMemberService.ListInvites(userID, workspace.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	inviteDTOs := make([]dto.InviteDTO, 0, len(invites))
	for _, invite := range invites {
		inviteDTOs = append(inviteDTOs, dto.ToInviteDTO(invite))
	}
	c.JSON(http.StatusOK, gin.H{"invites": inviteDTOs})
}

// DeleteInvite withdraws a pending invite.
func (h *TeamMemberHandler) DeleteInvite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.teamMemberService.DeleteInvite(userID, c.Param("uuid")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invite deleted successfully"})
}
