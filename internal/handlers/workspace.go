package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/dto"
	"github.com/plankhq/plank-api/internal/middleware"
	"github.com/plankhq/plank-api/internal/services"
)

// WorkspaceHandler coordinates workspace and label HTTP handlers.
type WorkspaceHandler struct {
	workspaceService *services.WorkspaceService
}

// NewWorkspaceHandler creates a new WorkspaceHandler.
func NewWorkspaceHandler(workspaceService *services.WorkspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: workspaceService,
	}
}

// CreateWorkspace creates a workspace owned by the current user.
func (h *WorkspaceHandler) CreateWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateWorkspaceRequest struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
	}

	var req CreateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	workspace, err := h.workspaceService.CreateWorkspace(services.CreateWorkspaceInput{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkspaceDTO(*workspace))
}

// ListWorkspaces lists the workspaces the current user belongs to.
func (h *WorkspaceHandler) ListWorkspaces(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.workspaceService.ListWorkspaces(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	workspaces := make([]dto.WorkspaceDTO, 0, len(memberships))
	for _, membership := range memberships {
		workspaces = append(workspaces, dto.ToWorkspaceDTO(membership.Workspace))
	}
	c.JSON(http.StatusOK, gin.H{"workspaces": workspaces})
}

// GetWorkspace returns a workspace with members, labels and projects.
func (h *WorkspaceHandler) GetWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	workspace, err := h.workspaceService.GetWorkspace(userID, c.Param("uuid"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDetailDTO(*workspace))
}

// UpdateWorkspace updates workspace metadata.
func (h *WorkspaceHandler) UpdateWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateWorkspaceRequest struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
		Picture     string `json:"picture"`
	}

	var req UpdateWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	workspace, err := h.workspaceService.UpdateWorkspace(userID, c.Param("uuid"), services.UpdateWorkspaceInput{
		Title:       req.Title,
		Description: req.Description,
		Picture:     req.Picture,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkspaceDTO(*workspace))
}

// DeleteWorkspace removes an empty workspace.
func (h *WorkspaceHandler) DeleteWorkspace(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.workspaceService.DeleteWorkspace(userID, c.Param("uuid")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Workspace deleted successfully"})
}

// CreateLabel creates a label in a workspace.
func (h *WorkspaceHandler) CreateLabel(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateLabelRequest struct {
		Name  string `json:"name" binding:"required,max=255"`
		Color uint8  `json:"color"`
	}

	var req CreateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	label, err := h.workspaceService.CreateLabel(userID, c.Param("uuid"), services.CreateLabelInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToLabelDTO(*label))
}

// UpdateLabel renames or recolors a label.
func (h *WorkspaceHandler) UpdateLabel(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateLabelRequest struct {
		Name  string `json:"name" binding:"required,max=255"`
		Color uint8  `json:"color"`
	}

	var req UpdateLabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	label, err := h.workspaceService.UpdateLabel(userID, c.Param("uuid"), services.CreateLabelInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLabelDTO(*label))
}

// DeleteLabel removes a label and its task attachments.
func (h *WorkspaceHandler) DeleteLabel(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.workspaceService.DeleteLabel(userID, c.Param("uuid")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Label deleted successfully"})
}
