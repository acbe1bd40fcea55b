package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/dto"
	"github.com/plankhq/plank-api/internal/middleware"
	"github.com/plankhq/plank-api/internal/services"
)

// ProjectHandler coordinates project and section HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// CreateProject creates a project in a workspace.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProjectRequest struct {
		Title       string     `json:"title" binding:"required,max=255"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(userID, c.Param("uuid"), services.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project))
}

// ListProjects lists the projects of a workspace. Archived projects
// are included when the archived query flag is set.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	includeArchived := c.Query("archived") == "true"
	projects, err := h.projectService.ListProjects(userID, c.Param("uuid"), includeArchived)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	projectDTOs := make([]dto.ProjectDTO, 0, len(projects))
	for _, project := range projects {
		projectDTOs = append(projectDTOs, dto.ToProjectDTO(project))
	}
	c.JSON(http.StatusOK, gin.H{"projects": projectDTOs})
}

// GetProject returns a project with its ordered sections and tasks.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	project, err := h.projectService.GetProject(userID, c.Param("uuid"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDetailDTO(*project))
}

// UpdateProject updates project metadata.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateProjectRequest struct {
		Title       string     `json:"title" binding:"required,max=255"`
		Description string     `json:"description"`
		DueDate     *time.Time `json:"due_date"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(userID, c.Param("uuid"), services.UpdateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// SetProjectArchived archives or restores a project.
func (h *ProjectHandler) SetProjectArchived(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type ArchiveRequest struct {
		Archived *bool `json:"archived" binding:"required"`
	}

	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.SetProjectArchived(userID, c.Param("uuid"), *req.Archived)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project))
}

// DeleteProject removes a project and all of its content.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.projectService.DeleteProject(userID, c.Param("uuid")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

// CreateSection appends a section to the end of a project.
func (h *ProjectHandler) CreateSection(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateSectionRequest struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
	}

	var req CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	section, err := h.projectService.CreateSection(userID, c.Param("uuid"), services.CreateSectionInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToSectionDTO(*section))
}

// UpdateSection updates a section's title and description.
func (h *ProjectHandler) UpdateSection(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateSectionRequest struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
	}

	var req UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	section, err := h.projectService.UpdateSection(userID, c.Param("uuid"), services.CreateSectionInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSectionDTO(*section))
}

// MoveSection moves a section to a target position within its project.
func (h *ProjectHandler) MoveSection(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type MoveSectionRequest struct {
		Position *int `json:"position" binding:"required"`
	}

	var req MoveSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	section, err := h.projectService.MoveSection(userID, c.Param("uuid"), *req.Position)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSectionDTO(*section))
}

// DeleteSection removes a section along with its tasks.
func (h *ProjectHandler) DeleteSection(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.projectService.DeleteSection(userID, c.Param("uuid")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Section deleted successfully"})
}
