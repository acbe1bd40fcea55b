package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/plankhq/plank-api/internal/apperrors"
	"github.com/plankhq/plank-api/internal/dto"
	"github.com/plankhq/plank-api/internal/middleware"
	"github.com/plankhq/plank-api/internal/services"
	"github.com/plankhq/plank-api/internal/utils"
)

// TaskHandler coordinates task, sub-task and chat HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// CreateTask appends a task to the end of a section.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		Title        string     `json:"title" binding:"required,max=255"`
		Description  string     `json:"description"`
		DueDate      *time.Time `json:"due_date"`
		AssigneeUUID *string    `json:"assignee_uuid"`
		LabelUUIDs   []string   `json:"label_uuids"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(userID, c.Param("uuid"), services.CreateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		AssigneeUUID: req.AssigneeUUID,
		LabelUUIDs:   req.LabelUUIDs,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDetailDTO(*task))
}

// GetTask returns a task with assignee, labels, sub-tasks and chat.
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, err := h.taskService.GetTask(userID, c.Param("uuid"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task))
}

// UpdateTask updates a task's fields, assignee and label set.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateTaskRequest struct {
		Title        string     `json:"title" binding:"required,max=255"`
		Description  string     `json:"description"`
		DueDate      *time.Time `json:"due_date"`
		AssigneeUUID *string    `json:"assignee_uuid"`
		LabelUUIDs   []string   `json:"label_uuids"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.UpdateTask(userID, c.Param("uuid"), services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		AssigneeUUID: req.AssigneeUUID,
		LabelUUIDs:   req.LabelUUIDs,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*task))
}

// MoveTask moves a task to a position, optionally into another section.
func (h *TaskHandler) MoveTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type MoveTaskRequest struct {
		SectionUUID string `json:"section_uuid"`
		Position    *int   `json:"position" binding:"required"`
	}

	var req MoveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.MoveTask(userID, c.Param("uuid"), req.SectionUUID, *req.Position)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes a task and its content.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.taskService.DeleteTask(userID, c.Param("uuid")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// CreateSubTask appends a sub-task to a task's checklist.
func (h *TaskHandler) CreateSubTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateSubTaskRequest struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
	}

	var req CreateSubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	subTask, err := h.taskService.CreateSubTask(userID, c.Param("uuid"), services.CreateSubTaskInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToSubTaskDTO(*subTask))
}

// UpdateSubTask updates a sub-task's fields and done state.
func (h *TaskHandler) UpdateSubTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateSubTaskRequest struct {
		Title       string `json:"title" binding:"required,max=255"`
		Description string `json:"description"`
		Done        bool   `json:"done"`
	}

	var req UpdateSubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	subTask, err := h.taskService.UpdateSubTask(userID, c.Param("uuid"), services.UpdateSubTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Done:        req.Done,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSubTaskDTO(*subTask))
}

// MoveSubTask moves a sub-task to a target position within its task.
func (h *TaskHandler) MoveSubTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type MoveSubTaskRequest struct {
		Position *int `json:"position" binding:"required"`
	}

	var req MoveSubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	subTask, err := h.taskService.MoveSubTask(userID, c.Param("uuid"), *req.Position)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSubTaskDTO(*subTask))
}

// DeleteSubTask removes a sub-task from its task's checklist.
func (h *TaskHandler) DeleteSubTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := h.taskService.DeleteSubTask(userID, c.Param("uuid")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Sub-task deleted successfully"})
}

// CreateChatMessage appends a chat message to a task.
func (h *TaskHandler) CreateChatMessage(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateChatMessageRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req CreateChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	message, err := h.taskService.CreateChatMessage(userID, c.Param("uuid"), req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToChatMessageDTO(*message))
}

// ListChatMessages lists a task's chat messages oldest first.
func (h *TaskHandler) ListChatMessages(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)
	messages, total, err := h.taskService.ListChatMessages(userID, c.Param("uuid"), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	messageDTOs := make([]dto.ChatMessageDTO, 0, len(messages))
	for _, message := range messages {
		messageDTOs = append(messageDTOs, dto.ToChatMessageDTO(message))
	}
	c.JSON(http.StatusOK, gin.H{
		"chat_messages": messageDTOs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}
