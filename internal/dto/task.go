package dto

import (
	"time"

	"github.com/plankhq/plank-api/internal/models"
)

// SubTaskDTO represents a sub-task in API and push payloads
type SubTaskDTO struct {
	UUID        string    `json:"uuid"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Done        bool      `json:"done"`
	Position    int       `json:"position"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ChatMessageDTO represents a chat message on a task
type ChatMessageDTO struct {
	UUID      string         `json:"uuid"`
	Text      string         `json:"text"`
	Author    *TeamMemberDTO `json:"author,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// TaskDTO is the list representation of a task
type TaskDTO struct {
	UUID      string         `json:"uuid"`
	Number    uint64         `json:"number"`
	Title     string         `json:"title"`
	Position  int            `json:"position"`
	DueDate   *time.Time     `json:"due_date"`
	Assignee  *TeamMemberDTO `json:"assignee,omitempty"`
	Labels    []LabelDTO     `json:"labels,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// TaskDetailDTO is the full snapshot pushed on the task channel.
// Subscribers replace local state with it wholesale, keyed by uuid and
// updated_at.
type TaskDetailDTO struct {
	TaskDTO
	Description  string           `json:"description"`
	SubTasks     []SubTaskDTO     `json:"sub_tasks"`
	ChatMessages []ChatMessageDTO `json:"chat_messages"`
	CreatedAt    time.Time        `json:"created_at"`
}

func ToSubTaskDTO(subTask models.SubTask) SubTaskDTO {
	return SubTaskDTO{
		UUID:        subTask.UUID,
		Title:       subTask.Title,
		Description: subTask.Description,
		Done:        subTask.Done,
		Position:    subTask.Position,
		UpdatedAt:   subTask.UpdatedAt,
	}
}

func ToChatMessageDTO(message models.ChatMessage) ChatMessageDTO {
	dto := ChatMessageDTO{
		UUID:      message.UUID,
		Text:      message.Text,
		CreatedAt: message.CreatedAt,
	}
	if message.Author != nil {
		author := ToTeamMemberDTO(*message.Author)
		dto.Author = &author
	}
	return dto
}

func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		UUID:      task.UUID,
		Number:    task.Number,
		Title:     task.Title,
		Position:  task.Position,
		DueDate:   task.DueDate,
		UpdatedAt: task.UpdatedAt,
	}
	if task.Assignee != nil {
		assignee := ToTeamMemberDTO(*task.Assignee)
		dto.Assignee = &assignee
	}
	if len(task.Labels) > 0 {
		dto.Labels = make([]LabelDTO, len(task.Labels))
		for i, label := range task.Labels {
			dto.Labels[i] = ToLabelDTO(label)
		}
	}
	return dto
}

func ToTaskDetailDTO(task models.Task) TaskDetailDTO {
	dto := TaskDetailDTO{
		TaskDTO:      ToTaskDTO(task),
		Description:  task.Description,
		SubTasks:     make([]SubTaskDTO, len(task.SubTasks)),
		ChatMessages: make([]ChatMessageDTO, len(task.ChatMessages)),
		CreatedAt:    task.CreatedAt,
	}
	for i, subTask := range task.SubTasks {
		dto.SubTasks[i] = ToSubTaskDTO(subTask)
	}
	for i, message := range task.ChatMessages {
		dto.ChatMessages[i] = ToChatMessageDTO(message)
	}
	return dto
}
