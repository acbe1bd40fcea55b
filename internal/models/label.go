package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Label struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	UUID        string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	WorkspaceID uint64    `gorm:"not null;index" json:"workspace_id"`
	Name        string    `gorm:"type:varchar(255);not null" json:"name"`
	Color       uint8     `gorm:"not null;default:0" json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
}

func (l *Label) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == "" {
		l.UUID = uuid.NewString()
	}
	return nil
}

// TaskLabel attaches a label to a task. CreatedAt preserves attachment
// order for display.
type TaskLabel struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;uniqueIndex:idx_task_labels_task_label" json:"task_id"`
	LabelID   uint64    `gorm:"not null;uniqueIndex:idx_task_labels_task_label" json:"label_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task  Task  `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Label Label `gorm:"foreignKey:LabelID" json:"label,omitempty"`
}
