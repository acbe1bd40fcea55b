package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubTask struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	UUID        string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	TaskID      uint64    `gorm:"not null;index:idx_sub_tasks_task_position" json:"task_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Done        bool      `gorm:"not null;default:false" json:"done"`
	Position    int       `gorm:"not null;index:idx_sub_tasks_task_position" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
}

func (s *SubTask) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	return nil
}
