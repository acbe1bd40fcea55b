package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChatMessage is append-only: there is no update or delete service for
// it. Author goes nil when the authoring membership is removed.
type ChatMessage struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	UUID      string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	AuthorID  *uint64   `json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Task   Task        `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Author *TeamMember `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == "" {
		m.UUID = uuid.NewString()
	}
	return nil
}
