package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a board of ordered sections inside a workspace. A nil
// Archived timestamp means the project is active.
type Project struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	UUID        string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	WorkspaceID uint64     `gorm:"not null;index" json:"workspace_id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Archived    *time.Time `json:"archived"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Sections  []Section `gorm:"foreignKey:ProjectID" json:"sections,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	return nil
}
