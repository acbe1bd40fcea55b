package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Workspace struct {
	ID          uint64 `gorm:"primarykey" json:"id"`
	UUID        string `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Picture     string `gorm:"type:varchar(512)" json:"picture"`
	// HighestTaskNumber is the per-workspace task number counter. It is
	// only ever advanced through an atomic increment inside the task
	// creation transaction.
	HighestTaskNumber uint64    `gorm:"not null;default:0" json:"highest_task_number"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relations
	TeamMembers []TeamMember       `gorm:"foreignKey:WorkspaceID" json:"team_members,omitempty"`
	Invites     []TeamMemberInvite `gorm:"foreignKey:WorkspaceID" json:"invites,omitempty"`
	Labels      []Label            `gorm:"foreignKey:WorkspaceID" json:"labels,omitempty"`
	Projects    []Project          `gorm:"foreignKey:WorkspaceID" json:"projects,omitempty"`
	Customer    *Customer          `gorm:"foreignKey:WorkspaceID" json:"customer,omitempty"`
}

func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.UUID == "" {
		w.UUID = uuid.NewString()
	}
	return nil
}
