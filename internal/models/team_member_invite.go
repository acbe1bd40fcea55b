package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TeamMemberInvite invites an email address that may not belong to a user
// yet. It is redeemed exactly once, when the invited email signs up.
type TeamMemberInvite struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	UUID        string     `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	WorkspaceID uint64     `gorm:"not null;index" json:"workspace_id"`
	Email       string     `gorm:"type:varchar(255);not null;index" json:"email"`
	Role        Role       `gorm:"type:varchar(20);not null" json:"role"`
	Redeemed    bool       `gorm:"not null;default:false" json:"redeemed"`
	RedeemedAt  *time.Time `json:"redeemed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
}

func (i *TeamMemberInvite) BeforeCreate(tx *gorm.DB) error {
	if i.UUID == "" {
		i.UUID = uuid.NewString()
	}
	return nil
}
