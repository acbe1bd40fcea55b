package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleObserver   Role = "OBSERVER"
	RoleMember     Role = "MEMBER"
	RoleMaintainer Role = "MAINTAINER"
	RoleOwner      Role = "OWNER"
)

var roleOrdinals = map[Role]int{
	RoleObserver:   0,
	RoleMember:     1,
	RoleMaintainer: 2,
	RoleOwner:      3,
}

// Ordinal returns the rank of the role in the strictly ordered hierarchy
// OBSERVER < MEMBER < MAINTAINER < OWNER. Unknown roles rank below
// OBSERVER.
func (r Role) Ordinal() int {
	ord, ok := roleOrdinals[r]
	if !ok {
		return -1
	}
	return ord
}

// AtLeast reports whether r grants everything required of role.
func (r Role) AtLeast(required Role) bool {
	return r.Ordinal() >= required.Ordinal()
}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	_, ok := roleOrdinals[r]
	return ok
}

// TeamMember is the membership of a User in a Workspace. A user holds at
// most one membership row per workspace.
type TeamMember struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	UUID        string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	WorkspaceID uint64    `gorm:"not null;uniqueIndex:idx_team_members_workspace_user" json:"workspace_id"`
	UserID      uint64    `gorm:"not null;uniqueIndex:idx_team_members_workspace_user" json:"user_id"`
	Role        Role      `gorm:"type:varchar(20);not null" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	User      User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (m *TeamMember) BeforeCreate(tx *gorm.DB) error {
	if m.UUID == "" {
		m.UUID = uuid.NewString()
	}
	return nil
}
