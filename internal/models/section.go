package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Section holds an ordered run of tasks inside a project. Position is the
// dense zero-based index within the parent project; every mutation that
// touches it runs inside a transaction that restores the 0..n-1
// permutation before committing.
type Section struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	UUID        string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	ProjectID   uint64    `gorm:"not null;index:idx_sections_project_position" json:"project_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Position    int       `gorm:"not null;index:idx_sections_project_position" json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Tasks   []Task  `gorm:"foreignKey:SectionID" json:"tasks,omitempty"`
}

func (s *Section) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	return nil
}
