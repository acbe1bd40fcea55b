package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrTaskNumberImmutable is returned when an update tries to change a
	// task's workspace-scoped number after creation.
	ErrTaskNumberImmutable = errors.New("task number cannot be modified after inserting task")
	// ErrTaskWorkspaceMismatch is returned when a task's denormalized
	// workspace reference diverges from its section->project->workspace
	// chain.
	ErrTaskWorkspaceMismatch = errors.New("task workspace does not match workspace derived from section")
)

// Task belongs to a section. WorkspaceID is denormalized from the
// section->project chain so the workspace-wide number uniqueness can be a
// single composite index; the BeforeSave hook keeps it honest.
type Task struct {
	ID          uint64 `gorm:"primarykey" json:"id"`
	UUID        string `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	WorkspaceID uint64 `gorm:"not null;uniqueIndex:idx_tasks_workspace_number" json:"workspace_id"`
	SectionID   uint64 `gorm:"not null;index:idx_tasks_section_position" json:"section_id"`
	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	// Number is assigned once from the workspace counter and never
	// changes, even if the task moves between sections or projects.
	Number     uint64     `gorm:"not null;uniqueIndex:idx_tasks_workspace_number" json:"number"`
	Position   int        `gorm:"not null;index:idx_tasks_section_position" json:"position"`
	AssigneeID *uint64    `json:"assignee_id"`
	DueDate    *time.Time `json:"due_date"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Relations
	Workspace    Workspace     `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
	Section      Section       `gorm:"foreignKey:SectionID" json:"section,omitempty"`
	Assignee     *TeamMember   `gorm:"foreignKey:AssigneeID;constraint:OnDelete:SET NULL" json:"assignee,omitempty"`
	SubTasks     []SubTask     `gorm:"foreignKey:TaskID" json:"sub_tasks,omitempty"`
	Labels       []Label       `gorm:"many2many:task_labels" json:"labels,omitempty"`
	ChatMessages []ChatMessage `gorm:"foreignKey:TaskID" json:"chat_messages,omitempty"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.UUID == "" {
		t.UUID = uuid.NewString()
	}
	return nil
}

// BeforeSave enforces the workspace consistency invariant on both insert
// and update paths.
func (t *Task) BeforeSave(tx *gorm.DB) error {
	var derived uint64
	err := tx.Session(&gorm.Session{NewDB: true}).
		Model(&Section{}).
		Select("projects.workspace_id").
		Joins("JOIN projects ON projects.id = sections.project_id").
		Where("sections.id = ?", t.SectionID).
		Scan(&derived).Error
	if err != nil {
		return err
	}
	if derived == 0 {
		return ErrTaskWorkspaceMismatch
	}
	if t.WorkspaceID != derived {
		return ErrTaskWorkspaceMismatch
	}
	return nil
}

// BeforeUpdate rejects any change to the task number. The check reads the
// stored row so it catches full Save round-trips, not just partial
// updates.
func (t *Task) BeforeUpdate(tx *gorm.DB) error {
	if t.ID == 0 {
		return nil
	}
	var prev Task
	err := tx.Session(&gorm.Session{NewDB: true}).
		Select("number").
		First(&prev, t.ID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if prev.Number != t.Number {
		return ErrTaskNumberImmutable
	}
	return nil
}
