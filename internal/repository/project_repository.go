package repository

import (
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/ordering"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

func (r *GormProjectRepository) FindByID(id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *GormProjectRepository) FindByUUID(uuid string) (*models.Project, error) {
	var project models.Project
	if err := r.db.Where("uuid = ?", uuid).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *GormProjectRepository) FindDetail(id uint64) (*models.Project, error) {
	var project models.Project
	err := r.db.
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("sections.position")
		}).
		Preload("Sections.Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("tasks.position")
		}).
		Preload("Sections.Tasks.Assignee.User").
		Preload("Sections.Tasks.Labels").
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *GormProjectRepository) ListForWorkspace(workspaceID uint64, includeArchived bool) ([]models.Project, error) {
	var projects []models.Project
	query := r.db.Where("workspace_id = ?", workspaceID)
	if !includeArchived {
		query = query.Where("archived IS NULL")
	}
	if err := query.Order("created_at").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// Delete cascades through sections, tasks, sub-tasks, chat messages and
// label attachments inside one transaction.
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var sectionIDs []uint64
		err := tx.Model(&models.Section{}).
			Where("project_id = ?", id).
			Pluck("id", &sectionIDs).Error
		if err != nil {
			return err
		}
		if len(sectionIDs) > 0 {
			if err := deleteTasksInSections(tx, sectionIDs); err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", id).Delete(&models.Section{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Project{}, id).Error
	})
}

func (r *GormProjectRepository) CreateSection(section *models.Section) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		position, err := ordering.NextPosition(tx, &models.Section{}, "project_id", section.ProjectID)
		if err != nil {
			return err
		}
		section.Position = position
		return tx.Create(section).Error
	})
}

func (r *GormProjectRepository) FindSectionByUUID(uuid string) (*models.Section, error) {
	var section models.Section
	err := r.db.Preload("Project").Where("uuid = ?", uuid).First(&section).Error
	if err != nil {
		return nil, err
	}
	return &section, nil
}

func (r *GormProjectRepository) UpdateSection(section *models.Section) error {
	return r.db.Save(section).Error
}

func (r *GormProjectRepository) MoveSection(section *models.Section, target int) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return ordering.Move(tx, &models.Section{}, "project_id", section.ProjectID, section.ID, section.Position, target)
	})
	if err != nil {
		return err
	}
	return r.db.First(section, section.ID).Error
}

func (r *GormProjectRepository) DeleteSection(section *models.Section) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteTasksInSections(tx, []uint64{section.ID}); err != nil {
			return err
		}
		if err := tx.Delete(&models.Section{}, section.ID).Error; err != nil {
			return err
		}
		return ordering.CloseGap(tx, &models.Section{}, "project_id", section.ProjectID, section.Position)
	})
}

// deleteTasksInSections removes every task under the given sections
// together with its sub-tasks, chat messages and label attachments.
func deleteTasksInSections(tx *gorm.DB, sectionIDs []uint64) error {
	var taskIDs []uint64
	err := tx.Model(&models.Task{}).
		Where("section_id IN ?", sectionIDs).
		Pluck("id", &taskIDs).Error
	if err != nil {
		return err
	}
	if len(taskIDs) == 0 {
		return nil
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.SubTask{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.ChatMessage{}).Error; err != nil {
		return err
	}
	if err := tx.Where("task_id IN ?", taskIDs).Delete(&models.TaskLabel{}).Error; err != nil {
		return err
	}
	return tx.Where("section_id IN ?", sectionIDs).Delete(&models.Task{}).Error
}
