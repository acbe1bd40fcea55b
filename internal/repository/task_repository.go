package repository

import (
	"github.com/plankhq/plank-api/internal/database"
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/ordering"
	"github.com/plankhq/plank-api/internal/utils"
	"gorm.io/gorm"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create assigns the next workspace task number and appends the task to
// its section, all inside one transaction. The counter update locks the
// workspace row, so concurrent creates serialize and numbers are never
// reused even after deletes.
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		number, err := ordering.NextTaskNumber(tx, task.WorkspaceID)
		if err != nil {
			return err
		}
		task.Number = number

		position, err := ordering.NextPosition(tx, &models.Task{}, "section_id", task.SectionID)
		if err != nil {
			return err
		}
		task.Position = position

		return tx.Create(task).Error
	})
}

func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) FindByUUID(uuid string) (*models.Task, error) {
	var task models.Task
	err := r.db.Preload("Section").Where("uuid = ?", uuid).First(&task).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) FindDetail(id uint64) (*models.Task, error) {
	var task models.Task
	err := r.db.
		Preload("Section").
		Preload("Assignee.User").
		Preload("Labels").
		Preload("SubTasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("sub_tasks.position")
		}).
		Preload("ChatMessages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_messages.created_at")
		}).
		Preload("ChatMessages.Author.User").
		First(&task, id).Error
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// Move relocates a task within its section, or into another section of
// the same workspace. A cross-section move closes the gap left behind
// and inserts at the clamped target position in the destination.
func (r *GormTaskRepository) Move(task *models.Task, targetSectionID uint64, target int) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if targetSectionID == task.SectionID {
			return ordering.Move(tx, &models.Task{}, "section_id", task.SectionID, task.ID, task.Position, target)
		}

		oldSectionID := task.SectionID
		oldPosition := task.Position

		// Append to the destination, then close the source gap and walk
		// the task to its target slot.
		count, err := ordering.NextPosition(tx, &models.Task{}, "section_id", targetSectionID)
		if err != nil {
			return err
		}
		err = tx.Model(&models.Task{}).
			Where("id = ?", task.ID).
			UpdateColumns(map[string]any{
				"section_id": targetSectionID,
				"position":   count,
			}).Error
		if err != nil {
			return err
		}
		err = ordering.CloseGap(tx, &models.Task{}, "section_id", oldSectionID, oldPosition)
		if err != nil {
			return err
		}
		return ordering.Move(tx, &models.Task{}, "section_id", targetSectionID, task.ID, count, target)
	})
	if err != nil {
		return err
	}
	return r.db.First(task, task.ID).Error
}

func (r *GormTaskRepository) Delete(task *models.Task) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.SubTask{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.ChatMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&models.TaskLabel{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Task{}, task.ID).Error; err != nil {
			return err
		}
		return ordering.CloseGap(tx, &models.Task{}, "section_id", task.SectionID, task.Position)
	})
}

// SetLabels replaces the task's label attachments with the given set.
// Surviving attachments keep their original creation time so display
// order is stable.
func (r *GormTaskRepository) SetLabels(taskID uint64, labelIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		query := tx.Where("task_id = ?", taskID)
		if len(labelIDs) > 0 {
			query = query.Where("label_id NOT IN ?", labelIDs)
		}
		if err := query.Delete(&models.TaskLabel{}).Error; err != nil {
			return err
		}
		for _, labelID := range labelIDs {
			var existing int64
			err := tx.Model(&models.TaskLabel{}).
				Where("task_id = ? AND label_id = ?", taskID, labelID).
				Count(&existing).Error
			if err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			attachment := models.TaskLabel{TaskID: taskID, LabelID: labelID}
			if err := tx.Create(&attachment).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormTaskRepository) CreateSubTask(subTask *models.SubTask) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		position, err := ordering.NextPosition(tx, &models.SubTask{}, "task_id", subTask.TaskID)
		if err != nil {
			return err
		}
		subTask.Position = position
		return tx.Create(subTask).Error
	})
}

func (r *GormTaskRepository) FindSubTaskByUUID(uuid string) (*models.SubTask, error) {
	var subTask models.SubTask
	err := r.db.Preload("Task").Where("uuid = ?", uuid).First(&subTask).Error
	if err != nil {
		return nil, err
	}
	return &subTask, nil
}

func (r *GormTaskRepository) UpdateSubTask(subTask *models.SubTask) error {
	return r.db.Save(subTask).Error
}

func (r *GormTaskRepository) MoveSubTask(subTask *models.SubTask, target int) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		return ordering.Move(tx, &models.SubTask{}, "task_id", subTask.TaskID, subTask.ID, subTask.Position, target)
	})
	if err != nil {
		return err
	}
	return r.db.First(subTask, subTask.ID).Error
}

func (r *GormTaskRepository) DeleteSubTask(subTask *models.SubTask) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.SubTask{}, subTask.ID).Error; err != nil {
			return err
		}
		return ordering.CloseGap(tx, &models.SubTask{}, "task_id", subTask.TaskID, subTask.Position)
	})
}

func (r *GormTaskRepository) CreateChatMessage(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

func (r *GormTaskRepository) ListChatMessages(taskID uint64, params utils.PaginationParams) ([]models.ChatMessage, int64, error) {
	var total int64
	err := r.db.Model(&models.ChatMessage{}).
		Where("task_id = ?", taskID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var messages []models.ChatMessage
	err = r.db.Preload("Author.User").
		Where("task_id = ?", taskID).
		Order("created_at").
		Scopes(database.Paginate(params)).
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}
