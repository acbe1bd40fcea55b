// Package ordering maintains the dense zero-based position columns of
// sections, tasks and sub-tasks. Every helper expects to run inside the
// caller's transaction so a crash mid-shift can never commit a gap or a
// duplicate position.
package ordering

import (
	"github.com/plankhq/plank-api/internal/models"
	"gorm.io/gorm"
)

// NextPosition returns the position a newly appended item takes: the
// current count of siblings under the parent.
func NextPosition(tx *gorm.DB, model any, parentColumn string, parentID uint64) (int, error) {
	var count int64
	err := tx.Model(model).
		Where(parentColumn+" = ?", parentID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Clamp bounds target into [0, count-1]. A singleton collection always
// clamps to 0.
func Clamp(target, count int) int {
	if count <= 0 {
		return 0
	}
	if target < 0 {
		return 0
	}
	if target > count-1 {
		return count - 1
	}
	return target
}

// Move places item id at target within its parent collection, shifting
// everything between the old and new position by one. Moving an item
// onto its own position is a no-op.
//
// The item is parked past the end of the collection before the shift so
// no two rows ever share a position, even observed mid-transaction.
func Move(tx *gorm.DB, model any, parentColumn string, parentID, id uint64, current, target int) error {
	count, err := NextPosition(tx, model, parentColumn, parentID)
	if err != nil {
		return err
	}
	target = Clamp(target, count)
	if target == current {
		return nil
	}

	scope := func() *gorm.DB {
		return tx.Model(model).Where(parentColumn+" = ?", parentID)
	}

	if err := scope().Where("id = ?", id).
		UpdateColumn("position", count).Error; err != nil {
		return err
	}

	if current < target {
		err = scope().
			Where("position > ? AND position <= ?", current, target).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	} else {
		err = scope().
			Where("position >= ? AND position < ?", target, current).
			UpdateColumn("position", gorm.Expr("position + 1")).Error
	}
	if err != nil {
		return err
	}

	return scope().Where("id = ?", id).
		UpdateColumn("position", target).Error
}

// CloseGap decrements the position of every sibling past a removed
// position, restoring density after a delete.
func CloseGap(tx *gorm.DB, model any, parentColumn string, parentID uint64, removed int) error {
	return tx.Model(model).
		Where(parentColumn+" = ?", parentID).
		Where("position > ?", removed).
		UpdateColumn("position", gorm.Expr("position - 1")).Error
}

// NextTaskNumber advances the workspace's task number counter and
// returns the new value. The UPDATE takes a row lock on the workspace,
// serializing concurrent task creation; the counter lives in the row so
// numbers survive restarts and are never reused after deletes.
func NextTaskNumber(tx *gorm.DB, workspaceID uint64) (uint64, error) {
	res := tx.Model(&models.Workspace{}).
		Where("id = ?", workspaceID).
		UpdateColumn("highest_task_number", gorm.Expr("highest_task_number + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var number uint64
	err := tx.Model(&models.Workspace{}).
		Where("id = ?", workspaceID).
		Select("highest_task_number").
		Scan(&number).Error
	if err != nil {
		return 0, err
	}
	return number, nil
}
