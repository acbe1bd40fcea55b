package repository

import (
	"github.com/plankhq/plank-api/internal/models"
	"gorm.io/gorm"
)

// GormWorkspaceRepository is a GORM implementation of WorkspaceRepository
type GormWorkspaceRepository struct {
	db *gorm.DB
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(db *gorm.DB) WorkspaceRepository {
	return &GormWorkspaceRepository{db: db}
}

func (r *GormWorkspaceRepository) Create(workspace *models.Workspace) error {
	return r.db.Create(workspace).Error
}

// CreateWithOwner creates a workspace together with its owner membership
// and customer record in one transaction. A workspace must never exist
// without a member: a memberless workspace is invisible to everyone and
// can never be deleted.
func (r *GormWorkspaceRepository) CreateWithOwner(workspace *models.Workspace, member *models.TeamMember, customer *models.Customer) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(workspace).Error; err != nil {
			return err
		}
		member.WorkspaceID = workspace.ID
		if err := tx.Create(member).Error; err != nil {
			return err
		}
		customer.WorkspaceID = workspace.ID
		return tx.Create(customer).Error
	})
}

func (r *GormWorkspaceRepository) FindByID(id uint64) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := r.db.First(&workspace, id).Error; err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (r *GormWorkspaceRepository) FindByUUID(uuid string) (*models.Workspace, error) {
	var workspace models.Workspace
	if err := r.db.Where("uuid = ?", uuid).First(&workspace).Error; err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (r *GormWorkspaceRepository) FindDetail(id uint64) (*models.Workspace, error) {
	var workspace models.Workspace
	err := r.db.
		Preload("TeamMembers.User").
		Preload("Labels").
		Preload("Projects").
		Preload("Customer").
		First(&workspace, id).Error
	if err != nil {
		return nil, err
	}
	return &workspace, nil
}

func (r *GormWorkspaceRepository) Update(workspace *models.Workspace) error {
	return r.db.Save(workspace).Error
}

// Delete removes the workspace row and its direct dependents. The
// service layer guarantees no projects remain before calling this.
func (r *GormWorkspaceRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", id).Delete(&models.TeamMemberInvite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&models.Label{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", id).Delete(&models.Customer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Workspace{}, id).Error
	})
}

func (r *GormWorkspaceRepository) CountMembers(workspaceID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.TeamMember{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error
	return count, err
}

func (r *GormWorkspaceRepository) CountPendingInvites(workspaceID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.TeamMemberInvite{}).
		Where("workspace_id = ? AND redeemed = ?", workspaceID, false).
		Count(&count).Error
	return count, err
}

func (r *GormWorkspaceRepository) CountProjects(workspaceID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Project{}).
		Where("workspace_id = ?", workspaceID).
		Count(&count).Error
	return count, err
}

func (r *GormWorkspaceRepository) AddMember(member *models.TeamMember) error {
	return r.db.Create(member).Error
}

func (r *GormWorkspaceRepository) FindMember(workspaceID, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GormWorkspaceRepository) FindMemberByID(id uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.Preload("User").First(&member, id).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *GormWorkspaceRepository) UpdateMember(member *models.TeamMember) error {
	return r.db.Save(member).Error
}

// RemoveMember deletes the membership and nulls every reference that
// points at it, so tasks and chat history survive the member leaving.
func (r *GormWorkspaceRepository) RemoveMember(member *models.TeamMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Task{}).
			Where("assignee_id = ?", member.ID).
			UpdateColumn("assignee_id", nil).Error
		if err != nil {
			return err
		}
		err = tx.Model(&models.ChatMessage{}).
			Where("author_id = ?", member.ID).
			UpdateColumn("author_id", nil).Error
		if err != nil {
			return err
		}
		return tx.Delete(&models.TeamMember{}, member.ID).Error
	})
}

func (r *GormWorkspaceRepository) ListMembershipsForUser(userID uint64) ([]models.TeamMember, error) {
	var memberships []models.TeamMember
	err := r.db.Preload("Workspace").
		Where("user_id = ?", userID).
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

func (r *GormWorkspaceRepository) CreateInvite(invite *models.TeamMemberInvite) error {
	return r.db.Create(invite).Error
}

func (r *GormWorkspaceRepository) FindInviteByUUID(uuid string) (*models.TeamMemberInvite, error) {
	var invite models.TeamMemberInvite
	if err := r.db.Where("uuid = ?", uuid).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *GormWorkspaceRepository) DeleteInvite(id uint64) error {
	return r.db.Delete(&models.TeamMemberInvite{}, id).Error
}

func (r *GormWorkspaceRepository) UnredeemedInvitesForEmail(email string) ([]models.TeamMemberInvite, error) {
	var invites []models.TeamMemberInvite
	err := r.db.Where("email = ? AND redeemed = ?", email, false).
		Find(&invites).Error
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (r *GormWorkspaceRepository) CreateLabel(label *models.Label) error {
	return r.db.Create(label).Error
}

func (r *GormWorkspaceRepository) FindLabelByUUID(uuid string) (*models.Label, error) {
	var label models.Label
	if err := r.db.Where("uuid = ?", uuid).First(&label).Error; err != nil {
		return nil, err
	}
	return &label, nil
}

func (r *GormWorkspaceRepository) UpdateLabel(label *models.Label) error {
	return r.db.Save(label).Error
}

func (r *GormWorkspaceRepository) DeleteLabel(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("label_id = ?", id).Delete(&models.TaskLabel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Label{}, id).Error
	})
}
