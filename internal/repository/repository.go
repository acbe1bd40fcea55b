package repository

import (
	"github.com/plankhq/plank-api/internal/models"
	"github.com/plankhq/plank-api/internal/utils"
)

// WorkspaceRepository defines data access for workspaces, memberships,
// invites and labels.
type WorkspaceRepository interface {
	// Create creates a new workspace
	Create(workspace *models.Workspace) error

	// CreateWithOwner creates a workspace, its owner membership and its
	// customer record atomically
	CreateWithOwner(workspace *models.Workspace, member *models.TeamMember, customer *models.Customer) error

	// FindByID finds a workspace by ID
	FindByID(id uint64) (*models.Workspace, error)

	// FindByUUID finds a workspace by its external identifier
	FindByUUID(uuid string) (*models.Workspace, error)

	// FindDetail loads a workspace with members, labels, projects and customer
	FindDetail(id uint64) (*models.Workspace, error)

	// Update updates a workspace
	Update(workspace *models.Workspace) error

	// Delete removes a workspace along with its memberships, invites,
	// labels and customer record. Callers must have verified the
	// workspace holds no projects.
	Delete(id uint64) error

	// CountMembers returns the number of team members
	CountMembers(workspaceID uint64) (int64, error)

	// CountPendingInvites returns the number of unredeemed invites
	CountPendingInvites(workspaceID uint64) (int64, error)

	// CountProjects returns the number of projects, archived included
	CountProjects(workspaceID uint64) (int64, error)

	// AddMember adds a team member to a workspace
	AddMember(member *models.TeamMember) error

	// FindMember finds the membership of a user in a workspace
	FindMember(workspaceID, userID uint64) (*models.TeamMember, error)

	// FindMemberByID finds a membership row by primary key
	FindMemberByID(id uint64) (*models.TeamMember, error)

	// UpdateMember updates a membership row
	UpdateMember(member *models.TeamMember) error

	// RemoveMember deletes a membership and nulls out the assignee and
	// chat author references that point at it
	RemoveMember(member *models.TeamMember) error

	// ListMembershipsForUser lists all workspaces a user belongs to
	ListMembershipsForUser(userID uint64) ([]models.TeamMember, error)

	// CreateInvite records a pending invite
	CreateInvite(invite *models.TeamMemberInvite) error

	// FindInviteByUUID finds an invite by its external identifier
	FindInviteByUUID(uuid string) (*models.TeamMemberInvite, error)

	// DeleteInvite removes a pending invite
	DeleteInvite(id uint64) error

	// UnredeemedInvitesForEmail lists invites an email can still redeem
	UnredeemedInvitesForEmail(email string) ([]models.TeamMemberInvite, error)

	// CreateLabel creates a label in a workspace
	CreateLabel(label *models.Label) error

	// FindLabelByUUID finds a label by its external identifier
	FindLabelByUUID(uuid string) (*models.Label, error)

	// UpdateLabel updates a label
	UpdateLabel(label *models.Label) error

	// DeleteLabel removes a label and its task attachments
	DeleteLabel(id uint64) error
}

// ProjectRepository defines data access for projects and their ordered
// sections.
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID
	FindByID(id uint64) (*models.Project, error)

	// FindByUUID finds a project by its external identifier
	FindByUUID(uuid string) (*models.Project, error)

	// FindDetail loads a project with ordered sections and tasks
	FindDetail(id uint64) (*models.Project, error)

	// ListForWorkspace lists projects of a workspace, active first
	ListForWorkspace(workspaceID uint64, includeArchived bool) ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete removes a project and cascades into sections, tasks,
	// sub-tasks, chat messages and label attachments
	Delete(id uint64) error

	// CreateSection appends a section to the end of the project
	CreateSection(section *models.Section) error

	// FindSectionByUUID finds a section by its external identifier
	FindSectionByUUID(uuid string) (*models.Section, error)

	// UpdateSection updates a section's own fields (not its position)
	UpdateSection(section *models.Section) error

	// MoveSection moves a section to a target position within its project
	MoveSection(section *models.Section, target int) error

	// DeleteSection removes a section, cascades into its tasks and
	// closes the position gap
	DeleteSection(section *models.Section) error
}

// TaskRepository defines data access for tasks, sub-tasks, chat
// messages and label attachments.
type TaskRepository interface {
	// Create inserts a task at the end of its section, assigning the
	// next workspace task number atomically
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindByUUID finds a task by its external identifier
	FindByUUID(uuid string) (*models.Task, error)

	// FindDetail loads a task with assignee, labels, ordered sub-tasks
	// and chat messages
	FindDetail(id uint64) (*models.Task, error)

	// Update updates a task's own fields (not position or number)
	Update(task *models.Task) error

	// Move moves a task to a position, possibly into another section of
	// the same workspace
	Move(task *models.Task, targetSectionID uint64, target int) error

	// Delete removes a task, cascades into sub-tasks, chat messages and
	// label attachments, and closes the position gap
	Delete(task *models.Task) error

	// SetLabels replaces the set of labels attached to a task
	SetLabels(taskID uint64, labelIDs []uint64) error

	// CreateSubTask appends a sub-task to the end of its task
	CreateSubTask(subTask *models.SubTask) error

	// FindSubTaskByUUID finds a sub-task by its external identifier
	FindSubTaskByUUID(uuid string) (*models.SubTask, error)

	// UpdateSubTask updates a sub-task's own fields (not its position)
	UpdateSubTask(subTask *models.SubTask) error

	// MoveSubTask moves a sub-task to a target position within its task
	MoveSubTask(subTask *models.SubTask, target int) error

	// DeleteSubTask removes a sub-task and closes the position gap
	DeleteSubTask(subTask *models.SubTask) error

	// CreateChatMessage appends a chat message to a task
	CreateChatMessage(message *models.ChatMessage) error

	// ListChatMessages lists a page of a task's chat messages oldest
	// first, with the total count
	ListChatMessages(taskID uint64, params utils.PaginationParams) ([]models.ChatMessage, int64, error)
}

// UserRepository defines data access for users.
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// CreateRedeemingInvites creates the user and, in the same
	// transaction, turns every unredeemed invite for their email into a
	// membership. Returns the memberships created.
	CreateRedeemingInvites(user *models.User) ([]models.TeamMember, error)
}

// CustomerRepository defines data access for workspace billing records.
type CustomerRepository interface {
	// Create creates a customer record
	Create(customer *models.Customer) error

	// FindByWorkspaceID finds the customer of a workspace
	FindByWorkspaceID(workspaceID uint64) (*models.Customer, error)

	// FindByStripeCustomerID finds a customer by billing-provider id
	FindByStripeCustomerID(stripeCustomerID string) (*models.Customer, error)

	// Update updates a customer record
	Update(customer *models.Customer) error
}
