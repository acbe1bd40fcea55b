package dto

import (
	"time"

	"github.com/plankhq/plank-api/internal/models"
)

// SectionDTO represents a section with its ordered tasks
type SectionDTO struct {
	UUID      string    `json:"uuid"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	Tasks     []TaskDTO `json:"tasks"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectDTO is the list representation of a project
type ProjectDTO struct {
	UUID      string     `json:"uuid"`
	Title     string     `json:"title"`
	DueDate   *time.Time `json:"due_date"`
	Archived  *time.Time `json:"archived"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ProjectDetailDTO is the full snapshot pushed on the project channel
type ProjectDetailDTO struct {
	ProjectDTO
	Description string       `json:"description"`
	Sections    []SectionDTO `json:"sections"`
	CreatedAt   time.Time    `json:"created_at"`
}

// WorkspaceDTO is the list representation of a workspace
type WorkspaceDTO struct {
	UUID      string    `json:"uuid"`
	Title     string    `json:"title"`
	Picture   string    `json:"picture"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkspaceDetailDTO is the full snapshot pushed on the workspace channel
type WorkspaceDetailDTO struct {
	WorkspaceDTO
	Description string          `json:"description"`
	TeamMembers []TeamMemberDTO `json:"team_members"`
	Labels      []LabelDTO      `json:"labels"`
	Projects    []ProjectDTO    `json:"projects"`
	Customer    *CustomerDTO    `json:"customer,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func ToSectionDTO(section models.Section) SectionDTO {
	dto := SectionDTO{
		UUID:      section.UUID,
		Title:     section.Title,
		Position:  section.Position,
		Tasks:     make([]TaskDTO, len(section.Tasks)),
		UpdatedAt: section.UpdatedAt,
	}
	for i, task := range section.Tasks {
		dto.Tasks[i] = ToTaskDTO(task)
	}
	return dto
}

func ToProjectDTO(project models.Project) ProjectDTO {
	return ProjectDTO{
		UUID:      project.UUID,
		Title:     project.Title,
		DueDate:   project.DueDate,
		Archived:  project.Archived,
		UpdatedAt: project.UpdatedAt,
	}
}

func ToProjectDetailDTO(project models.Project) ProjectDetailDTO {
	dto := ProjectDetailDTO{
		ProjectDTO:  ToProjectDTO(project),
		Description: project.Description,
		Sections:    make([]SectionDTO, len(project.Sections)),
		CreatedAt:   project.CreatedAt,
	}
	for i, section := range project.Sections {
		dto.Sections[i] = ToSectionDTO(section)
	}
	return dto
}

func ToWorkspaceDTO(workspace models.Workspace) WorkspaceDTO {
	return WorkspaceDTO{
		UUID:      workspace.UUID,
		Title:     workspace.Title,
		Picture:   workspace.Picture,
		UpdatedAt: workspace.UpdatedAt,
	}
}

func ToWorkspaceDetailDTO(workspace models.Workspace) WorkspaceDetailDTO {
	dto := WorkspaceDetailDTO{
		WorkspaceDTO: ToWorkspaceDTO(workspace),
		Description:  workspace.Description,
		TeamMembers:  make([]TeamMemberDTO, len(workspace.TeamMembers)),
		Labels:       make([]LabelDTO, len(workspace.Labels)),
		Projects:     make([]ProjectDTO, len(workspace.Projects)),
		CreatedAt:    workspace.CreatedAt,
	}
	for i, member := range workspace.TeamMembers {
		dto.TeamMembers[i] = ToTeamMemberDTO(member)
	}
	for i, label := range workspace.Labels {
		dto.Labels[i] = ToLabelDTO(label)
	}
	for i, project := range workspace.Projects {
		dto.Projects[i] = ToProjectDTO(project)
	}
	if workspace.Customer != nil {
		customer := ToCustomerDTO(*workspace.Customer)
		dto.Customer = &customer
	}
	return dto
}
