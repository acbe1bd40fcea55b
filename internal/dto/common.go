package dto

import (
	"time"

	"github.com/plankhq/plank-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
}

// TeamMemberDTO represents a workspace membership
type TeamMemberDTO struct {
	UUID      string      `json:"uuid"`
	Role      models.Role `json:"role"`
	User      *UserDTO    `json:"user,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// InviteDTO represents a pending team member invite
type InviteDTO struct {
	UUID      string      `json:"uuid"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	Redeemed  bool        `json:"redeemed"`
	CreatedAt time.Time   `json:"created_at"`
}

// LabelDTO represents a workspace label
type LabelDTO struct {
	UUID  string `json:"uuid"`
	Name  string `json:"name"`
	Color uint8  `json:"color"`
}

// CustomerDTO represents the billing state of a workspace
type CustomerDTO struct {
	UUID               string                    `json:"uuid"`
	SubscriptionStatus models.SubscriptionStatus `json:"subscription_status"`
	Seats              int                       `json:"seats"`
}

func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:    user.ID,
		Email: user.Email,
	}
}

func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	dto := TeamMemberDTO{
		UUID:      member.UUID,
		Role:      member.Role,
		CreatedAt: member.CreatedAt,
	}
	if member.User.ID != 0 {
		user := ToUserDTO(member.User)
		dto.User = &user
	}
	return dto
}

func ToInviteDTO(invite models.TeamMemberInvite) InviteDTO {
	return InviteDTO{
		UUID:      invite.UUID,
		Email:     invite.Email,
		Role:      invite.Role,
		Redeemed:  invite.Redeemed,
		CreatedAt: invite.CreatedAt,
	}
}

func ToLabelDTO(label models.Label) LabelDTO {
	return LabelDTO{
		UUID:  label.UUID,
		Name:  label.Name,
		Color: label.Color,
	}
}

func ToCustomerDTO(customer models.Customer) CustomerDTO {
	return CustomerDTO{
		UUID:               customer.UUID,
		SubscriptionStatus: customer.SubscriptionStatus,
		Seats:              customer.Seats,
	}
}
