package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubscriptionStatus string

const (
	SubscriptionUnpaid    SubscriptionStatus = "UNPAID"
	SubscriptionActive    SubscriptionStatus = "ACTIVE"
	SubscriptionCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionCustom    SubscriptionStatus = "CUSTOM"
)

// Customer is the one-to-one billing record of a workspace.
type Customer struct {
	ID                 uint64             `gorm:"primarykey" json:"id"`
	UUID               string             `gorm:"type:varchar(36);uniqueIndex;not null" json:"uuid"`
	WorkspaceID        uint64             `gorm:"not null;uniqueIndex" json:"workspace_id"`
	SubscriptionStatus SubscriptionStatus `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"subscription_status"`
	Seats              int                `gorm:"not null;default:1" json:"seats"`
	StripeCustomerID   string             `gorm:"type:varchar(255)" json:"stripe_customer_id"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`

	// Relations
	Workspace Workspace `gorm:"foreignKey:WorkspaceID" json:"workspace,omitempty"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == "" {
		c.UUID = uuid.NewString()
	}
	return nil
}

// Active reports whether the workspace runs on the full plan. CUSTOM
// subscriptions count as full.
func (c *Customer) Active() bool {
	return c.SubscriptionStatus == SubscriptionActive || c.SubscriptionStatus == SubscriptionCustom
}
