package models

import "time"

// Proposal statuses. A proposal is priced by a manager, then decided by the
// customer.
const (
	ProposalPendingManager  = "PENDING_MANAGER"
	ProposalPendingCustomer = "PENDING_CUSTOMER"
	ProposalApproved        = "APPROVED"
	ProposalRejected        = "REJECTED"
)

// Proposal is an upsell or scope addition attached to a task.
type Proposal struct {
	ID          uint     `gorm:"primaryKey;autoIncrement"`
	TaskID      string   `gorm:"size:32;not null;index"`
	OrgID       string   `gorm:"size:32;not null;index"`
	Description string   `gorm:"type:text;not null"`
	Price       *float64 // set when a manager prices it
	Status      string   `gorm:"size:20;default:PENDING_MANAGER;index"`
	PhotoURL    string   `gorm:"size:512"`
	AudioURL    string   `gorm:"size:512"`
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
