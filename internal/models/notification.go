package models

import "time"

// Notification types.
const (
	NotifyApproval   = "APPROVAL"
	NotifyStarted    = "STARTED"
	NotifyCompleted  = "COMPLETED"
	NotifyReschedule = "RESCHEDULE"
	NotifyCancelled  = "CANCELLED"
	NotifyProposal   = "PROPOSAL"
	NotifyMembership = "MEMBERSHIP"
	NotifyReminder   = "REMINDER"
)

// Notification is addressed to one profile. The unread count is always
// derived from rows, never stored alongside them.
type Notification struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RecipientID string `gorm:"size:32;not null;index"`
	OrgID       string `gorm:"size:32;index"`
	Type        string `gorm:"size:16;not null"`
	Title       string `gorm:"size:256;not null"`
	Message     string `gorm:"type:text"`
	TaskID      string `gorm:"size:32"`
	Read        bool   `gorm:"default:false;index"`
	ReadAt      *time.Time
	CreatedAt   time.Time
}
