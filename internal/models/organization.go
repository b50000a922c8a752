package models

import "time"

// Organization is a single garage's isolated data scope. Every task, vehicle
// and profile belongs to exactly one.
type Organization struct {
	ID           string `gorm:"primaryKey;size:32"`
	Name         string `gorm:"not null"`
	GarageCode   string `gorm:"size:12;uniqueIndex;not null"`
	ManagerPhone string `gorm:"size:16;index"`
	Address      string `gorm:"size:256"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Invitation is a pending offer to join an organization in a given role.
// The token doubles as the deep-link secret.
type Invitation struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrgID     string `gorm:"size:32;not null;index"`
	Token     string `gorm:"size:36;uniqueIndex;not null"`
	Phone     string `gorm:"size:16;index"`
	Role      string `gorm:"size:16;not null"`
	Status    string `gorm:"size:12;default:PENDING"`
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Invitation statuses.
const (
	InvitationPending  = "PENDING"
	InvitationAccepted = "ACCEPTED"
	InvitationRevoked  = "REVOKED"
)
