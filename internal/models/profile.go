package models

import "time"

// Roles a profile can hold within its organization.
const (
	RoleSuperManager  = "SUPER_MANAGER"
	RoleDeputyManager = "DEPUTY_MANAGER"
	RoleStaff         = "STAFF"
	RoleTeam          = "TEAM"
	RoleCustomer      = "CUSTOMER"
)

// Membership statuses.
const (
	MembershipPending  = "PENDING"
	MembershipApproved = "APPROVED"
	MembershipRejected = "REJECTED"
)

// Profile is a user's membership in an organization. All authorization
// branching derives from Role and MembershipStatus; enforcement happens at
// the data-access layer, never in clients.
type Profile struct {
	ID               string `gorm:"primaryKey;size:32"`
	OrgID            string `gorm:"size:32;not null;index"`
	Role             string `gorm:"size:16;not null;index"`
	MembershipStatus string `gorm:"size:12;default:PENDING"`
	Name             string `gorm:"size:128;not null"`
	Phone            string `gorm:"size:16;index"`
	Email            string `gorm:"size:128"`
	PasswordHash     string `gorm:"size:64"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsManager reports whether the profile can act as a manager.
func (p *Profile) IsManager() bool {
	return p.Role == RoleSuperManager || p.Role == RoleDeputyManager
}

// IsWorker reports whether the profile can claim tasks.
func (p *Profile) IsWorker() bool {
	return p.Role == RoleStaff || p.Role == RoleTeam || p.IsManager()
}
