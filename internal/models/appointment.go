package models

import "time"

// Appointment statuses.
const (
	AppointmentPending   = "PENDING"
	AppointmentApproved  = "APPROVED"
	AppointmentRejected  = "REJECTED"
	AppointmentCancelled = "CANCELLED"
)

// Appointment is a customer's request for a scheduled slot. Approval creates
// a Task carrying the appointment details as its intake.
type Appointment struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	OrgID       string  `gorm:"size:32;not null;index"`
	CustomerID  string  `gorm:"size:32;not null;index"`
	VehicleID   *uint   `gorm:"index"`
	SlotAt      time.Time
	ServiceType string  `gorm:"size:64"`
	Note        string  `gorm:"size:512"`
	Status      string  `gorm:"size:12;default:PENDING;index"`
	TaskID      *string `gorm:"size:32"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
