package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Task statuses. Cancellation is always a status transition, never a row
// delete — list queries exclude StatusCancelled instead.
const (
	StatusWaitingApproval  = "WAITING_FOR_APPROVAL"
	StatusScheduled        = "SCHEDULED"
	StatusWaiting          = "WAITING"
	StatusApproved         = "APPROVED"
	StatusInProgress       = "IN_PROGRESS"
	StatusPaused           = "PAUSED"
	StatusCustomerApproval = "CUSTOMER_APPROVAL"
	StatusCompleted        = "COMPLETED"
	StatusCancelled        = "CANCELLED"
)

// Task priorities.
const (
	PriorityNormal   = "NORMAL"
	PriorityUrgent   = "URGENT"
	PriorityCritical = "CRITICAL"
)

// Task is the core work item in Pitstop.
type Task struct {
	ID           string     `gorm:"primaryKey;size:32"`
	OrgID        string     `gorm:"size:32;not null;index"`
	Title        string     `gorm:"not null"`
	Description  string     `gorm:"type:text"`
	Status       string     `gorm:"size:24;default:WAITING_FOR_APPROVAL;index"`
	Priority     string     `gorm:"size:12;default:NORMAL"`
	AssignedTo   StringList `gorm:"type:text"`
	CustomerID   string     `gorm:"size:32;index"`
	CreatedBy    string     `gorm:"size:32;index"`
	VehicleID    *uint      `gorm:"index"`
	Intake       Intake     `gorm:"type:text"`
	ReminderAt   *time.Time
	ReminderSent bool      `gorm:"default:false"`
	CreatedAt    time.Time `gorm:"index"`
	UpdatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time

	Vehicle   *Vehicle   `gorm:"foreignKey:VehicleID"`
	Proposals []Proposal `gorm:"foreignKey:TaskID"`
}

// StringList stores a JSON-encoded list of ids in a text column.
type StringList []string

// Contains reports whether the list holds id.
func (l StringList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Without returns a copy of the list with id removed.
func (l StringList) Without(id string) StringList {
	out := make(StringList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("models: marshal string list: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(v interface{}) error {
	if v == nil {
		*l = StringList{}
		return nil
	}
	var data []byte
	switch s := v.(type) {
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("models: scan string list: unsupported type %T", v)
	}
	if len(data) == 0 {
		*l = StringList{}
		return nil
	}
	if err := json.Unmarshal(data, l); err != nil {
		return fmt.Errorf("models: scan string list: %w", err)
	}
	return nil
}
