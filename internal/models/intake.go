package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Intake kinds. The kind discriminates which variant struct is populated.
const (
	IntakeCheckIn     = "CHECK_IN"
	IntakeAppointment = "APPOINTMENT_REQUEST"
	IntakeManual      = "MANUAL_ENTRY"
)

// Intake is the tagged union describing how a task entered the system.
// Exactly one variant matching Kind is set; the whole union is stored as a
// single JSON text column.
type Intake struct {
	Kind        string             `json:"kind"`
	CheckIn     *CheckInIntake     `json:"check_in,omitempty"`
	Appointment *AppointmentIntake `json:"appointment,omitempty"`
	Manual      *ManualIntake      `json:"manual,omitempty"`
}

// CheckInIntake holds fields captured at a customer drop-off.
type CheckInIntake struct {
	FaultDescription string `json:"fault_description"`
	Mileage          int    `json:"mileage,omitempty"`
	PaymentMethod    string `json:"payment_method,omitempty"`
}

// AppointmentIntake holds fields carried over from an approved appointment.
type AppointmentIntake struct {
	SlotAt      time.Time `json:"slot_at"`
	ServiceType string    `json:"service_type"`
	Note        string    `json:"note,omitempty"`
}

// ManualIntake holds fields for a task staff entered by hand.
type ManualIntake struct {
	Note string `json:"note,omitempty"`
}

// Validate checks that Kind is known and the matching variant is set.
func (i Intake) Validate() error {
	switch i.Kind {
	case IntakeCheckIn:
		if i.CheckIn == nil {
			return fmt.Errorf("models: intake %s: check_in variant is required", i.Kind)
		}
	case IntakeAppointment:
		if i.Appointment == nil {
			return fmt.Errorf("models: intake %s: appointment variant is required", i.Kind)
		}
	case IntakeManual:
		if i.Manual == nil {
			return fmt.Errorf("models: intake %s: manual variant is required", i.Kind)
		}
	case "":
		return fmt.Errorf("models: intake kind is required")
	default:
		return fmt.Errorf("models: unknown intake kind %q", i.Kind)
	}
	return nil
}

// Value implements driver.Valuer.
func (i Intake) Value() (driver.Value, error) {
	data, err := json.Marshal(i)
	if err != nil {
		return nil, fmt.Errorf("models: marshal intake: %w", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (i *Intake) Scan(v interface{}) error {
	if v == nil {
		*i = Intake{}
		return nil
	}
	var data []byte
	switch s := v.(type) {
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("models: scan intake: unsupported type %T", v)
	}
	if len(data) == 0 {
		*i = Intake{}
		return nil
	}
	if err := json.Unmarshal(data, i); err != nil {
		return fmt.Errorf("models: scan intake: %w", err)
	}
	return nil
}
