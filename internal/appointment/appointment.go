// Package appointment provides scheduled-slot requests and their approval
// into tasks.
package appointment

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/pitstop/internal/feed"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/notify"
	"github.com/zulandar/pitstop/internal/task"
	"gorm.io/gorm"
)

// Sentinel errors.
var (
	ErrNotFound   = errors.New("appointment: not found")
	ErrNotPending = errors.New("appointment: not pending")
)

// RequestOpts holds parameters for a customer's slot request.
type RequestOpts struct {
	OrgID       string
	CustomerID  string
	VehicleID   *uint
	SlotAt      time.Time
	ServiceType string
	Note        string
}

// Request files a PENDING appointment.
func Request(db *gorm.DB, opts RequestOpts) (*models.Appointment, error) {
	if opts.OrgID == "" || opts.CustomerID == "" {
		return nil, fmt.Errorf("appointment: org and customer are required")
	}
	if opts.SlotAt.IsZero() {
		return nil, fmt.Errorf("appointment: slot time is required")
	}
	if opts.ServiceType == "" {
		return nil, fmt.Errorf("appointment: service type is required")
	}

	a := models.Appointment{
		OrgID:       opts.OrgID,
		CustomerID:  opts.CustomerID,
		VehicleID:   opts.VehicleID,
		SlotAt:      opts.SlotAt,
		ServiceType: opts.ServiceType,
		Note:        opts.Note,
		Status:      models.AppointmentPending,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&a).Error; err != nil {
			return fmt.Errorf("appointment: create: %w", err)
		}
		return feed.Emit(tx, a.OrgID, "appointments", models.ActionInsert, fmt.Sprint(a.ID), &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Get retrieves an appointment within an org.
func Get(db *gorm.DB, orgID string, id uint) (*models.Appointment, error) {
	var a models.Appointment
	if err := db.Where("id = ? AND org_id = ?", id, orgID).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("appointment: get %d: %w", id, err)
	}
	return &a, nil
}

// ListPending returns an org's pending appointments, earliest slot first.
func ListPending(db *gorm.DB, orgID string) ([]models.Appointment, error) {
	var items []models.Appointment
	err := db.Where("org_id = ? AND status = ?", orgID, models.AppointmentPending).
		Order("slot_at ASC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("appointment: list pending: %w", err)
	}
	return items, nil
}

// Approve turns a pending appointment into a task carrying the appointment
// details as its intake, then routes the task per the manager's choice:
// sendNow puts it in the open queue, otherwise it is scheduled with an
// optional reminder. The customer is notified through the task approval.
func Approve(db *gorm.DB, orgID string, id uint, sendNow bool, reminderAt *time.Time) (*models.Task, error) {
	a, err := Get(db, orgID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AppointmentPending {
		return nil, fmt.Errorf("%w: %d is %s", ErrNotPending, id, a.Status)
	}

	t, err := task.Create(db, task.CreateOpts{
		OrgID:      a.OrgID,
		Title:      a.ServiceType,
		CustomerID: a.CustomerID,
		CreatedBy:  a.CustomerID,
		VehicleID:  a.VehicleID,
		Intake: models.Intake{
			Kind: models.IntakeAppointment,
			Appointment: &models.AppointmentIntake{
				SlotAt:      a.SlotAt,
				ServiceType: a.ServiceType,
				Note:        a.Note,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	t, err = task.Approve(db, t.ID, sendNow, reminderAt)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":  models.AppointmentApproved,
			"task_id": t.ID,
		}
		if err := tx.Model(&models.Appointment{}).Where("id = ?", a.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("appointment: approve %d: %w", a.ID, err)
		}
		a.Status = models.AppointmentApproved
		a.TaskID = &t.ID
		return feed.Emit(tx, a.OrgID, "appointments", models.ActionUpdate, fmt.Sprint(a.ID), a)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Reject declines a pending appointment and asks the customer to rebook.
func Reject(db *gorm.DB, orgID string, id uint) (*models.Appointment, error) {
	a, err := Get(db, orgID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AppointmentPending {
		return nil, fmt.Errorf("%w: %d is %s", ErrNotPending, id, a.Status)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Appointment{}).Where("id = ?", a.ID).
			Update("status", models.AppointmentRejected).Error; err != nil {
			return fmt.Errorf("appointment: reject %d: %w", a.ID, err)
		}
		a.Status = models.AppointmentRejected

		if err := notify.Record(tx, &models.Notification{
			RecipientID: a.CustomerID,
			OrgID:       a.OrgID,
			Type:        models.NotifyReschedule,
			Title:       "התור לא אושר",
			Message:     "המוסך לא יכול לקבל את התור המבוקש, יש לקבוע מועד חדש",
		}); err != nil {
			return err
		}
		return feed.Emit(tx, a.OrgID, "appointments", models.ActionUpdate, fmt.Sprint(a.ID), a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Reschedule moves a pending appointment to a new slot and notifies the
// customer.
func Reschedule(db *gorm.DB, orgID string, id uint, newSlot time.Time) (*models.Appointment, error) {
	a, err := Get(db, orgID, id)
	if err != nil {
		return nil, err
	}
	if a.Status != models.AppointmentPending {
		return nil, fmt.Errorf("%w: %d is %s", ErrNotPending, id, a.Status)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Appointment{}).Where("id = ?", a.ID).
			Update("slot_at", newSlot).Error; err != nil {
			return fmt.Errorf("appointment: reschedule %d: %w", a.ID, err)
		}
		a.SlotAt = newSlot

		if err := notify.Record(tx, &models.Notification{
			RecipientID: a.CustomerID,
			OrgID:       a.OrgID,
			Type:        models.NotifyReschedule,
			Title:       "התור עודכן",
			Message:     fmt.Sprintf("התור נקבע מחדש ל-%s", newSlot.Format("02/01/2006 15:04")),
		}); err != nil {
			return err
		}
		return feed.Emit(tx, a.OrgID, "appointments", models.ActionUpdate, fmt.Sprint(a.ID), a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
