package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/pitstop/internal/feed"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/notify"
	"gorm.io/gorm"
)

// Approve moves a WAITING_FOR_APPROVAL task into the queue. sendNow puts it
// straight into WAITING; otherwise it is SCHEDULED, optionally carrying a
// reminder timestamp. A SCHEDULED task may also be approved with sendNow to
// release it to the queue early. The customer is notified either way.
func Approve(db *gorm.DB, taskID string, sendNow bool, reminderAt *time.Time) (*models.Task, error) {
	var approved models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", taskID).First(&approved).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, taskID)
			}
			return fmt.Errorf("task: find %s for approve: %w", taskID, err)
		}

		// Only pending tasks are approvable. The transition table alone is
		// not enough here: WAITING is reachable from IN_PROGRESS via the
		// release path, and approval must never ride that edge.
		switch {
		case approved.Status == models.StatusWaitingApproval:
		case approved.Status == models.StatusScheduled && sendNow:
		default:
			return fmt.Errorf("%w: approve from %q", ErrInvalidTransition, approved.Status)
		}

		next := models.StatusWaiting
		if !sendNow {
			next = models.StatusScheduled
		}
		if !isValidTransition(approved.Status, next) {
			return fmt.Errorf("%w: %q to %q", ErrInvalidTransition, approved.Status, next)
		}

		updates := map[string]interface{}{"status": next}
		if !sendNow && reminderAt != nil {
			updates["reminder_at"] = *reminderAt
			approved.ReminderAt = reminderAt
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", approved.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("task: approve %s: %w", approved.ID, err)
		}
		approved.Status = next

		if approved.CustomerID != "" {
			err := notify.Record(tx, &models.Notification{
				RecipientID: approved.CustomerID,
				OrgID:       approved.OrgID,
				Type:        models.NotifyApproval,
				Title:       "הטיפול אושר",
				Message:     fmt.Sprintf("הטיפול %q אושר על ידי המוסך", approved.Title),
				TaskID:      approved.ID,
			})
			if err != nil {
				return err
			}
		}

		return feed.Emit(tx, approved.OrgID, "tasks", models.ActionUpdate, approved.ID, &approved)
	})
	if err != nil {
		return nil, err
	}
	return &approved, nil
}

// Complete marks the task COMPLETED, stamps the completion time, and
// notifies the customer.
func Complete(db *gorm.DB, taskID string) (*models.Task, error) {
	var completed models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", taskID).First(&completed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, taskID)
			}
			return fmt.Errorf("task: find %s for complete: %w", taskID, err)
		}

		if !isValidTransition(completed.Status, models.StatusCompleted) {
			return fmt.Errorf("%w: %q to %q", ErrInvalidTransition, completed.Status, models.StatusCompleted)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":       models.StatusCompleted,
			"completed_at": now,
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", completed.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("task: complete %s: %w", completed.ID, err)
		}
		completed.Status = models.StatusCompleted
		completed.CompletedAt = &now

		if completed.CustomerID != "" {
			err := notify.Record(tx, &models.Notification{
				RecipientID: completed.CustomerID,
				OrgID:       completed.OrgID,
				Type:        models.NotifyCompleted,
				Title:       "הטיפול הושלם",
				Message:     fmt.Sprintf("הטיפול %q הסתיים, הרכב מוכן לאיסוף", completed.Title),
				TaskID:      completed.ID,
			})
			if err != nil {
				return err
			}
		}

		return feed.Emit(tx, completed.OrgID, "tasks", models.ActionUpdate, completed.ID, &completed)
	})
	if err != nil {
		return nil, err
	}
	return &completed, nil
}

// Cancel marks the task CANCELLED. Cancellation is a soft delete: the row
// stays for auditability and listings exclude it. Cancelling an already
// cancelled task is a no-op and produces no further notification.
func Cancel(db *gorm.DB, taskID string) (*models.Task, error) {
	var cancelled models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", taskID).First(&cancelled).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, taskID)
			}
			return fmt.Errorf("task: find %s for cancel: %w", taskID, err)
		}

		if cancelled.Status == models.StatusCancelled {
			return nil
		}
		if !isValidTransition(cancelled.Status, models.StatusCancelled) {
			return fmt.Errorf("%w: %q to %q", ErrInvalidTransition, cancelled.Status, models.StatusCancelled)
		}

		if err := tx.Model(&models.Task{}).Where("id = ?", cancelled.ID).
			Update("status", models.StatusCancelled).Error; err != nil {
			return fmt.Errorf("task: cancel %s: %w", cancelled.ID, err)
		}
		cancelled.Status = models.StatusCancelled

		if cancelled.CustomerID != "" {
			err := notify.Record(tx, &models.Notification{
				RecipientID: cancelled.CustomerID,
				OrgID:       cancelled.OrgID,
				Type:        models.NotifyCancelled,
				Title:       "הטיפול בוטל",
				Message:     fmt.Sprintf("הטיפול %q בוטל", cancelled.Title),
				TaskID:      cancelled.ID,
			})
			if err != nil {
				return err
			}
		}

		return feed.Emit(tx, cancelled.OrgID, "tasks", models.ActionDelete, cancelled.ID, &cancelled)
	})
	if err != nil {
		return nil, err
	}
	return &cancelled, nil
}
