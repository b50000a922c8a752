package task

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/pitstop/internal/feed"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/notify"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Claim assigns the worker to the task and moves it to IN_PROGRESS. The row
// is locked for the duration of the transaction so two workers racing for the
// same task serialize. Claiming a task the worker already holds is a no-op.
//
// Managers are notified that work started; the customer too, when the task
// has one.
func Claim(db *gorm.DB, taskID string, worker *models.Profile) (*models.Task, error) {
	if worker == nil || worker.ID == "" {
		return nil, fmt.Errorf("task: worker is required")
	}

	var claimed models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND org_id = ?", taskID, worker.OrgID).
			First(&claimed).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, taskID)
			}
			return fmt.Errorf("task: find %s for claim: %w", taskID, err)
		}

		if claimed.AssignedTo.Contains(worker.ID) {
			return nil
		}

		switch claimed.Status {
		case models.StatusWaiting, models.StatusApproved, models.StatusInProgress:
		default:
			return fmt.Errorf("%w: %s is %s", ErrNotClaimable, taskID, claimed.Status)
		}

		now := time.Now()
		assigned := append(models.StringList{}, claimed.AssignedTo...)
		assigned = append(assigned, worker.ID)

		updates := map[string]interface{}{
			"status":      models.StatusInProgress,
			"assigned_to": assigned,
		}
		if claimed.StartedAt == nil {
			updates["started_at"] = now
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", claimed.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("task: claim %s: %w", claimed.ID, err)
		}
		claimed.Status = models.StatusInProgress
		claimed.AssignedTo = assigned
		if claimed.StartedAt == nil {
			claimed.StartedAt = &now
		}

		err := notify.Managers(tx, claimed.OrgID, models.Notification{
			Type:    models.NotifyStarted,
			Title:   "העבודה התחילה",
			Message: fmt.Sprintf("%s התחיל לעבוד על %q", worker.Name, claimed.Title),
			TaskID:  claimed.ID,
		})
		if err != nil {
			return err
		}
		if claimed.CustomerID != "" {
			err := notify.Record(tx, &models.Notification{
				RecipientID: claimed.CustomerID,
				OrgID:       claimed.OrgID,
				Type:        models.NotifyStarted,
				Title:       "הטיפול ברכב התחיל",
				Message:     fmt.Sprintf("העבודה על %q החלה", claimed.Title),
				TaskID:      claimed.ID,
			})
			if err != nil {
				return err
			}
		}

		return feed.Emit(tx, claimed.OrgID, "tasks", models.ActionUpdate, claimed.ID, &claimed)
	})
	if err != nil {
		return nil, err
	}
	return &claimed, nil
}

// Release removes the worker from the task's assignment list. When the list
// empties the task reverts to WAITING; otherwise status is unchanged.
func Release(db *gorm.DB, taskID, workerID string) (*models.Task, error) {
	if workerID == "" {
		return nil, fmt.Errorf("task: worker is required")
	}

	var released models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", taskID).First(&released).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, taskID)
			}
			return fmt.Errorf("task: find %s for release: %w", taskID, err)
		}

		if !released.AssignedTo.Contains(workerID) {
			return fmt.Errorf("%w: %s on %s", ErrNotAssigned, workerID, taskID)
		}

		assigned := released.AssignedTo.Without(workerID)
		updates := map[string]interface{}{"assigned_to": assigned}
		if len(assigned) == 0 {
			updates["status"] = models.StatusWaiting
			released.Status = models.StatusWaiting
		}
		if err := tx.Model(&models.Task{}).Where("id = ?", released.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("task: release %s: %w", released.ID, err)
		}
		released.AssignedTo = assigned

		return feed.Emit(tx, released.OrgID, "tasks", models.ActionUpdate, released.ID, &released)
	})
	if err != nil {
		return nil, err
	}
	return &released, nil
}
