// Package proposal provides upsell proposals: manager pricing followed by a
// customer decision.
package proposal

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
	ErrNotFound    = errors.New("proposal: not found")
	ErrWrongStatus = errors.New("proposal: wrong status for operation")
)

// CreateOpts holds parameters for attaching a proposal to a task.
type CreateOpts struct {
	TaskID      string
	Description string
	PhotoURL    string
	AudioURL    string
}

// Create attaches a PENDING_MANAGER proposal to a task and alerts managers
// to price it.
func Create(db *gorm.DB, opts CreateOpts) (*models.Proposal, error) {
	if opts.Description == "" {
		return nil, fmt.Errorf("proposal: description is required")
	}
	t, err := task.Get(db, opts.TaskID)
	if err != nil {
		return nil, err
	}

	p := models.Proposal{
		TaskID:      t.ID,
		OrgID:       t.OrgID,
		Description: opts.Description,
		Status:      models.ProposalPendingManager,
		PhotoURL:    opts.PhotoURL,
		AudioURL:    opts.AudioURL,
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("proposal: create: %w", err)
		}
		if err := notify.Managers(tx, p.OrgID, models.Notification{
			Type:    models.NotifyProposal,
			Title:   "הצעה חדשה ממתינה לתמחור",
			Message: p.Description,
			TaskID:  p.TaskID,
		}); err != nil {
			return err
		}
		return feed.Emit(tx, p.OrgID, "proposals", models.ActionInsert, fmt.Sprint(p.ID), &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns an org's proposals, newest first, optionally filtered by
// status.
func List(db *gorm.DB, orgID, status string) ([]models.Proposal, error) {
	q := db.Where("org_id = ?", orgID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var items []models.Proposal
	if err := q.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("proposal: list: %w", err)
	}
	return items, nil
}

// ListForCustomer returns proposals on the customer's tasks, newest first.
func ListForCustomer(db *gorm.DB, orgID, customerID string) ([]models.Proposal, error) {
	var items []models.Proposal
	err := db.Where("org_id = ? AND task_id IN (?)", orgID,
		db.Model(&models.Task{}).Select("id").Where("org_id = ? AND customer_id = ?", orgID, customerID)).
		Order("created_at DESC").Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("proposal: list for customer: %w", err)
	}
	return items, nil
}

// Get retrieves a proposal within an org.
func Get(db *gorm.DB, orgID string, id uint) (*models.Proposal, error) {
	var p models.Proposal
	if err := db.Where("id = ? AND org_id = ?", id, orgID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("proposal: get %d: %w", id, err)
	}
	return &p, nil
}

// SetPrice prices a PENDING_MANAGER proposal and hands it to the customer
// for a decision. The task moves to CUSTOMER_APPROVAL while it waits.
func SetPrice(db *gorm.DB, orgID string, id uint, price float64) (*models.Proposal, error) {
	p, err := Get(db, orgID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProposalPendingManager {
		return nil, fmt.Errorf("%w: %d is %s", ErrWrongStatus, id, p.Status)
	}
	if price <= 0 {
		return nil, fmt.Errorf("proposal: price must be positive")
	}

	t, err := task.Get(db, p.TaskID)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"price":  price,
			"status": models.ProposalPendingCustomer,
		}
		if err := tx.Model(&models.Proposal{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("proposal: set price %d: %w", p.ID, err)
		}
		p.Price = &price
		p.Status = models.ProposalPendingCustomer

		if t.CustomerID != "" {
			if err := notify.Record(tx, &models.Notification{
				RecipientID: t.CustomerID,
				OrgID:       p.OrgID,
				Type:        models.NotifyProposal,
				Title:       "הצעת מחיר ממתינה לאישור",
				Message:     fmt.Sprintf("%s: ₪%.0f", p.Description, price),
				TaskID:      p.TaskID,
			}); err != nil {
				return err
			}
		}
		return feed.Emit(tx, p.OrgID, "proposals", models.ActionUpdate, fmt.Sprint(p.ID), p)
	})
	if err != nil {
		return nil, err
	}

	// Park the task while the customer decides. Invalid when the task is
	// not IN_PROGRESS; the proposal flow still stands on its own then.
	if t.Status == models.StatusInProgress {
		if _, err := task.Update(db, t.ID, map[string]interface{}{"status": models.StatusCustomerApproval}); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Decide records the customer's accept/reject and returns the task to
// IN_PROGRESS if it was parked on this decision.
func Decide(db *gorm.DB, orgID string, id uint, accept bool) (*models.Proposal, error) {
	p, err := Get(db, orgID, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.ProposalPendingCustomer {
		return nil, fmt.Errorf("%w: %d is %s", ErrWrongStatus, id, p.Status)
	}

	status := models.ProposalApproved
	title := "ההצעה אושרה על ידי הלקוח"
	if !accept {
		status = models.ProposalRejected
		title = "ההצעה נדחתה על ידי הלקוח"
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"status":     status,
			"decided_at": now,
		}
		if err := tx.Model(&models.Proposal{}).Where("id = ?", p.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("proposal: decide %d: %w", p.ID, err)
		}
		p.Status = status
		p.DecidedAt = &now

		if err := notify.Managers(tx, p.OrgID, models.Notification{
			Type:    models.NotifyProposal,
			Title:   title,
			Message: p.Description,
			TaskID:  p.TaskID,
		}); err != nil {
			return err
		}
		return feed.Emit(tx, p.OrgID, "proposals", models.ActionUpdate, fmt.Sprint(p.ID), p)
	})
	if err != nil {
		return nil, err
	}

	t, err := task.Get(db, p.TaskID)
	if err != nil {
		return nil, err
	}
	if t.Status == models.StatusCustomerApproval {
		if _, err := task.Update(db, t.ID, map[string]interface{}{"status": models.StatusInProgress}); err != nil {
			return nil, err
		}
	}
	return p, nil
}
