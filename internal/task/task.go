// Package task provides task lifecycle operations.
package task

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/pitstop/internal/feed"
	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/gorm"
)

// PageSize is the fixed page size for task listings.
const PageSize = 20

// Sentinel errors callers branch on.
var (
	ErrNotFound          = errors.New("task: not found")
	ErrInvalidTransition = errors.New("task: invalid status transition")
	ErrNotClaimable      = errors.New("task: not claimable")
	ErrNotAssigned       = errors.New("task: worker not assigned")
)

// CreateOpts holds parameters for creating a new task.
type CreateOpts struct {
	OrgID       string
	Title       string
	Description string
	Priority    string
	CustomerID  string
	CreatedBy   string
	VehicleID   *uint
	Intake      models.Intake
}

// ValidTransitions maps each status to its valid next statuses. The special
// case "any pre-completion state → CANCELLED" is handled in isValidTransition.
var ValidTransitions = map[string][]string{
	models.StatusWaitingApproval:  {models.StatusScheduled, models.StatusWaiting},
	models.StatusScheduled:        {models.StatusWaiting},
	models.StatusWaiting:          {models.StatusApproved, models.StatusInProgress},
	models.StatusApproved:         {models.StatusInProgress},
	models.StatusInProgress:       {models.StatusPaused, models.StatusCustomerApproval, models.StatusCompleted, models.StatusWaiting},
	models.StatusPaused:           {models.StatusInProgress},
	models.StatusCustomerApproval: {models.StatusInProgress},
	models.StatusCompleted:        {},
	models.StatusCancelled:        {},
}

// GenerateID creates a unique task ID in t-xxxxx format (5-char hex).
func GenerateID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("task: generate ID: %w", err)
	}
	return "t-" + hex.EncodeToString(b)[:5], nil
}

// Create creates a new task with an auto-generated ID. Customer-submitted
// intakes start at WAITING_FOR_APPROVAL; staff manual entries go straight to
// the open queue.
func Create(db *gorm.DB, opts CreateOpts) (*models.Task, error) {
	if opts.OrgID == "" {
		return nil, fmt.Errorf("task: org is required")
	}
	if opts.Title == "" {
		return nil, fmt.Errorf("task: title is required")
	}
	if err := opts.Intake.Validate(); err != nil {
		return nil, err
	}
	if opts.Priority == "" {
		opts.Priority = models.PriorityNormal
	}
	switch opts.Priority {
	case models.PriorityNormal, models.PriorityUrgent, models.PriorityCritical:
	default:
		return nil, fmt.Errorf("task: unknown priority %q", opts.Priority)
	}

	id, err := generateUniqueID(db)
	if err != nil {
		return nil, err
	}

	status := models.StatusWaitingApproval
	if opts.Intake.Kind == models.IntakeManual {
		status = models.StatusWaiting
	}

	t := models.Task{
		ID:          id,
		OrgID:       opts.OrgID,
		Title:       opts.Title,
		Description: opts.Description,
		Status:      status,
		Priority:    opts.Priority,
		AssignedTo:  models.StringList{},
		CustomerID:  opts.CustomerID,
		CreatedBy:   opts.CreatedBy,
		VehicleID:   opts.VehicleID,
		Intake:      opts.Intake,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&t).Error; err != nil {
			return fmt.Errorf("task: create: %w", err)
		}
		return feed.Emit(tx, t.OrgID, "tasks", models.ActionInsert, t.ID, &t)
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Get retrieves a task by ID, preloading its vehicle and proposals.
func Get(db *gorm.DB, id string) (*models.Task, error) {
	var t models.Task
	if err := db.Preload("Vehicle").Preload("Proposals").Where("id = ?", id).First(&t).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &t, nil
}

// GetInOrg retrieves a task by ID, enforcing org scope at the query.
func GetInOrg(db *gorm.DB, orgID, id string) (*models.Task, error) {
	var t models.Task
	err := db.Preload("Vehicle").Preload("Proposals").
		Where("id = ? AND org_id = ?", id, orgID).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &t, nil
}

// Update modifies task fields. Status transitions are validated against
// ValidTransitions; claim/complete timestamps are stamped alongside.
func Update(db *gorm.DB, id string, updates map[string]interface{}) (*models.Task, error) {
	var out models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		var t models.Task
		if err := tx.Where("id = ?", id).First(&t).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return fmt.Errorf("task: get %s for update: %w", id, err)
		}

		if newStatus, ok := updates["status"].(string); ok {
			if !isValidTransition(t.Status, newStatus) {
				return fmt.Errorf("%w: %q to %q", ErrInvalidTransition, t.Status, newStatus)
			}
			now := time.Now()
			if newStatus == models.StatusInProgress && t.StartedAt == nil {
				updates["started_at"] = now
			}
			if newStatus == models.StatusCompleted {
				updates["completed_at"] = now
			}
		}

		if err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fmt.Errorf("task: update %s: %w", id, err)
		}
		if err := tx.Where("id = ?", id).First(&out).Error; err != nil {
			return fmt.Errorf("task: reload %s: %w", id, err)
		}
		return feed.Emit(tx, out.OrgID, "tasks", models.ActionUpdate, out.ID, &out)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// isValidTransition checks whether a status transition is allowed. Any state
// short of COMPLETED or CANCELLED may be cancelled.
func isValidTransition(from, to string) bool {
	if to == models.StatusCancelled {
		return from != models.StatusCompleted && from != models.StatusCancelled
	}
	valid, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, v := range valid {
		if v == to {
			return true
		}
	}
	return false
}

// generateUniqueID generates an ID and retries once on collision.
func generateUniqueID(db *gorm.DB) (string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		id, err := GenerateID()
		if err != nil {
			return "", err
		}
		var count int64
		if err := db.Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return "", fmt.Errorf("task: check ID uniqueness: %w", err)
		}
		if count == 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("task: failed to generate unique ID after retries")
}
