// Package notify manages in-app notifications and chat courier fan-out.
package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/pitstop/internal/feed"
	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/gorm"
)

// Record creates a notification row and emits a matching change event. Call
// inside the transaction that performs the triggering mutation.
func Record(tx *gorm.DB, n *models.Notification) error {
	if n.RecipientID == "" {
		return fmt.Errorf("notify: recipient is required")
	}
	if err := tx.Create(n).Error; err != nil {
		return fmt.Errorf("notify: create notification: %w", err)
	}
	if err := feed.Emit(tx, n.OrgID, "notifications", models.ActionInsert, fmt.Sprint(n.ID), n); err != nil {
		return err
	}
	return nil
}

// Managers records one notification per approved manager in the org.
func Managers(tx *gorm.DB, orgID string, template models.Notification) error {
	var managers []models.Profile
	err := tx.Where("org_id = ? AND role IN ? AND membership_status = ?",
		orgID,
		[]string{models.RoleSuperManager, models.RoleDeputyManager},
		models.MembershipApproved,
	).Find(&managers).Error
	if err != nil {
		return fmt.Errorf("notify: list managers for org %s: %w", orgID, err)
	}
	for _, m := range managers {
		n := template
		n.OrgID = orgID
		n.RecipientID = m.ID
		if err := Record(tx, &n); err != nil {
			return err
		}
	}
	return nil
}

// ListRecent returns the newest notifications for a recipient, newest first.
func ListRecent(db *gorm.DB, recipientID string, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	var items []models.Notification
	err := db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("notify: list for %s: %w", recipientID, err)
	}
	return items, nil
}

// UnreadCount derives the unread total with a count query. It is never
// stored, so it cannot drift.
func UnreadCount(db *gorm.DB, recipientID string) (int64, error) {
	var count int64
	err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("notify: unread count for %s: %w", recipientID, err)
	}
	return count, nil
}

// MarkRead marks one notification read. Idempotent; only the recipient's own
// rows are reachable.
func MarkRead(db *gorm.DB, recipientID string, id uint) error {
	var n models.Notification
	if err := db.Where("id = ? AND recipient_id = ?", id, recipientID).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("notify: not found: %d", id)
		}
		return fmt.Errorf("notify: get %d: %w", id, err)
	}
	if n.Read {
		return nil
	}
	now := time.Now()
	err := db.Model(&models.Notification{}).Where("id = ?", id).Updates(map[string]interface{}{
		"read":    true,
		"read_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("notify: mark read %d: %w", id, err)
	}
	return nil
}

// MarkAllRead marks every unread notification for a recipient read.
func MarkAllRead(db *gorm.DB, recipientID string) error {
	now := time.Now()
	err := db.Model(&models.Notification{}).
		Where("recipient_id = ? AND read = ?", recipientID, false).
		Updates(map[string]interface{}{"read": true, "read_at": now}).Error
	if err != nil {
		return fmt.Errorf("notify: mark all read for %s: %w", recipientID, err)
	}
	return nil
}
