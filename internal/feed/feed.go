// Package feed provides the append-only change-event stream that backs the
// realtime channel. Mutations write events in their own transaction; clients
// tail them over SSE scoped to their organization.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/gorm"
)

// Emit appends a change event. Call it inside the transaction that performs
// the mutation so the event and the row change commit together.
func Emit(tx *gorm.DB, orgID, table, action, rowID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("feed: marshal payload for %s/%s: %w", table, rowID, err)
	}
	ev := models.ChangeEvent{
		OrgID:   orgID,
		Table:   table,
		Action:  action,
		RowID:   rowID,
		Payload: string(data),
	}
	if err := tx.Create(&ev).Error; err != nil {
		return fmt.Errorf("feed: emit %s %s/%s: %w", action, table, rowID, err)
	}
	return nil
}

// Since returns events for an org with id greater than lastSeen, oldest first.
func Since(db *gorm.DB, orgID string, lastSeen uint, limit int) ([]models.ChangeEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var events []models.ChangeEvent
	err := db.Where("org_id = ? AND id > ?", orgID, lastSeen).
		Order("id ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("feed: events since %d for org %s: %w", lastSeen, orgID, err)
	}
	return events, nil
}

// LastID returns the current max event id for an org, or 0 when there are no
// events yet. New SSE subscribers start from here so they only see changes
// that happen after they connect.
func LastID(db *gorm.DB, orgID string) (uint, error) {
	var ev models.ChangeEvent
	err := db.Where("org_id = ?", orgID).Order("id DESC").Limit(1).First(&ev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("feed: last event id for org %s: %w", orgID, err)
	}
	return ev.ID, nil
}
