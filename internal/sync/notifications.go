package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/zulandar/pitstop/internal/models"
)

// notificationWindow caps how many notifications the client keeps locally.
const notificationWindow = 50

// NotificationStore holds the client's view of its notification list. Same
// shape as the task store but simpler: mark-read patches local state without
// a refetch because read flags are idempotent and commutative, and the
// unread count is derived from the list on every read so it cannot drift.
type NotificationStore struct {
	mu     sync.Mutex
	remote Remote
	selfID string // recipient whose notifications this store holds
	items  []models.Notification
}

// NewNotificationStore creates a notification store for the given profile.
func NewNotificationStore(remote Remote, selfID string) *NotificationStore {
	return &NotificationStore{remote: remote, selfID: selfID}
}

// Notifications returns a snapshot copy of the current list.
func (s *NotificationStore) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, len(s.items))
	copy(out, s.items)
	return out
}

// Unread derives the unread count by scanning the list.
func (s *NotificationStore) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// Refresh replaces local state with the server's view.
func (s *NotificationStore) Refresh(ctx context.Context) error {
	items, err := s.remote.FetchNotifications(ctx)
	if err != nil {
		return err
	}
	if len(items) > notificationWindow {
		items = items[:notificationWindow]
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	return nil
}

// MarkRead marks one notification read remotely, then patches local state.
func (s *NotificationStore) MarkRead(ctx context.Context, id uint) error {
	if err := s.remote.MarkNotificationRead(ctx, id); err != nil {
		return err
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Read = true
			s.items[i].ReadAt = &now
			break
		}
	}
	return nil
}

// MarkAllRead marks everything read remotely, then patches local state.
func (s *NotificationStore) MarkAllRead(ctx context.Context) error {
	if err := s.remote.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if !s.items[i].Read {
			s.items[i].Read = true
			s.items[i].ReadAt = &now
		}
	}
	return nil
}

// ApplyEvent prepends realtime notification inserts, trimming to the window.
// The change feed is org-wide, so inserts addressed to other members are
// dropped here.
func (s *NotificationStore) ApplyEvent(ev Event) error {
	if ev.Table != "notifications" || ev.Action != models.ActionInsert {
		return nil
	}
	var n models.Notification
	if err := json.Unmarshal(ev.Payload, &n); err != nil {
		return fmt.Errorf("sync: decode notification event %d: %w", ev.ID, err)
	}
	if n.RecipientID != s.selfID {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append([]models.Notification{n}, s.items...)
	if len(s.items) > notificationWindow {
		s.items = s.items[:notificationWindow]
	}
	return nil
}
