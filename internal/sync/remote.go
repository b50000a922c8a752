// Package sync provides the client-side task and notification stores: paged
// in-memory state, optimistic mutations reconciled by refetch, and realtime
// change-feed merging.
package sync

import (
	"context"
	"time"

	"github.com/zulandar/pitstop/internal/models"
)

// Remote abstracts the server API the stores talk to. The production
// implementation is Client (HTTP); tests drive the stores with a fake.
type Remote interface {
	// FetchTasks returns one page of tasks. cursor, when non-nil, is the
	// creation timestamp of the last task already loaded.
	FetchTasks(ctx context.Context, cursor *time.Time) (items []models.Task, hasMore bool, err error)

	// UpdateTask applies a field patch to a task.
	UpdateTask(ctx context.Context, id string, patch map[string]interface{}) error

	// ClaimTask assigns the caller to the task.
	ClaimTask(ctx context.Context, id string) error

	// ReleaseTask removes the caller from the task.
	ReleaseTask(ctx context.Context, id string) error

	// ApproveTask approves a pending task, sending it to the queue now or
	// scheduling it with an optional reminder.
	ApproveTask(ctx context.Context, id string, sendNow bool, reminderAt *time.Time) error

	// CompleteTask marks the task completed.
	CompleteTask(ctx context.Context, id string) error

	// CancelTask cancels the task.
	CancelTask(ctx context.Context, id string) error

	// FetchNotifications returns the caller's recent notifications.
	FetchNotifications(ctx context.Context) ([]models.Notification, error)

	// MarkNotificationRead marks one notification read.
	MarkNotificationRead(ctx context.Context, id uint) error

	// MarkAllNotificationsRead marks all the caller's notifications read.
	MarkAllNotificationsRead(ctx context.Context) error
}
