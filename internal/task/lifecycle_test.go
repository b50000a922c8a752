package task

import (
	"strings"
	"testing"
	"time"

	"github.com/zulandar/pitstop/internal/models"
)

func TestApprove_SendNow(t *testing.T) {
	db := testDB(t)
	tk := seedTask(t, db, models.StatusWaitingApproval)

	got, err := Approve(db, tk.ID, true, nil)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != models.StatusWaiting {
		t.Errorf("status = %q, want %q", got.Status, models.StatusWaiting)
	}

	var n models.Notification
	if err := db.Where("recipient_id = ? AND task_id = ?", "u-cust1", tk.ID).First(&n).Error; err != nil {
		t.Fatalf("expected customer notification: %v", err)
	}
	if !strings.Contains(n.Title, "אושר") {
		t.Errorf("notification title = %q, want approval wording", n.Title)
	}
}

func TestApprove_Scheduled(t *testing.T) {
	db := testDB(t)
	tk := seedTask(t, db, models.StatusWaitingApproval)

	reminder := time.Now().Add(24 * time.Hour)
	got, err := Approve(db, tk.ID, false, &reminder)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != models.StatusScheduled {
		t.Errorf("status = %q, want %q", got.Status, models.StatusScheduled)
	}
	if got.ReminderAt == nil {
		t.Fatal("ReminderAt not set")
	}
}

func TestApprove_AlreadyApprovedRejected(t *testing.T) {
	db := testDB(t)
	tk := seedTask(t, db, models.StatusInProgress)

	// IN_PROGRESS → WAITING exists for the release path; approval must not
	// ride it and knock a claimed task back into the queue.
	_, err := Approve(db, tk.ID, true, nil)
	if err == nil {
		t.Fatal("expected error approving IN_PROGRESS task")
	}
	got, err := Get(db, tk.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != models.StatusInProgress {
		t.Errorf("status = %q, want IN_PROGRESS untouched", got.Status)
	}
}

func TestApprove_ScheduledSendNowReleases(t *testing.T) {
	db := testDB(t)
	tk := seedTask(t, db, models.StatusScheduled)

	got, err := Approve(db, tk.ID, true, nil)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if got.Status != models.StatusWaiting {
		t.Errorf("status = %q, want %q", got.Status, models.StatusWaiting)
	}
}

func TestApprove_RescheduleScheduledRejected(t *testing.T) {
	db := testDB(t)
	tk := seedTask(t, db, models.StatusScheduled)

	if _, err := Approve(db, tk.ID, false, nil); err == nil {
		t.Fatal("expected error re-scheduling a SCHEDULED task via approve")
	}
}

func TestComplete_StampsAndNotifies(t *testing.T) {
	db := testDB(t)
	tk := seedTask(t, db, models.StatusInProgress)

	got, err := Complete(db, tk.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Errorf("status = %q, want %q", got.Status, models.StatusCompleted)
	}
	if got.CompletedAt == nil {
		t.Error("CompletedAt not stamped")
	}

	var count int64
	db.Model(&models.Notification{}).
		Where("recipient_id = ? AND task_id = ?", "u-cust1", tk.ID).Count(&count)
	if count != 1 {
		t.Errorf("customer notifications = %d, want 1", count)
	}
}

func TestComplete_FromWaitingRejected(t *testing.T) {
	db := testDB(t)
	tk := seedTask(t, db, models.StatusWaiting)

	if _, err := Complete(db, tk.ID); err == nil {
		t.Fatal("expected error completing WAITING task")
	}
}

func TestCancel_Idempotent(t *testing.T) {
	db := testDB(t)
	tk := seedTask(t, db, models.StatusWaiting)

	if _, err := Cancel(db, tk.ID); err != nil {
		t.Fatalf("first cancel: %v", err)
	}
	got, err := Cancel(db, tk.ID)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Errorf("status = %q, want %q", got.Status, models.StatusCancelled)
	}

	// The second cancel must not duplicate the customer notification.
	var count int64
	db.Model(&models.Notification{}).
		Where("recipient_id = ? AND task_id = ? AND type = ?", "u-cust1", tk.ID, models.NotifyCancelled).
		Count(&count)
	if count != 1 {
		t.Errorf("cancellation notifications = %d, want 1", count)
	}
}

func TestCancel_CompletedRejected(t *testing.T) {
	db := testDB(t)
	tk := seedTask(t, db, models.StatusCompleted)

	if _, err := Cancel(db, tk.ID); err == nil {
		t.Fatal("expected error cancelling COMPLETED task")
	}
}

func TestCancel_NotFound(t *testing.T) {
	db := testDB(t)
	if _, err := Cancel(db, "t-nope1"); err == nil {
		t.Fatal("expected not found error")
	}
}
