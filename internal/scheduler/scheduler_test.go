package scheduler

import (
	"testing"
	"time"

	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Task{},
		&models.Notification{},
		&models.ChangeEvent{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedScheduled(t *testing.T, db *gorm.DB, id string, reminderAt *time.Time, sent bool) {
	t.Helper()
	tk := models.Task{
		ID:           id,
		OrgID:        "g-test1",
		Title:        "טיפול 10000",
		Status:       models.StatusScheduled,
		CustomerID:   "u-cust1",
		AssignedTo:   models.StringList{},
		ReminderAt:   reminderAt,
		ReminderSent: sent,
	}
	if err := db.Create(&tk).Error; err != nil {
		t.Fatalf("seed task %s: %v", id, err)
	}
}

func TestSweepDueReminders_ReleasesDue(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	seedScheduled(t, db, "t-due01", &past, false)
	seedScheduled(t, db, "t-fut01", &future, false)
	seedScheduled(t, db, "t-sent1", &past, true)
	seedScheduled(t, db, "t-none1", nil, false)

	released, err := SweepDueReminders(db, now)
	if err != nil {
		t.Fatalf("SweepDueReminders: %v", err)
	}
	if released != 1 {
		t.Fatalf("released = %d, want 1", released)
	}

	var due models.Task
	db.First(&due, "id = ?", "t-due01")
	if due.Status != models.StatusWaiting {
		t.Errorf("due task status = %q, want WAITING", due.Status)
	}
	if !due.ReminderSent {
		t.Error("due task reminder_sent not set")
	}

	var future1 models.Task
	db.First(&future1, "id = ?", "t-fut01")
	if future1.Status != models.StatusScheduled {
		t.Errorf("future task status = %q, want SCHEDULED", future1.Status)
	}

	// Customer got a reminder for the released task only.
	var count int64
	db.Model(&models.Notification{}).Where("recipient_id = ?", "u-cust1").Count(&count)
	if count != 1 {
		t.Errorf("customer notifications = %d, want 1", count)
	}
}

func TestSweepDueReminders_SecondSweepIsNoop(t *testing.T) {
	db := testDB(t)
	past := time.Now().Add(-time.Hour)
	seedScheduled(t, db, "t-due01", &past, false)

	if _, err := SweepDueReminders(db, time.Now()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	released, err := SweepDueReminders(db, time.Now())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if released != 0 {
		t.Errorf("second sweep released = %d, want 0", released)
	}
}

func TestSweepDueReminders_EmitsChangeEvent(t *testing.T) {
	db := testDB(t)
	past := time.Now().Add(-time.Minute)
	seedScheduled(t, db, "t-due01", &past, false)

	if _, err := SweepDueReminders(db, time.Now()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	var ev models.ChangeEvent
	if err := db.Where("table_name = ? AND row_id = ?", "tasks", "t-due01").First(&ev).Error; err != nil {
		t.Fatalf("expected change event: %v", err)
	}
	if ev.Action != models.ActionUpdate {
		t.Errorf("event action = %q, want UPDATE", ev.Action)
	}
}
