package notify

import (
	"testing"

	"github.com/zulandar/pitstop/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB creates an in-memory SQLite database with all required tables.
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
		&models.Notification{},
		&models.ChangeEvent{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, id, role, membership string) {
	t.Helper()
	p := models.Profile{
		ID:               id,
		OrgID:            "g-test1",
		Role:             role,
		MembershipStatus: membership,
		Name:             id,
		Phone:            "0521234567",
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed profile %s: %v", id, err)
	}
}

func TestRecord_CreatesRowAndEvent(t *testing.T) {
	db := testDB(t)

	err := Record(db, &models.Notification{
		RecipientID: "u-cust1",
		OrgID:       "g-test1",
		Type:        models.NotifyApproval,
		Title:       "הטיפול אושר",
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	var n models.Notification
	if err := db.Where("recipient_id = ?", "u-cust1").First(&n).Error; err != nil {
		t.Fatalf("notification row missing: %v", err)
	}
	var ev models.ChangeEvent
	if err := db.Where("table_name = ?", "notifications").First(&ev).Error; err != nil {
		t.Fatalf("change event missing: %v", err)
	}
	if ev.Action != models.ActionInsert {
		t.Errorf("event action = %q, want INSERT", ev.Action)
	}
}

func TestRecord_RequiresRecipient(t *testing.T) {
	db := testDB(t)
	if err := Record(db, &models.Notification{Title: "x"}); err == nil {
		t.Fatal("expected error without recipient")
	}
}

func TestManagers_FansOutToApprovedManagersOnly(t *testing.T) {
	db := testDB(t)
	seedProfile(t, db, "u-sm", models.RoleSuperManager, models.MembershipApproved)
	seedProfile(t, db, "u-dm", models.RoleDeputyManager, models.MembershipApproved)
	seedProfile(t, db, "u-pending", models.RoleDeputyManager, models.MembershipPending)
	seedProfile(t, db, "u-staff", models.RoleStaff, models.MembershipApproved)
	seedProfile(t, db, "u-cust", models.RoleCustomer, models.MembershipApproved)

	err := Managers(db, "g-test1", models.Notification{
		Type:  models.NotifyStarted,
		Title: "העבודה התחילה",
	})
	if err != nil {
		t.Fatalf("Managers: %v", err)
	}

	var recipients []string
	db.Model(&models.Notification{}).Order("recipient_id").Pluck("recipient_id", &recipients)
	want := []string{"u-dm", "u-sm"}
	if len(recipients) != len(want) {
		t.Fatalf("recipients = %v, want %v", recipients, want)
	}
	for i := range want {
		if recipients[i] != want[i] {
			t.Errorf("recipients = %v, want %v", recipients, want)
			break
		}
	}
}

func TestUnreadCount_Derived(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 3; i++ {
		if err := Record(db, &models.Notification{
			RecipientID: "u-cust1", OrgID: "g-test1", Type: models.NotifyReminder, Title: "תזכורת",
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	count, err := UnreadCount(db, "u-cust1")
	if err != nil {
		t.Fatalf("UnreadCount: %v", err)
	}
	if count != 3 {
		t.Errorf("unread = %d, want 3", count)
	}

	var first models.Notification
	db.Where("recipient_id = ?", "u-cust1").First(&first)
	if err := MarkRead(db, "u-cust1", first.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}

	count, _ = UnreadCount(db, "u-cust1")
	if count != 2 {
		t.Errorf("unread after MarkRead = %d, want 2", count)
	}
}

func TestMarkRead_Idempotent(t *testing.T) {
	db := testDB(t)
	if err := Record(db, &models.Notification{
		RecipientID: "u-cust1", OrgID: "g-test1", Type: models.NotifyReminder, Title: "תזכורת",
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	var n models.Notification
	db.Where("recipient_id = ?", "u-cust1").First(&n)

	if err := MarkRead(db, "u-cust1", n.ID); err != nil {
		t.Fatalf("first MarkRead: %v", err)
	}
	var after models.Notification
	db.First(&after, n.ID)
	firstReadAt := after.ReadAt

	if err := MarkRead(db, "u-cust1", n.ID); err != nil {
		t.Fatalf("second MarkRead: %v", err)
	}
	db.First(&after, n.ID)
	if firstReadAt == nil || after.ReadAt == nil || !after.ReadAt.Equal(*firstReadAt) {
		t.Error("second MarkRead moved read_at")
	}
}

func TestMarkRead_OtherRecipientBlocked(t *testing.T) {
	db := testDB(t)
	if err := Record(db, &models.Notification{
		RecipientID: "u-cust1", OrgID: "g-test1", Type: models.NotifyReminder, Title: "תזכורת",
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	var n models.Notification
	db.Where("recipient_id = ?", "u-cust1").First(&n)

	if err := MarkRead(db, "u-other", n.ID); err == nil {
		t.Fatal("expected error marking another recipient's notification")
	}
}

func TestMarkAllRead(t *testing.T) {
	db := testDB(t)
	for i := 0; i < 4; i++ {
		if err := Record(db, &models.Notification{
			RecipientID: "u-cust1", OrgID: "g-test1", Type: models.NotifyReminder, Title: "תזכורת",
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	if err := MarkAllRead(db, "u-cust1"); err != nil {
		t.Fatalf("MarkAllRead: %v", err)
	}
	count, _ := UnreadCount(db, "u-cust1")
	if count != 0 {
		t.Errorf("unread = %d, want 0", count)
	}
}

func TestListRecent_NewestFirst(t *testing.T) {
	db := testDB(t)
	titles := []string{"ראשון", "שני", "שלישי"}
	for _, title := range titles {
		if err := Record(db, &models.Notification{
			RecipientID: "u-cust1", OrgID: "g-test1", Type: models.NotifyReminder, Title: title,
		}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	items, err := ListRecent(db, "u-cust1", 2)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if items[0].Title != "שלישי" {
		t.Errorf("newest first = %q, want שלישי", items[0].Title)
	}
}
