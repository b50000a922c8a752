// Package scheduler releases scheduled tasks into the work queue when their
// reminders come due.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/zulandar/pitstop/internal/feed"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/notify"
	"gorm.io/gorm"
)

// Scheduler runs the reminder sweep once a minute.
type Scheduler struct {
	db   *gorm.DB
	log  *logrus.Logger
	cron *cron.Cron
}

// New creates a Scheduler.
func New(db *gorm.DB, log *logrus.Logger) *Scheduler {
	return &Scheduler{db: db, log: log, cron: cron.New()}
}

// Start begins the minutely sweep. It returns after scheduling; sweeps run
// on the cron's own goroutine.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("* * * * *", func() {
		released, err := SweepDueReminders(s.db, time.Now())
		if err != nil {
			s.log.WithError(err).Error("reminder sweep failed")
			return
		}
		if released > 0 {
			s.log.WithField("released", released).Info("reminder sweep released tasks")
		}
	})
	if err != nil {
		return fmt.Errorf("scheduler: add sweep job: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// SweepDueReminders moves SCHEDULED tasks whose reminder is due into
// WAITING, marks the reminder sent, and notifies managers and the customer.
// Returns how many tasks were released.
func SweepDueReminders(db *gorm.DB, now time.Time) (int, error) {
	var due []models.Task
	err := db.Where("status = ? AND reminder_sent = ? AND reminder_at IS NOT NULL AND reminder_at <= ?",
		models.StatusScheduled, false, now).Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("scheduler: find due reminders: %w", err)
	}

	released := 0
	for _, t := range due {
		t := t
		err := db.Transaction(func(tx *gorm.DB) error {
			updates := map[string]interface{}{
				"status":        models.StatusWaiting,
				"reminder_sent": true,
			}
			if err := tx.Model(&models.Task{}).Where("id = ?", t.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("scheduler: release %s: %w", t.ID, err)
			}
			t.Status = models.StatusWaiting
			t.ReminderSent = true

			if err := notify.Managers(tx, t.OrgID, models.Notification{
				Type:    models.NotifyReminder,
				Title:   "טיפול מתוזמן נכנס לתור",
				Message: t.Title,
				TaskID:  t.ID,
			}); err != nil {
				return err
			}
			if t.CustomerID != "" {
				if err := notify.Record(tx, &models.Notification{
					RecipientID: t.CustomerID,
					OrgID:       t.OrgID,
					Type:        models.NotifyReminder,
					Title:       "תזכורת לטיפול",
					Message:     fmt.Sprintf("הטיפול %q נכנס לתור העבודה", t.Title),
					TaskID:      t.ID,
				}); err != nil {
					return err
				}
			}
			return feed.Emit(tx, t.OrgID, "tasks", models.ActionUpdate, t.ID, &t)
		})
		if err != nil {
			return released, err
		}
		released++
	}
	return released, nil
}
