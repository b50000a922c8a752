package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Alert is a manager-facing chat message mirroring an in-app notification.
type Alert struct {
	Title    string
	Body     string
	TaskID   string
	Severity string // "info", "warning", "success"
}

// Adapter is the interface platform-specific couriers must satisfy. Each
// adapter delivers alerts to a single chat platform channel.
type Adapter interface {
	// Send delivers an alert to the platform.
	Send(ctx context.Context, alert Alert) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// Fanout delivers an alert to every configured adapter. Best-effort: errors
// are logged, not returned, so a dead chat integration never fails a task
// mutation.
type Fanout struct {
	adapters []Adapter
	log      *logrus.Logger
}

// NewFanout creates a Fanout over the given adapters.
func NewFanout(log *logrus.Logger, adapters ...Adapter) *Fanout {
	return &Fanout{adapters: adapters, log: log}
}

// Send pushes the alert to all adapters.
func (f *Fanout) Send(ctx context.Context, alert Alert) {
	for _, a := range f.adapters {
		if err := a.Send(ctx, alert); err != nil {
			f.log.WithError(err).WithField("title", alert.Title).Warn("courier send failed")
		}
	}
}

// Close shuts down all adapters.
func (f *Fanout) Close() {
	for _, a := range f.adapters {
		if err := a.Close(); err != nil {
			f.log.WithError(err).Warn("courier close failed")
		}
	}
}
