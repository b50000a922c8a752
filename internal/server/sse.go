package server

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/pitstop/internal/feed"
	"github.com/zulandar/pitstop/internal/models"
	"github.com/zulandar/pitstop/internal/task"
	"github.com/zulandar/pitstop/internal/vehicle"
)

// changeEvent is the wire shape of one change-feed entry. The payload is the
// JSON captured when the mutation committed, narrowed to what the caller is
// allowed to see.
type changeEvent struct {
	ID      uint            `json:"id"`
	Table   string          `json:"table"`
	Action  string          `json:"action"`
	RowID   string          `json:"row_id"`
	Payload json.RawMessage `json:"payload"`
}

// handleEvents streams the org's change feed over SSE. Subscribers start at
// the current feed head so they only see changes made after they connect;
// initial state comes from the regular list endpoints.
func (s *api) handleEvents(c *gin.Context) {
	p := currentProfile(c)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	lastSeen, err := feed.LastID(s.db, p.OrgID)
	if err != nil {
		s.log.WithError(err).Error("sse: feed head lookup failed")
		return
	}

	ctx := c.Request.Context()
	ticker := time.NewTicker(3 * time.Second)
	heartbeat := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			events, err := feed.Since(s.db, p.OrgID, lastSeen, 100)
			if err != nil {
				s.log.WithError(err).Error("sse: feed poll failed")
				continue
			}
			if len(events) == 0 {
				continue
			}
			lastSeen = events[len(events)-1].ID

			for i := range events {
				wire, ok := s.filterEvent(p, &events[i])
				if !ok {
					continue
				}
				writeSSE(c.Writer, "change", wire)
			}
			c.Writer.Flush()
		}
	}
}

// filterEvent applies the caller's read authorization to one feed entry.
// The feed rows are org-scoped already; this narrows them to role scope the
// same way the list endpoints do: rows the caller could not have listed are
// dropped, notifications go only to their recipient, and vehicle payloads
// are re-serialized with the immobilizer code blanked when the visibility
// predicate says no.
func (s *api) filterEvent(p *models.Profile, ev *models.ChangeEvent) (changeEvent, bool) {
	wire := changeEvent{
		ID:      ev.ID,
		Table:   ev.Table,
		Action:  ev.Action,
		RowID:   ev.RowID,
		Payload: json.RawMessage(ev.Payload),
	}

	switch ev.Table {
	case "notifications":
		var n models.Notification
		if err := json.Unmarshal([]byte(ev.Payload), &n); err != nil {
			return changeEvent{}, false
		}
		if n.RecipientID != p.ID {
			return changeEvent{}, false
		}
	case "tasks":
		var t models.Task
		if err := json.Unmarshal([]byte(ev.Payload), &t); err != nil {
			return changeEvent{}, false
		}
		if p.Role == models.RoleCustomer && !s.customerSeesTask(p, &t) {
			return changeEvent{}, false
		}
		if t.Vehicle != nil && !vehicle.CanSeeImmobilizer(p, t.Vehicle, &t) {
			t.Vehicle.ImmobilizerCode = ""
			data, err := json.Marshal(&t)
			if err != nil {
				return changeEvent{}, false
			}
			wire.Payload = data
		}
	case "vehicles":
		var v models.Vehicle
		if err := json.Unmarshal([]byte(ev.Payload), &v); err != nil {
			return changeEvent{}, false
		}
		if p.Role == models.RoleCustomer && (v.OwnerID == nil || *v.OwnerID != p.ID) {
			return changeEvent{}, false
		}
		if !vehicle.CanSeeImmobilizer(p, &v, nil) {
			v.ImmobilizerCode = ""
			data, err := json.Marshal(&v)
			if err != nil {
				return changeEvent{}, false
			}
			wire.Payload = data
		}
	case "appointments":
		if p.Role != models.RoleCustomer {
			break
		}
		var a models.Appointment
		if err := json.Unmarshal([]byte(ev.Payload), &a); err != nil {
			return changeEvent{}, false
		}
		if a.CustomerID != p.ID {
			return changeEvent{}, false
		}
	case "proposals":
		if p.Role != models.RoleCustomer {
			break
		}
		var pr models.Proposal
		if err := json.Unmarshal([]byte(ev.Payload), &pr); err != nil {
			return changeEvent{}, false
		}
		t, err := task.Get(s.db, pr.TaskID)
		if err != nil || t.CustomerID != p.ID {
			return changeEvent{}, false
		}
	}
	return wire, true
}

// customerSeesTask mirrors the customer list scope: their task, filed by
// them, or on a vehicle they own. Event payloads carry no preloads, so the
// vehicle owner is looked up.
func (s *api) customerSeesTask(p *models.Profile, t *models.Task) bool {
	if t.CustomerID == p.ID || t.CreatedBy == p.ID {
		return true
	}
	if t.VehicleID == nil {
		return false
	}
	var v models.Vehicle
	if err := s.db.Where("id = ? AND org_id = ?", *t.VehicleID, p.OrgID).First(&v).Error; err != nil {
		return false
	}
	return v.OwnerID != nil && *v.OwnerID == p.ID
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
