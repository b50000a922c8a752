package sync

import (
	"encoding/json"
	"fmt"

	"github.com/zulandar/pitstop/internal/models"
)

// Event is one realtime change-feed entry as delivered over SSE.
type Event struct {
	ID      uint            `json:"id"`
	Table   string          `json:"table"`
	Action  string          `json:"action"`
	RowID   string          `json:"row_id"`
	Payload json.RawMessage `json:"payload"`
}

// ApplyEvent merges an externally-pushed task row event into local state by
// id, without a fetch round-trip. Events for other tables are ignored here.
// Tasks outside the loaded window are only inserted for INSERT events;
// updates to unloaded tasks are dropped, matching the page-window model.
func (s *Store) ApplyEvent(ev Event) error {
	if ev.Table != "tasks" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Action {
	case models.ActionInsert:
		var t models.Task
		if err := json.Unmarshal(ev.Payload, &t); err != nil {
			return fmt.Errorf("sync: decode task event %d: %w", ev.ID, err)
		}
		if _, ok := s.index[t.ID]; ok {
			s.tasks[s.index[t.ID]] = t
			return nil
		}
		s.tasks = append([]models.Task{t}, s.tasks...)
		s.reindex()
	case models.ActionUpdate:
		i, ok := s.index[ev.RowID]
		if !ok {
			return nil
		}
		var t models.Task
		if err := json.Unmarshal(ev.Payload, &t); err != nil {
			return fmt.Errorf("sync: decode task event %d: %w", ev.ID, err)
		}
		s.tasks[i] = t
	case models.ActionDelete:
		s.remove(ev.RowID)
	default:
		return fmt.Errorf("sync: unknown event action %q", ev.Action)
	}
	return nil
}
