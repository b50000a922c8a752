package sync

import (
	"context"
	"sync"
	"time"

	"github.com/zulandar/pitstop/internal/models"
)

// Store holds the client's view of the task list. All mutations go through
// it: user actions apply optimistically and reconcile with the server by
// refetching on failure; realtime events merge in place. The zero ordering
// guarantee of the source system is kept deliberately — last write wins, and
// a failed write is rolled back by replacing local state with the server's.
type Store struct {
	mu      sync.Mutex
	remote  Remote
	selfID  string // profile id used for optimistic claim/release
	tasks   []models.Task
	index   map[string]int // task id → position in tasks
	hasMore bool
	loading bool
}

// NewStore creates a task store for the given profile.
func NewStore(remote Remote, selfID string) *Store {
	return &Store{
		remote: remote,
		selfID: selfID,
		index:  map[string]int{},
	}
}

// Tasks returns a snapshot copy of the current task list.
func (s *Store) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// HasMore reports whether a further page may exist.
func (s *Store) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

// Get returns the local copy of a task, if loaded.
func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return models.Task{}, false
	}
	return s.tasks[i], true
}

// Refresh reloads page one, replacing local state wholesale with the
// server's view. This is also the rollback mechanism after a failed
// optimistic mutation.
func (s *Store) Refresh(ctx context.Context) error {
	items, hasMore, err := s.remote.FetchTasks(ctx, nil)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = items
	s.hasMore = hasMore
	s.reindex()
	return nil
}

// LoadMore appends the next page using the last loaded task's creation time
// as cursor. It is a no-op while a load is in flight or when no further page
// is believed to exist.
func (s *Store) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || !s.hasMore || len(s.tasks) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	cursor := s.tasks[len(s.tasks)-1].CreatedAt
	s.mu.Unlock()

	items, hasMore, err := s.remote.FetchTasks(ctx, &cursor)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		// Same failure handling as mutations: fall back to page one so local
		// state matches a server view instead of a stale cursor position.
		return s.reconcile(ctx, err)
	}
	defer s.mu.Unlock()
	for _, t := range items {
		if _, dup := s.index[t.ID]; dup {
			continue
		}
		s.tasks = append(s.tasks, t)
	}
	s.hasMore = hasMore
	s.reindex()
	return nil
}

// Mutate applies the patch to the local copy immediately, then issues the
// remote update. On failure the speculative change is discarded by
// refreshing from the server; the original error is returned either way.
func (s *Store) Mutate(ctx context.Context, id string, patch map[string]interface{}) error {
	s.applyPatch(id, patch)
	return s.reconcile(ctx, s.remote.UpdateTask(ctx, id, patch))
}

// Claim optimistically assigns self to the task and moves it IN_PROGRESS,
// then confirms with the server.
func (s *Store) Claim(ctx context.Context, id string) error {
	s.mu.Lock()
	if i, ok := s.index[id]; ok {
		t := &s.tasks[i]
		if !t.AssignedTo.Contains(s.selfID) {
			t.AssignedTo = append(append(models.StringList{}, t.AssignedTo...), s.selfID)
		}
		t.Status = models.StatusInProgress
	}
	s.mu.Unlock()
	return s.reconcile(ctx, s.remote.ClaimTask(ctx, id))
}

// Release optimistically removes self from the task, reverting it to
// WAITING when the assignment list empties, then confirms with the server.
func (s *Store) Release(ctx context.Context, id string) error {
	s.mu.Lock()
	if i, ok := s.index[id]; ok {
		t := &s.tasks[i]
		t.AssignedTo = t.AssignedTo.Without(s.selfID)
		if len(t.AssignedTo) == 0 {
			t.Status = models.StatusWaiting
		}
	}
	s.mu.Unlock()
	return s.reconcile(ctx, s.remote.ReleaseTask(ctx, id))
}

// Approve optimistically moves the task to WAITING or SCHEDULED, then
// confirms with the server.
func (s *Store) Approve(ctx context.Context, id string, sendNow bool, reminderAt *time.Time) error {
	patch := map[string]interface{}{"status": models.StatusScheduled}
	if sendNow {
		patch["status"] = models.StatusWaiting
	}
	s.applyPatch(id, patch)
	return s.reconcile(ctx, s.remote.ApproveTask(ctx, id, sendNow, reminderAt))
}

// Complete optimistically marks the task COMPLETED, then confirms with the
// server.
func (s *Store) Complete(ctx context.Context, id string) error {
	s.applyPatch(id, map[string]interface{}{"status": models.StatusCompleted})
	return s.reconcile(ctx, s.remote.CompleteTask(ctx, id))
}

// Cancel optimistically drops the task from the local list (cancelled rows
// are never listed), then confirms with the server.
func (s *Store) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	s.remove(id)
	s.mu.Unlock()
	return s.reconcile(ctx, s.remote.CancelTask(ctx, id))
}

// reconcile resolves an optimistic mutation: on success local state stands,
// on failure it is replaced by a fresh fetch. No retries, no backoff.
func (s *Store) reconcile(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	// Best effort: if the refresh fails too, the caller already has the
	// mutation error to surface, and the next refresh resynchronizes.
	_ = s.Refresh(ctx)
	return err
}

// applyPatch patches the local copy of a task under the lock. Unknown keys
// are ignored; the server is authoritative for anything not listed here.
func (s *Store) applyPatch(id string, patch map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return
	}
	t := &s.tasks[i]
	if v, ok := patch["status"].(string); ok {
		t.Status = v
	}
	if v, ok := patch["title"].(string); ok {
		t.Title = v
	}
	if v, ok := patch["description"].(string); ok {
		t.Description = v
	}
	if v, ok := patch["priority"].(string); ok {
		t.Priority = v
	}
	if v, ok := patch["assigned_to"].(models.StringList); ok {
		t.AssignedTo = v
	}
}

// remove drops a task from the list. Caller holds the lock.
func (s *Store) remove(id string) {
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.reindex()
}

// reindex rebuilds the id → position map. Caller holds the lock.
func (s *Store) reindex() {
	s.index = make(map[string]int, len(s.tasks))
	for i, t := range s.tasks {
		s.index[t.ID] = i
	}
}
