package activity

import (
	"context"
	"sort"
	"sync"
	"time"

	"plp_smartgrade/backend/internal/shared"
)

// MemoryRecorder keeps activity in memory. The CLI uses it for dry runs and
// tests use it to assert on recorded actions.
type MemoryRecorder struct {
	mu      sync.Mutex
	entries []shared.ActivityLog
}

// Record appends an entry.
func (m *MemoryRecorder) Record(_ context.Context, entry shared.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry.ID == "" {
		entry.ID = shared.GenerateID("act")
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	m.entries = append(m.entries, entry)
	return nil
}

// List returns matching entries, newest first.
func (m *MemoryRecorder) List(_ context.Context, filter Filter) ([]shared.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []shared.ActivityLog
	for _, e := range m.entries {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Actions returns the recorded action names in insertion order.
func (m *MemoryRecorder) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}
