package lifecycle

import (
	"context"
	"log/slog"
	"time"
)

// Manager runs the lifecycle operations for one Policy.
type Manager struct {
	gateway  Gateway
	catalog  *Catalog
	policy   Policy
	now      func() time.Time
	recorder Recorder
	logger   *slog.Logger
}

// Recorder receives counts of the changes each operation applied to the
// backend. Counts are reported as requests succeed, so a failed run still
// reports the part that was applied. Implementations must be safe for
// concurrent use.
type Recorder interface {
	IndicesDeleted(n int)
	AliasActionsApplied(removes, adds int)
	ReplicasUpdated(n int)
}

type nopRecorder struct{}

func (nopRecorder) IndicesDeleted(int)           {}
func (nopRecorder) AliasActionsApplied(int, int) {}
func (nopRecorder) ReplicasUpdated(int)          {}

// NewManager creates a manager that applies policy through gw.
// The policy is copied; later changes to the caller's value have no effect.
func NewManager(gw Gateway, policy Policy) *Manager {
	policy.AliasWindows = cloneWindows(policy.AliasWindows)
	if policy.Replicas != nil {
		replicas := *policy.Replicas
		policy.Replicas = &replicas
	}
	policy.ExcludeIndices = append([]string(nil), policy.ExcludeIndices...)

	return &Manager{
		gateway:  gw,
		catalog:  NewCatalog(gw),
		policy:   policy,
		now:      time.Now,
		recorder: nopRecorder{},
		logger:   slog.Default().With("component", "lifecycle"),
	}
}

// SetClock replaces the clock used to compute date windows.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// SetRecorder registers r for change counts. A nil r disables recording.
func (m *Manager) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	m.recorder = r
}

// Policy returns a copy of the manager's policy.
func (m *Manager) Policy() Policy {
	p := m.policy
	p.AliasWindows = cloneWindows(m.policy.AliasWindows)
	return p
}

// ListIndices returns every index name, sorted.
func (m *Manager) ListIndices(ctx context.Context) ([]string, error) {
	return m.catalog.ListIndices(ctx)
}

// ListIndexSettings returns the shard and replica counts of every index.
func (m *Manager) ListIndexSettings(ctx context.Context) (map[string]IndexSettings, error) {
	return m.catalog.ListIndexSettings(ctx)
}

func cloneWindows(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for alias, days := range in {
		out[alias] = days
	}
	return out
}
