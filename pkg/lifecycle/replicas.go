package lifecycle

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/retainer/pkg/elastic"
)

type replicaSettingsRequest struct {
	Index struct {
		NumberOfReplicas int `json:"number_of_replicas"`
	} `json:"index"`
}

// ReplicaCandidates returns the managed indices that are not among the days
// most recent dates ending at now, in input order.
func ReplicaCandidates(indices []string, prefix string, days int, now time.Time) []string {
	ignore := AcceptableIndices(prefix, days, now)
	return Difference(FilterManaged(indices, prefix), ignore)
}

// UpdateReplicas sets the configured replica count on every managed index
// outside the replica window, then returns the shard and replica counts of
// all indices, changed or not. Shard counts are never modified. Without a
// replica policy no index is changed.
func (m *Manager) UpdateReplicas(ctx context.Context) (map[string]IndexSettings, error) {
	if m.policy.Replicas == nil {
		m.logger.Debug("no replica policy configured")
		return m.catalog.ListIndexSettings(ctx)
	}

	indices, err := m.catalog.ListIndices(ctx)
	if err != nil {
		return nil, err
	}

	policy := *m.policy.Replicas
	candidates := ReplicaCandidates(indices, m.policy.Prefix, policy.Days, m.now())

	if len(candidates) > 0 {
		m.logger.Info("applying replica policy",
			"indices", len(candidates),
			"replicas", policy.Value,
			"ignore_days", policy.Days,
		)

		var body replicaSettingsRequest
		body.Index.NumberOfReplicas = policy.Value

		err := fanOut(ctx, m.policy.concurrency(), len(candidates), func(ctx context.Context, i int) error {
			path := "/" + candidates[i] + "/_settings"
			if _, err := m.gateway.Request(ctx, elastic.MethodPut, path, body); err != nil {
				return fmt.Errorf("update replicas of %q: %w", candidates[i], err)
			}
			m.recorder.ReplicasUpdated(1)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return m.catalog.ListIndexSettings(ctx)
}
