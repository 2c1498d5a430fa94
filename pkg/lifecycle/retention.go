package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mercator-hq/retainer/pkg/elastic"
)

// IndicesToDelete returns the managed indices that fall outside the
// retention window ending at now. Names are expected sorted and keep their
// order. Managed names that do not parse as a date are not special-cased:
// they are never acceptable and so are always returned.
func IndicesToDelete(indices []string, prefix string, days int, now time.Time) []string {
	managed := FilterManaged(indices, prefix)
	return Difference(managed, AcceptableIndices(prefix, days, now))
}

// ClearOldIndices deletes every managed index whose date lies outside the
// retention window and returns what was deleted, one element per delete
// request: either a single index name or a comma-joined chunk of names, in
// chunk order.
func (m *Manager) ClearOldIndices(ctx context.Context) ([]string, error) {
	indices, err := m.catalog.ListIndices(ctx)
	if err != nil {
		return nil, err
	}

	doomed := IndicesToDelete(indices, m.policy.Prefix, m.policy.RetentionDays, m.now())
	chunks := ChunkIndices(doomed, m.policy.batchSize())

	if len(chunks) == 0 {
		m.logger.Debug("no indices outside retention window",
			"prefix", m.policy.Prefix,
			"retention_days", m.policy.RetentionDays,
		)
		return []string{}, nil
	}

	m.logger.Info("deleting indices outside retention window",
		"indices", len(doomed),
		"requests", len(chunks),
		"retention_days", m.policy.RetentionDays,
	)

	deleted := make([]string, len(chunks))
	err = fanOut(ctx, m.policy.concurrency(), len(chunks), func(ctx context.Context, i int) error {
		if _, err := m.gateway.Request(ctx, elastic.MethodDelete, "/"+chunks[i], nil); err != nil {
			return fmt.Errorf("delete indices %q: %w", chunks[i], err)
		}
		deleted[i] = chunks[i]
		m.recorder.IndicesDeleted(strings.Count(chunks[i], ",") + 1)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}
