package lifecycle

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"mercator-hq/retainer/pkg/elastic"
)

// AliasState maps each alias to the sorted, deduplicated names of the
// indices that carry it.
type AliasState map[string][]string

// AliasTarget names one (index, alias) pair in an alias action.
type AliasTarget struct {
	Index string `json:"index"`
	Alias string `json:"alias"`
}

// AliasAction is one element of the backend's alias "actions" list.
// Exactly one of Add and Remove is set.
type AliasAction struct {
	Add    *AliasTarget `json:"add,omitempty"`
	Remove *AliasTarget `json:"remove,omitempty"`
}

// AddAlias returns an action that puts alias on index.
func AddAlias(index, alias string) AliasAction {
	return AliasAction{Add: &AliasTarget{Index: index, Alias: alias}}
}

// RemoveAlias returns an action that takes alias off index.
func RemoveAlias(index, alias string) AliasAction {
	return AliasAction{Remove: &AliasTarget{Index: index, Alias: alias}}
}

type aliasActionsRequest struct {
	Actions []AliasAction `json:"actions"`
}

// InvertAliases turns the backend's index -> aliases view into
// alias -> indices. Indices whose name contains any of the exclude fragments
// are skipped entirely. Index lists are sorted and deduplicated.
func InvertAliases(byIndex IndexAliases, exclude []string) AliasState {
	members := make(map[string]map[string]struct{})
	for index, aliases := range byIndex {
		if excluded(index, exclude) {
			continue
		}
		for _, alias := range aliases {
			if members[alias] == nil {
				members[alias] = make(map[string]struct{})
			}
			members[alias][index] = struct{}{}
		}
	}

	state := make(AliasState, len(members))
	for alias, set := range members {
		state[alias] = slices.Sorted(maps.Keys(set))
	}
	return state
}

// FilterManagedAliases keeps only the aliases that have a window configured.
// A window of zero still counts as configured.
func FilterManagedAliases(state AliasState, windows map[string]int) AliasState {
	managed := make(AliasState, len(state))
	for alias, indices := range state {
		if _, ok := windows[alias]; ok {
			managed[alias] = indices
		}
	}
	return managed
}

// PlanAliasActions computes the actions that move every alias in state to
// its acceptable window ending at now. Every remove action comes before any
// add action, so an index never serves an alias it is leaving alongside its
// replacement. Aliases and index names are visited in sorted order. Aliases
// that already match their window contribute nothing; an empty result means
// no request is needed.
func PlanAliasActions(state AliasState, windows map[string]int, prefix string, now time.Time) []AliasAction {
	var removes, adds []AliasAction

	for _, alias := range slices.Sorted(maps.Keys(state)) {
		days, ok := windows[alias]
		if !ok {
			continue
		}

		current := state[alias]
		acceptable := AcceptableIndices(prefix, days, now)

		toRemove := Difference(current, acceptable)
		toAdd := Difference(acceptable, current)
		slices.Sort(toRemove)
		slices.Sort(toAdd)

		for _, index := range toRemove {
			removes = append(removes, RemoveAlias(index, alias))
		}
		for _, index := range toAdd {
			adds = append(adds, AddAlias(index, alias))
		}
	}

	return append(removes, adds...)
}

// ListAliases returns the current state of the managed aliases.
func (m *Manager) ListAliases(ctx context.Context) (AliasState, error) {
	byIndex, err := m.catalog.ListIndexAliases(ctx)
	if err != nil {
		return nil, err
	}
	state := InvertAliases(byIndex, m.policy.ExcludeIndices)
	return FilterManagedAliases(state, m.policy.AliasWindows), nil
}

// UpdateAliases moves every managed alias to its configured window in one
// atomic request and returns the managed alias state read back afterwards.
// No request is made when every alias is already in place.
func (m *Manager) UpdateAliases(ctx context.Context) (AliasState, error) {
	current, err := m.ListAliases(ctx)
	if err != nil {
		return nil, err
	}

	actions := PlanAliasActions(current, m.policy.AliasWindows, m.policy.Prefix, m.now())
	if len(actions) == 0 {
		m.logger.Debug("aliases already up to date", "aliases", len(current))
		return current, nil
	}

	m.logger.Info("updating aliases",
		"aliases", len(current),
		"actions", len(actions),
	)

	if _, err := m.gateway.Request(ctx, elastic.MethodPost, aliasesPath, aliasActionsRequest{Actions: actions}); err != nil {
		return nil, fmt.Errorf("update aliases: %w", err)
	}
	m.recorder.AliasActionsApplied(countActions(actions))

	return m.ListAliases(ctx)
}

func countActions(actions []AliasAction) (removes, adds int) {
	for _, a := range actions {
		if a.Remove != nil {
			removes++
		}
		if a.Add != nil {
			adds++
		}
	}
	return removes, adds
}

func excluded(index string, fragments []string) bool {
	for _, fragment := range fragments {
		if fragment != "" && strings.Contains(index, fragment) {
			return true
		}
	}
	return false
}
