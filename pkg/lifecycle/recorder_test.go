package lifecycle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/retainer/pkg/elastic"
)

type countingRecorder struct {
	mu       sync.Mutex
	deleted  int
	removes  int
	adds     int
	replicas int
}

func (r *countingRecorder) IndicesDeleted(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted += n
}

func (r *countingRecorder) AliasActionsApplied(removes, adds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removes += removes
	r.adds += adds
}

func (r *countingRecorder) ReplicasUpdated(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replicas += n
}

func TestRecorder_CountsDeletedIndicesAcrossChunks(t *testing.T) {
	var names []string
	for i := 0; i < 45; i++ {
		names = append(names, "logs-"+fixedNow.AddDate(0, -2, -i).Format(DateLayout))
	}
	sort.Strings(names)

	gw := newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(names...))
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 3, DeleteBatchSize: 20})
	rec := &countingRecorder{}
	m.SetRecorder(rec)

	_, err := m.ClearOldIndices(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 45, rec.deleted)
	assert.Len(t, gw.callsTo(elastic.MethodDelete), 3)
}

func TestRecorder_CountsAliasActions(t *testing.T) {
	gw := newFakeGateway().on(elastic.MethodGet, aliasesPath, aliasesBody(map[string][]string{
		"logs-" + day(-1): {"last_day"},
		"logs-" + day(-5): {"last_day"},
	}))
	m := newTestManager(t, gw, Policy{Prefix: "logs", AliasWindows: map[string]int{"last_day": 1}})
	rec := &countingRecorder{}
	m.SetRecorder(rec)

	_, err := m.UpdateAliases(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, rec.removes)
	assert.Equal(t, 1, rec.adds)
}

func TestRecorder_NothingRecordedWhenAliasRequestFails(t *testing.T) {
	gw := newFakeGateway().
		on(elastic.MethodGet, aliasesPath, aliasesBody(map[string][]string{"logs-" + day(-5): {"last_day"}})).
		fail(elastic.MethodPost, aliasesPath, errors.New("boom"))
	m := newTestManager(t, gw, Policy{Prefix: "logs", AliasWindows: map[string]int{"last_day": 1}})
	rec := &countingRecorder{}
	m.SetRecorder(rec)

	_, err := m.UpdateAliases(context.Background())

	require.Error(t, err)
	assert.Zero(t, rec.removes+rec.adds)
}

func TestRecorder_CountsReplicaUpdates(t *testing.T) {
	gw := newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(
		"logs-"+day(0), "logs-"+day(-1), "logs-"+day(-2), "logs-"+day(-3), "unmanaged",
	))
	m := newTestManager(t, gw, Policy{Prefix: "logs", Replicas: &ReplicaPolicy{Days: 2, Value: 0}})
	rec := &countingRecorder{}
	m.SetRecorder(rec)

	_, err := m.UpdateReplicas(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, rec.replicas)
}

func TestSetRecorder_NilDisables(t *testing.T) {
	gw := newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody("logs-2020.01.01"))
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 1})
	m.SetRecorder(nil)

	_, err := m.ClearOldIndices(context.Background())
	assert.NoError(t, err)
}
