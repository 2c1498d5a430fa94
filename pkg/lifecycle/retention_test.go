package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/retainer/pkg/elastic"
)

func TestClearOldIndices_NothingOutsideWindow(t *testing.T) {
	gw := newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(
		"logs-2024.01.01", "logs-2024.01.02", "logs-2024.01.03", "other-index",
	))
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 3})

	deleted, err := m.ClearOldIndices(context.Background())

	require.NoError(t, err)
	assert.Empty(t, deleted)
	assert.NotNil(t, deleted)
	assert.Empty(t, gw.callsTo(elastic.MethodDelete))
}

func TestClearOldIndices_DeletesOldManagedIndices(t *testing.T) {
	lastMonth := fixedNow.AddDate(0, -1, 0).Format(DateLayout)
	gw := newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(
		".kibana-4",
		"my-unmanaged-index",
		"logs-"+day(0),
		"logs-"+day(-1),
		"logs-"+lastMonth,
	))
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 2})

	deleted, err := m.ClearOldIndices(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"logs-" + lastMonth}, deleted)
	assert.Equal(t, []string{"/logs-" + lastMonth}, gw.pathsOf(elastic.MethodDelete))
}

func TestClearOldIndices_ChunksDeletes(t *testing.T) {
	const total, chunkSize = 110, 20

	var names []string
	for i := 0; i < total; i++ {
		names = append(names, "logs-"+fixedNow.AddDate(0, -1, -i).Format(DateLayout))
	}
	sort.Strings(names)

	gw := newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(names...))
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 7, DeleteBatchSize: chunkSize})

	deleted, err := m.ClearOldIndices(context.Background())
	require.NoError(t, err)

	expected := ChunkIndices(names, chunkSize)
	assert.Len(t, expected, 6)
	assert.Equal(t, expected, deleted)

	deletes := gw.callsTo(elastic.MethodDelete)
	require.Len(t, deletes, 6)
	var sent []string
	for _, c := range deletes {
		sent = append(sent, c.Path[1:])
		assert.LessOrEqual(t, len(splitChunk(c.Path[1:])), chunkSize)
	}
	sort.Strings(sent)
	sort.Strings(expected)
	assert.Equal(t, expected, sent)
}

func TestClearOldIndices_MalformedManagedNamesAreDeleted(t *testing.T) {
	gw := newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(
		"logs-"+day(0), "logs-garbage", "logs2",
	))
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 1})

	deleted, err := m.ClearOldIndices(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"logs-garbage,logs2"}, deleted)
}

func TestClearOldIndices_ExactlyOutsideWindow(t *testing.T) {
	for n := 1; n <= 10; n++ {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			var names []string
			for i := 0; i < 15; i++ {
				names = append(names, "logs-"+day(-i), "other-"+day(-i))
			}
			sort.Strings(names)

			gw := newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(names...))
			m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: n, DeleteBatchSize: 1})

			deleted, err := m.ClearOldIndices(context.Background())
			require.NoError(t, err)

			var want []string
			for i := n; i < 15; i++ {
				want = append(want, "logs-"+day(-i))
			}
			sort.Strings(want)
			assert.Equal(t, want, deleted)
			for _, name := range deleted {
				assert.NotContains(t, name, "other-")
			}
		})
	}
}

func TestClearOldIndices_DeleteFailureFailsOperation(t *testing.T) {
	old := "logs-" + day(-30)
	backendErr := elastic.NewStatusError(elastic.MethodDelete, "/"+old, 500, `{"error":"boom"}`)
	gw := newFakeGateway().
		on(elastic.MethodGet, settingsPath, indicesBody(old, "logs-"+day(0))).
		fail(elastic.MethodDelete, "/"+old, backendErr)
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 1})

	deleted, err := m.ClearOldIndices(context.Background())

	require.Error(t, err)
	assert.Nil(t, deleted)
	assert.True(t, elastic.IsStatus(err))
}

func TestClearOldIndices_ListFailure(t *testing.T) {
	transportErr := elastic.NewTransportError(elastic.MethodGet, settingsPath, errors.New("connection refused"))
	gw := newFakeGateway().fail(elastic.MethodGet, settingsPath, transportErr)
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 1})

	_, err := m.ClearOldIndices(context.Background())

	assert.True(t, elastic.IsTransport(err))
	assert.Empty(t, gw.callsTo(elastic.MethodDelete))
}

func TestIndicesToDelete_LeavesUnmanagedAlone(t *testing.T) {
	indices := []string{"app-2001.01.01", "logs-2001.01.01", "logs-" + day(0)}

	got := IndicesToDelete(indices, "logs", 1, fixedNow)

	assert.Equal(t, []string{"logs-2001.01.01"}, got)
}
