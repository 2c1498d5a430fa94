package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/retainer/pkg/elastic"
)

// trackingGateway measures how many mutating requests run at once. Reads
// go straight to the wrapped fakeGateway.
type trackingGateway struct {
	*fakeGateway

	hold     time.Duration
	failWith error

	inFlight atomic.Int32
	peak     atomic.Int32
	writes   atomic.Int32
}

func (g *trackingGateway) Request(ctx context.Context, method elastic.Method, path string, body any) (json.RawMessage, error) {
	if method == elastic.MethodGet {
		return g.fakeGateway.Request(ctx, method, path, body)
	}

	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		peak := g.peak.Load()
		if n <= peak || g.peak.CompareAndSwap(peak, n) {
			break
		}
	}

	if g.writes.Add(1) == 1 && g.failWith != nil {
		return nil, g.failWith
	}
	time.Sleep(g.hold)
	return g.fakeGateway.Request(ctx, method, path, body)
}

func oldIndices(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = "logs-" + fixedNow.AddDate(0, -1, -i).Format(DateLayout)
	}
	return names
}

func TestClearOldIndices_RespectsMaxConcurrency(t *testing.T) {
	gw := &trackingGateway{
		fakeGateway: newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(oldIndices(40)...)),
		hold:        5 * time.Millisecond,
	}
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 7, DeleteBatchSize: 1, MaxConcurrency: 3})

	deleted, err := m.ClearOldIndices(context.Background())
	require.NoError(t, err)

	assert.Len(t, deleted, 40)
	assert.Equal(t, int32(40), gw.writes.Load())
	assert.LessOrEqual(t, gw.peak.Load(), int32(3))
	assert.GreaterOrEqual(t, gw.peak.Load(), int32(2), "deletes should overlap up to the limit")
}

func TestUpdateReplicas_RespectsMaxConcurrency(t *testing.T) {
	gw := &trackingGateway{
		fakeGateway: newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(oldIndices(20)...)),
		hold:        5 * time.Millisecond,
	}
	m := newTestManager(t, gw, Policy{
		Prefix:         "logs",
		MaxConcurrency: 2,
		Replicas:       &ReplicaPolicy{Days: 7, Value: 0},
	})

	_, err := m.UpdateReplicas(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(20), gw.writes.Load())
	assert.LessOrEqual(t, gw.peak.Load(), int32(2))
}

func TestClearOldIndices_FailureStopsPendingDeletes(t *testing.T) {
	boom := elastic.NewStatusError(elastic.MethodDelete, "/logs", 500, "boom")
	gw := &trackingGateway{
		fakeGateway: newFakeGateway().on(elastic.MethodGet, settingsPath, indicesBody(oldIndices(5)...)),
		failWith:    boom,
	}
	m := newTestManager(t, gw, Policy{Prefix: "logs", RetentionDays: 7, DeleteBatchSize: 1, MaxConcurrency: 1})

	deleted, err := m.ClearOldIndices(context.Background())

	require.ErrorIs(t, err, boom)
	assert.Nil(t, deleted)
	assert.Equal(t, int32(1), gw.writes.Load(), "no delete starts after the first failure")
}

func TestFanOut_FailureCancelsRunningCalls(t *testing.T) {
	boom := errors.New("boom")

	var (
		mu       sync.Mutex
		observed error
	)
	err := fanOut(context.Background(), 2, 2, func(ctx context.Context, i int) error {
		if i == 1 {
			return boom
		}
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
		}
		mu.Lock()
		observed = ctx.Err()
		mu.Unlock()
		return nil
	})

	require.ErrorIs(t, err, boom)
	assert.ErrorIs(t, observed, context.Canceled)
}

func TestFanOut_NoLimit(t *testing.T) {
	var calls atomic.Int32
	err := fanOut(context.Background(), 0, 10, func(ctx context.Context, i int) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, int32(10), calls.Load())
}
