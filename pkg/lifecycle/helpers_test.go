package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"mercator-hq/retainer/pkg/elastic"
)

// fixedNow is the clock used throughout the tests: 2024-01-03 at noon.
var fixedNow = time.Date(2024, time.January, 3, 12, 0, 0, 0, time.Local)

func clock() time.Time { return fixedNow }

func day(offset int) string {
	return fixedNow.AddDate(0, 0, offset).Format(DateLayout)
}

type gatewayCall struct {
	Method string
	Path   string
	Body   string
}

// fakeGateway answers requests from a script keyed by "METHOD path".
// Each key holds a queue of bodies; the last body is repeated once the queue
// is down to one element. Unscripted requests answer "{}".
type fakeGateway struct {
	mu        sync.Mutex
	calls     []gatewayCall
	responses map[string][]string
	failures  map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		responses: make(map[string][]string),
		failures:  make(map[string]error),
	}
}

func (f *fakeGateway) on(method elastic.Method, path, body string) *fakeGateway {
	key := method.String() + " " + path
	f.responses[key] = append(f.responses[key], body)
	return f
}

func (f *fakeGateway) fail(method elastic.Method, path string, err error) *fakeGateway {
	f.failures[method.String()+" "+path] = err
	return f
}

func (f *fakeGateway) Request(ctx context.Context, method elastic.Method, path string, body any) (json.RawMessage, error) {
	var encoded string
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		encoded = string(b)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, gatewayCall{Method: method.String(), Path: path, Body: encoded})

	key := method.String() + " " + path
	if err := f.failures[key]; err != nil {
		return nil, err
	}

	queue := f.responses[key]
	if len(queue) == 0 {
		return json.RawMessage(`{}`), nil
	}
	resp := queue[0]
	if len(queue) > 1 {
		f.responses[key] = queue[1:]
	}
	return json.RawMessage(resp), nil
}

// callsTo returns the recorded calls with the given method, in call order.
func (f *fakeGateway) callsTo(method elastic.Method) []gatewayCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []gatewayCall
	for _, c := range f.calls {
		if c.Method == method.String() {
			out = append(out, c)
		}
	}
	return out
}

// pathsOf returns the sorted paths of calls with the given method.
func (f *fakeGateway) pathsOf(method elastic.Method) []string {
	var paths []string
	for _, c := range f.callsTo(method) {
		paths = append(paths, c.Path)
	}
	sort.Strings(paths)
	return paths
}

// settingsBody renders a GET /*/_settings response. Values are written as
// strings, the way Elasticsearch returns them.
func settingsBody(indices map[string]IndexSettings) string {
	parts := make([]string, 0, len(indices))
	for name, s := range indices {
		parts = append(parts, fmt.Sprintf(
			`%q:{"settings":{"index":{"number_of_shards":"%d","number_of_replicas":"%d"}}}`,
			name, s.Shards, s.Replicas,
		))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

// indicesBody renders a settings response for names with 1 shard and 1 replica.
func indicesBody(names ...string) string {
	indices := make(map[string]IndexSettings, len(names))
	for _, name := range names {
		indices[name] = IndexSettings{Shards: 1, Replicas: 1}
	}
	return settingsBody(indices)
}

// aliasesBody renders a GET /_aliases response.
func aliasesBody(byIndex map[string][]string) string {
	parts := make([]string, 0, len(byIndex))
	for index, aliases := range byIndex {
		inner := make([]string, 0, len(aliases))
		for _, alias := range aliases {
			inner = append(inner, fmt.Sprintf("%q:{}", alias))
		}
		parts = append(parts, fmt.Sprintf(`%q:{"aliases":{%s}}`, index, strings.Join(inner, ",")))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func newTestManager(t *testing.T, gw Gateway, policy Policy) *Manager {
	t.Helper()
	m := NewManager(gw, policy)
	m.SetClock(clock)
	return m
}

func splitChunk(chunk string) []string {
	return strings.Split(chunk, ",")
}
