package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"mercator-hq/retainer/pkg/elastic"
)

// Gateway performs REST calls against the search backend.
// *elastic.Client satisfies it.
type Gateway interface {
	Request(ctx context.Context, method elastic.Method, path string, body any) (json.RawMessage, error)
}

const (
	settingsPath = "/*/_settings"
	aliasesPath  = "/_aliases"
)

// IndexSettings holds the shard and replica counts of one index.
type IndexSettings struct {
	Shards   int `json:"shards"`
	Replicas int `json:"replicas"`
}

// Catalog reads index and alias metadata. It applies no business filtering:
// prefix and date rules belong to the callers.
type Catalog struct {
	gateway Gateway
}

// NewCatalog creates a catalog reader over gw.
func NewCatalog(gw Gateway) *Catalog {
	return &Catalog{gateway: gw}
}

// ListIndices returns every index name known to the backend, sorted.
func (c *Catalog) ListIndices(ctx context.Context) ([]string, error) {
	raw, err := c.gateway.Request(ctx, elastic.MethodGet, settingsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}

	var indices map[string]json.RawMessage
	if err := decode(raw, &indices); err != nil {
		return nil, fmt.Errorf("list indices: %w", err)
	}

	names := make([]string, 0, len(indices))
	for name := range indices {
		names = append(names, name)
	}
	slices.Sort(names)

	return names, nil
}

// settingValue accepts both the string form Elasticsearch returns
// ("number_of_replicas": "1") and a plain JSON number.
type settingValue int

func (v *settingValue) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*v = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid setting value %s: %w", b, err)
	}
	*v = settingValue(n)
	return nil
}

type indexSettingsResponse struct {
	Settings struct {
		Index struct {
			NumberOfShards   settingValue `json:"number_of_shards"`
			NumberOfReplicas settingValue `json:"number_of_replicas"`
		} `json:"index"`
	} `json:"settings"`
}

// ListIndexSettings returns the shard and replica counts of every index.
func (c *Catalog) ListIndexSettings(ctx context.Context) (map[string]IndexSettings, error) {
	raw, err := c.gateway.Request(ctx, elastic.MethodGet, settingsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list index settings: %w", err)
	}

	var indices map[string]indexSettingsResponse
	if err := decode(raw, &indices); err != nil {
		return nil, fmt.Errorf("list index settings: %w", err)
	}

	settings := make(map[string]IndexSettings, len(indices))
	for name, idx := range indices {
		settings[name] = IndexSettings{
			Shards:   int(idx.Settings.Index.NumberOfShards),
			Replicas: int(idx.Settings.Index.NumberOfReplicas),
		}
	}
	return settings, nil
}

// IndexAliases is the backend's view of aliases: index name to the set of
// aliases on that index.
type IndexAliases map[string][]string

type aliasesResponse map[string]struct {
	Aliases map[string]json.RawMessage `json:"aliases"`
}

// ListIndexAliases returns, for every index, the aliases it carries.
func (c *Catalog) ListIndexAliases(ctx context.Context) (IndexAliases, error) {
	raw, err := c.gateway.Request(ctx, elastic.MethodGet, aliasesPath, nil)
	if err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}

	var resp aliasesResponse
	if err := decode(raw, &resp); err != nil {
		return nil, fmt.Errorf("list aliases: %w", err)
	}

	out := make(IndexAliases, len(resp))
	for index, meta := range resp {
		aliases := make([]string, 0, len(meta.Aliases))
		for alias := range meta.Aliases {
			aliases = append(aliases, alias)
		}
		slices.Sort(aliases)
		out[index] = aliases
	}
	return out, nil
}

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
