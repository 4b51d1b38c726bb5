package tools

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/siteinsight/internal/simulate"
)

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
}

func newTestRegistry() *Registry {
	return NewRegistry(simulate.NewStore(simulate.ModeStatic, 0), fixedNow)
}

func TestRegistry_Names(t *testing.T) {
	r := newTestRegistry()
	assert.Equal(t, []string{
		"get_traffic_metrics",
		"get_engagement_metrics",
		"get_top_pages",
		"get_traffic_sources",
		"get_demographic_data",
	}, r.Names())
}

func TestRegistry_Describe(t *testing.T) {
	d := newTestRegistry().Describe()
	require.Len(t, d, 5)
	assert.Contains(t, d["get_traffic_metrics"].Parameters, "start_date")
	assert.Contains(t, d["get_top_pages"].Parameters, "limit")
	assert.Empty(t, d["get_traffic_sources"].Parameters)
}

func TestRegistry_CallUnknownTool(t *testing.T) {
	_, err := newTestRegistry().Call("get_revenue", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownTool))
	assert.Contains(t, err.Error(), "get_revenue")
}

func TestRegistry_TrafficDefaultsToLast30Days(t *testing.T) {
	out, err := newTestRegistry().Call("get_traffic_metrics", nil)
	require.NoError(t, err)
	dr := out["date_range"].(map[string]any)
	assert.Equal(t, "2024-02-14", dr["start_date"])
	assert.Equal(t, "2024-03-15", dr["end_date"])
}

func TestRegistry_EngagementExplicitRange(t *testing.T) {
	out, err := newTestRegistry().Call("get_engagement_metrics", map[string]any{
		"start_date": "2024-01-01",
		"end_date":   "2024-01-31",
	})
	require.NoError(t, err)
	dr := out["date_range"].(map[string]any)
	assert.Equal(t, "2024-01-01", dr["start_date"])
	assert.Equal(t, "2024-01-31", dr["end_date"])
}

func TestRegistry_InvalidParams(t *testing.T) {
	r := newTestRegistry()
	tests := []struct {
		name   string
		tool   string
		params map[string]any
	}{
		{"bad date", "get_traffic_metrics", map[string]any{"start_date": "yesterday"}},
		{"reversed", "get_engagement_metrics", map[string]any{"start_date": "2024-02-01", "end_date": "2024-01-01"}},
		{"non-string date", "get_traffic_metrics", map[string]any{"start_date": 20240101}},
		{"string limit", "get_top_pages", map[string]any{"limit": "ten"}},
		{"zero limit", "get_top_pages", map[string]any{"limit": 0.0}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Call(tc.tool, tc.params)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParams), "got %v", err)
		})
	}
}

func TestRegistry_TopPagesLimit(t *testing.T) {
	out, err := newTestRegistry().Call("get_top_pages", map[string]any{"limit": 2.0})
	require.NoError(t, err)
	assert.Len(t, out["top_pages"], 2)
}

func TestTool_InputSchema(t *testing.T) {
	tool, ok := newTestRegistry().Lookup("get_top_pages")
	require.True(t, ok)

	var schema struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(tool.InputSchema(), &schema))
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, "integer", schema.Properties["limit"]["type"])
}
