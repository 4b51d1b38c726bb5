// Package tools registers the simulated analytics tools that both the HTTP
// server and the MCP stdio server expose.
package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/siteinsight/internal/metrics"
	"github.com/blackwell-systems/siteinsight/internal/simulate"
)

// ErrUnknownTool is returned by Call for a name with no registered tool.
var ErrUnknownTool = errors.New("unknown tool")

// ErrInvalidParams is returned when tool parameters fail validation.
var ErrInvalidParams = errors.New("invalid parameters")

// Param describes one tool parameter.
type Param struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// Handler executes a tool with already-decoded parameters.
type Handler func(params map[string]any) (map[string]any, error)

// Tool is a registered tool.
type Tool struct {
	Name        string
	Description string
	Family      metrics.Family
	Parameters  map[string]Param
	Handler     Handler
}

// Descriptor is the discovery shape of a tool, keyed by name in GET /tools.
type Descriptor struct {
	Description string           `json:"description"`
	Parameters  map[string]Param `json:"parameters"`
}

// InputSchema renders the tool's parameters as a JSON Schema object.
func (t Tool) InputSchema() json.RawMessage {
	props := make(map[string]any, len(t.Parameters))
	for name, p := range t.Parameters {
		props[name] = map[string]any{"type": p.Type, "description": p.Description}
	}
	data, _ := json.Marshal(map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	})
	return data
}

// Registry holds the tools in registration order.
type Registry struct {
	tools []Tool
	store *simulate.Store
	now   func() time.Time
}

// NewRegistry creates a registry backed by store with all five analytics
// tools registered. now supplies the default date window; nil uses
// time.Now.
func NewRegistry(store *simulate.Store, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	r := &Registry{store: store, now: now}
	r.addTools()
	return r
}

// register appends a tool to the registry.
func (r *Registry) register(t Tool) {
	r.tools = append(r.tools, t)
}

var dateParams = map[string]Param{
	"start_date": {Type: "string", Description: "Start date in YYYY-MM-DD format"},
	"end_date":   {Type: "string", Description: "End date in YYYY-MM-DD format"},
}

func (r *Registry) addTools() {
	r.register(Tool{
		Name:        metrics.FamilyTraffic.ToolName(),
		Description: "Get traffic metrics including sessions, page views, and users for a date range",
		Family:      metrics.FamilyTraffic,
		Parameters:  dateParams,
		Handler:     r.handleTraffic,
	})
	r.register(Tool{
		Name:        metrics.FamilyEngagement.ToolName(),
		Description: "Get engagement metrics like bounce rate and session duration",
		Family:      metrics.FamilyEngagement,
		Parameters:  dateParams,
		Handler:     r.handleEngagement,
	})
	r.register(Tool{
		Name:        metrics.FamilyTopPages.ToolName(),
		Description: "Get top performing pages by page views",
		Family:      metrics.FamilyTopPages,
		Parameters: map[string]Param{
			"limit": {Type: "integer", Description: "Number of top pages to return (default: 10)"},
		},
		Handler: r.handleTopPages,
	})
	r.register(Tool{
		Name:        metrics.FamilySources.ToolName(),
		Description: "Get traffic source breakdown and top referrers",
		Family:      metrics.FamilySources,
		Parameters:  map[string]Param{},
		Handler: func(map[string]any) (map[string]any, error) {
			return r.store.TrafficSources(), nil
		},
	})
	r.register(Tool{
		Name:        metrics.FamilyDemographics.ToolName(),
		Description: "Get user demographic information including countries, devices, and age groups",
		Family:      metrics.FamilyDemographics,
		Parameters:  map[string]Param{},
		Handler: func(map[string]any) (map[string]any, error) {
			return r.store.DemographicData(), nil
		},
	})
}

// List returns the registered tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name
	}
	return names
}

// Describe returns the discovery map served at GET /tools.
func (r *Registry) Describe() map[string]Descriptor {
	out := make(map[string]Descriptor, len(r.tools))
	for _, t := range r.tools {
		out[t.Name] = Descriptor{Description: t.Description, Parameters: t.Parameters}
	}
	return out
}

// Lookup finds a tool by name.
func (r *Registry) Lookup(name string) (Tool, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}

// Call runs the named tool. A nil params map is treated as empty.
func (r *Registry) Call(name string, params map[string]any) (map[string]any, error) {
	t, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	if params == nil {
		params = map[string]any{}
	}
	return t.Handler(params)
}

// dateRange resolves start_date/end_date, defaulting each missing bound
// from the default window.
func (r *Registry) dateRange(params map[string]any) (metrics.DateRange, error) {
	def := metrics.DefaultRange(r.now(), metrics.DefaultWindowDays)
	start, err := stringParam(params, "start_date", def.Start)
	if err != nil {
		return metrics.DateRange{}, err
	}
	end, err := stringParam(params, "end_date", def.End)
	if err != nil {
		return metrics.DateRange{}, err
	}
	dr := metrics.DateRange{Start: start, End: end}
	if err := dr.Validate(); err != nil {
		return metrics.DateRange{}, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return dr, nil
}

func (r *Registry) handleTraffic(params map[string]any) (map[string]any, error) {
	dr, err := r.dateRange(params)
	if err != nil {
		return nil, err
	}
	return r.store.TrafficMetrics(dr.Start, dr.End), nil
}

func (r *Registry) handleEngagement(params map[string]any) (map[string]any, error) {
	dr, err := r.dateRange(params)
	if err != nil {
		return nil, err
	}
	return r.store.EngagementMetrics(dr.Start, dr.End), nil
}

func (r *Registry) handleTopPages(params map[string]any) (map[string]any, error) {
	limit, err := intParam(params, "limit", simulate.DefaultTopPagesLimit)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidParams, limit)
	}
	return r.store.TopPages(limit), nil
}

func stringParam(params map[string]any, name, def string) (string, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrInvalidParams, name)
	}
	if s == "" {
		return def, nil
	}
	return s, nil
}

func intParam(params map[string]any, name string, def int) (int, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidParams, name)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer", ErrInvalidParams, name)
	}
}
