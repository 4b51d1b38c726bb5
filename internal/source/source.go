// Package source fetches metric snapshots for the analysis agent, either
// from a running server over HTTP or from in-process data.
package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/siteinsight/internal/metrics"
	"github.com/blackwell-systems/siteinsight/internal/tools"
)

// Source fetches one metric family.
type Source interface {
	Fetch(ctx context.Context, sel metrics.Selector) (metrics.Snapshot, error)
}

// StaticSource serves fixed snapshots per family.
type StaticSource struct {
	snapshots map[metrics.Family]metrics.Snapshot
}

// NewStatic creates a source from raw per-family payloads.
func NewStatic(payloads map[metrics.Family]map[string]any) *StaticSource {
	s := &StaticSource{snapshots: make(map[metrics.Family]metrics.Snapshot, len(payloads))}
	for f, p := range payloads {
		s.snapshots[f] = metrics.NewSnapshot(p)
	}
	return s
}

// Fetch returns the fixture for sel.Family, or an unknown_tool error.
func (s *StaticSource) Fetch(ctx context.Context, sel metrics.Selector) (metrics.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return metrics.Snapshot{}, transportError(sel.Family.ToolName(), err)
	}
	snap, ok := s.snapshots[sel.Family]
	if !ok {
		return metrics.Snapshot{}, &FetchError{
			Kind: KindUnknownTool,
			Tool: sel.Family.ToolName(),
			Err:  fmt.Errorf("no fixture for family %q", sel.Family),
		}
	}
	return snap, nil
}

// LocalSource calls a tool registry in-process, skipping HTTP.
type LocalSource struct {
	registry *tools.Registry
	now      func() time.Time
}

// NewLocal creates a source over registry.
func NewLocal(registry *tools.Registry) *LocalSource {
	return &LocalSource{registry: registry, now: time.Now}
}

// Fetch calls the family's tool with parameters derived from sel.
func (s *LocalSource) Fetch(ctx context.Context, sel metrics.Selector) (metrics.Snapshot, error) {
	tool := sel.Family.ToolName()
	if err := ctx.Err(); err != nil {
		return metrics.Snapshot{}, transportError(tool, err)
	}
	out, err := s.registry.Call(tool, sel.Params(s.now()))
	if err != nil {
		kind := KindHTTP
		if errors.Is(err, tools.ErrUnknownTool) {
			kind = KindUnknownTool
		}
		return metrics.Snapshot{}, &FetchError{Kind: kind, Tool: tool, Err: err}
	}
	return metrics.NewSnapshot(out), nil
}
