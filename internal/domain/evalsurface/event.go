// Package evalsurface defines the thin contract this module consumes
// from the external policy/asset builder: opaque Policy and Filter
// handles callable against an Event, plus the Event type itself.
// Building policies and filters from textual asset definitions is out
// of scope here — only the Builder port is defined.
package evalsurface

import "context"

// Event is the mutable unit passed through a router or tester. Raw
// carries the original log line; Fields carries the HLP capture map
// produced by parsing it (or nil, before parsing).
type Event struct {
	Queue    string
	Location string
	Raw      string
	Fields   map[string]any
}

// TraceLevel controls how much trace detail a tester run records.
type TraceLevel int

const (
	TraceNone TraceLevel = iota
	TraceAssetOnly
	TraceAll
)

// TraceSink receives human-readable trace lines scoped by asset name.
// A policy writes to it only when one is supplied.
type TraceSink interface {
	Trace(asset, line string)
}

// EvalResult is the outcome of a successful policy evaluation.
type EvalResult struct {
	Event *Event
	Trace []TraceLine
}

// TraceLine is one recorded trace entry.
type TraceLine struct {
	Asset string
	Line  string
}

// Policy transforms an event, optionally emitting trace lines through
// sink (which may be nil).
type Policy interface {
	Evaluate(ctx context.Context, event *Event, sink TraceSink) (EvalResult, error)
}

// Filter is a predicate over an event.
type Filter interface {
	Matches(ctx context.Context, event *Event) bool
}

// Builder produces Policy and Filter handles, and reports which asset
// names a policy references, by delegating to the external asset
// builder (out of scope here; see internal/adapter/outbound/filterexpr
// for the CEL-backed reference implementation used by this repo's own
// tests).
type Builder interface {
	BuildPolicy(ctx context.Context, name string) (Policy, error)
	BuildFilter(ctx context.Context, name string) (Filter, error)
	AssetsOf(ctx context.Context, policyName string) (map[string]struct{}, error)
}
