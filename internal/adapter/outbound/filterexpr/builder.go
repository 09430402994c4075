package filterexpr

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/engine-core/engine/internal/domain/evalsurface"
)

// Definition is an asset's source: the CEL expression and, for
// policies, the asset names it touches for trace scoping.
type Definition struct {
	Expression string
	Assets     []string
}

// Builder implements evalsurface.Builder by compiling registered CEL
// definitions on demand.
type Builder struct {
	eval *Evaluator

	mu       sync.RWMutex
	policies map[string]Definition
	filters  map[string]Definition
}

// NewBuilder creates an empty Builder.
func NewBuilder() (*Builder, error) {
	eval, err := NewEvaluator()
	if err != nil {
		return nil, err
	}
	return &Builder{
		eval:     eval,
		policies: make(map[string]Definition),
		filters:  make(map[string]Definition),
	}, nil
}

// RegisterPolicy stores (or replaces) the CEL definition for a named
// policy asset. It does not compile the expression: compilation happens
// lazily in BuildPolicy, so a syntax error surfaces at the call site that
// actually needs the policy (addEntry/rebuildEntry), matching the
// builder's `build(name) -> policy|error` contract.
func (b *Builder) RegisterPolicy(name string, def Definition) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.policies[name] = def
}

// RegisterFilter stores (or replaces) the CEL definition for a named
// filter asset.
func (b *Builder) RegisterFilter(name string, def Definition) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters[name] = def
}

// BuildPolicy compiles the named policy asset into an evalsurface.Policy.
func (b *Builder) BuildPolicy(_ context.Context, name string) (evalsurface.Policy, error) {
	b.mu.RLock()
	def, ok := b.policies[name]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("filterexpr: policy asset %q not found", name)
	}
	prg, err := b.eval.Compile(def.Expression)
	if err != nil {
		return nil, fmt.Errorf("filterexpr: build policy %q: %w", name, err)
	}
	return &celPolicy{name: name, prg: prg, assets: def.Assets}, nil
}

// BuildFilter compiles the named filter asset into an evalsurface.Filter.
func (b *Builder) BuildFilter(_ context.Context, name string) (evalsurface.Filter, error) {
	b.mu.RLock()
	def, ok := b.filters[name]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("filterexpr: filter asset %q not found", name)
	}
	prg, err := b.eval.Compile(def.Expression)
	if err != nil {
		return nil, fmt.Errorf("filterexpr: build filter %q: %w", name, err)
	}
	return &celFilter{name: name, prg: prg}, nil
}

// AssetsOf returns the asset names a policy's definition declared it
// touches, for tester trace scoping.
func (b *Builder) AssetsOf(_ context.Context, policyName string) (map[string]struct{}, error) {
	b.mu.RLock()
	def, ok := b.policies[policyName]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("filterexpr: policy asset %q not found", policyName)
	}
	out := make(map[string]struct{}, len(def.Assets))
	for _, a := range def.Assets {
		out[a] = struct{}{}
	}
	return out, nil
}

type celPolicy struct {
	name   string
	prg    cel.Program
	assets []string
}

// Evaluate runs the policy's CEL program, writing the boolean outcome
// into event.Fields["_policy_result"] and, when a trace sink is given, a
// single trace line scoped under the policy's name.
func (p *celPolicy) Evaluate(_ context.Context, event *evalsurface.Event, sink evalsurface.TraceSink) (evalsurface.EvalResult, error) {
	result, err := evalBool(p.prg, event)
	if err != nil {
		return evalsurface.EvalResult{}, fmt.Errorf("policy %q: %w", p.name, err)
	}
	if event.Fields == nil {
		event.Fields = map[string]any{}
	}
	event.Fields["_policy_result"] = result

	var trace []evalsurface.TraceLine
	if sink != nil {
		line := fmt.Sprintf("policy %s => %v", p.name, result)
		sink.Trace(p.name, line)
		trace = append(trace, evalsurface.TraceLine{Asset: p.name, Line: line})
	}
	return evalsurface.EvalResult{Event: event, Trace: trace}, nil
}

type celFilter struct {
	name string
	prg  cel.Program
}

// Matches runs the filter's CEL program. An evaluation error (timeout,
// type mismatch) is treated as no-match rather than propagated, since
// Filter.Matches has no error return in the spec.
func (f *celFilter) Matches(_ context.Context, event *evalsurface.Event) bool {
	ok, err := evalBool(f.prg, event)
	if err != nil {
		return false
	}
	return ok
}
