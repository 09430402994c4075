package tester

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/engine-core/engine/internal/domain/evalsurface"
)

type internalEntry struct {
	Entry
	policy evalsurface.Policy
}

// Tester holds one sandbox dispatch table, owned by a single worker.
type Tester struct {
	builder evalsurface.Builder

	mu     sync.Mutex
	byName map[string]*internalEntry
}

// New creates a Tester backed by builder.
func New(builder evalsurface.Builder) *Tester {
	return &Tester{builder: builder, byName: make(map[string]*internalEntry)}
}

// AddEntry builds the named policy and inserts a new, initially Disabled
// entry.
func (t *Tester) AddEntry(ctx context.Context, e Entry) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.byName[e.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
	}
	pol, err := t.builder.BuildPolicy(ctx, e.PolicyName)
	if err != nil {
		return fmt.Errorf("tester: build policy for %q: %w", e.Name, err)
	}
	e.State = Disabled
	t.byName[e.Name] = &internalEntry{Entry: e, policy: pol}
	return nil
}

// RemoveEntry deletes the named entry; removing an unknown name is a
// no-op success.
func (t *Tester) RemoveEntry(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byName, name)
	return nil
}

// GetEntry returns a snapshot of the named entry.
func (t *Tester) GetEntry(name string) (Entry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byName[name]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e.Entry, nil
}

// EnableEntry transitions Disabled -> Enabled. Testers have no priority,
// so there is nothing to collide with.
func (t *Tester) EnableEntry(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.byName[name]
	if !ok {
		return ErrNotFound
	}
	e.State = Enabled
	return nil
}

// RebuildEntry re-invokes the builder for the named entry's policy,
// atomically swapping the compiled callable on success.
func (t *Tester) RebuildEntry(ctx context.Context, name string) error {
	t.mu.Lock()
	e, ok := t.byName[name]
	t.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	pol, err := t.builder.BuildPolicy(ctx, e.PolicyName)
	if err != nil {
		return fmt.Errorf("tester: rebuild policy for %q: %w", name, err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	e.policy = pol
	return nil
}

// GetEntries returns a snapshot of every entry, sorted by Name so the
// order is stable and independent of map iteration.
func (t *Tester) GetEntries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Entry, 0, len(t.byName))
	for _, e := range t.byName {
		out = append(out, e.Entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// GetAssets returns the set of asset names the named entry's policy
// references, as reported by the builder.
func (t *Tester) GetAssets(ctx context.Context, name string) (map[string]struct{}, error) {
	t.mu.Lock()
	e, ok := t.byName[name]
	t.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	return t.builder.AssetsOf(ctx, e.PolicyName)
}

// Ingest evaluates the named entry's policy against event with a trace
// sink configured per opts, returning the transformed event and
// collected trace lines. The entry's LastTrace is updated on success,
// for persistence by the orchestrator on Stop.
func (t *Tester) Ingest(ctx context.Context, event *evalsurface.Event, opts Options) (evalsurface.EvalResult, error) {
	t.mu.Lock()
	e, ok := t.byName[opts.Name]
	t.mu.Unlock()
	if !ok {
		return evalsurface.EvalResult{}, ErrNotFound
	}

	sink := newScopedSink(opts.TraceLevel, opts.AssetFilter)
	result, err := e.policy.Evaluate(ctx, event, sink)
	if err != nil {
		return evalsurface.EvalResult{}, fmt.Errorf("tester: ingest %q: %w", opts.Name, err)
	}
	result.Trace = sink.lines

	t.mu.Lock()
	e.LastTrace = sink.lines
	t.mu.Unlock()

	return result, nil
}
