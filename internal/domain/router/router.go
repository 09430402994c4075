package router

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/engine-core/engine/internal/domain/evalsurface"
)

type entry struct {
	Entry
	policy evalsurface.Policy
	filter evalsurface.Filter
}

// Router holds one production dispatch table. A Router is confined to a
// single worker goroutine by convention, but the mutex makes it safe to
// inspect (GetEntry/GetEntries) from other goroutines as well, which
// tests and the orchestrator's "ask any one worker" reads rely on.
type Router struct {
	builder evalsurface.Builder

	mu      sync.Mutex
	byName  map[string]*entry
	ordered []*entry // kept sorted ascending by Priority
}

// New creates a Router backed by builder.
func New(builder evalsurface.Builder) *Router {
	return &Router{
		builder: builder,
		byName:  make(map[string]*entry),
	}
}

// AddEntry builds the named policy and filter and inserts a new,
// initially Disabled entry in priority order. The name must be unique
// across the router and the priority must be in [1, MaxPriority].
// AddEntry does not check the priority against other entries, enabled
// or not; a collision with an enabled entry is rejected by EnableEntry
// and ChangePriority.
func (r *Router) AddEntry(ctx context.Context, e Entry) error {
	if e.Priority < 1 || e.Priority > MaxPriority {
		return ErrInvalidPriority
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[e.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateName, e.Name)
	}

	pol, err := r.builder.BuildPolicy(ctx, e.PolicyName)
	if err != nil {
		return fmt.Errorf("router: build policy for %q: %w", e.Name, err)
	}
	filt, err := r.builder.BuildFilter(ctx, e.FilterName)
	if err != nil {
		return fmt.Errorf("router: build filter for %q: %w", e.Name, err)
	}

	e.State = Disabled
	ne := &entry{Entry: e, policy: pol, filter: filt}
	r.byName[e.Name] = ne
	r.ordered = append(r.ordered, ne)
	r.sortLocked()
	return nil
}

// RemoveEntry deletes the named entry. Removing an unknown name is a
// no-op success, matching idempotent admin semantics used elsewhere in
// this module (ChangePriority re-issue, orchestrator rollback deletes).
func (r *Router) RemoveEntry(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; !exists {
		return nil
	}
	delete(r.byName, name)
	for i, e := range r.ordered {
		if e.Name == name {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return nil
}

// GetEntry returns a snapshot of the named entry.
func (r *Router) GetEntry(name string) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[name]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e.Entry, nil
}

// EnableEntry transitions Disabled -> Enabled, rejecting the transition
// if another enabled entry already holds the same priority.
func (r *Router) EnableEntry(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[name]
	if !ok {
		return ErrNotFound
	}
	if e.State == Enabled {
		return nil
	}
	if r.collidesLocked(name, e.Priority) {
		return ErrPriorityCollision
	}
	e.State = Enabled
	return nil
}

// RebuildEntry re-invokes the builder for the named entry's policy and
// filter, atomically swapping the compiled callables on success. Order
// and enablement are preserved. On builder failure the old callables are
// left in place and the error is surfaced.
func (r *Router) RebuildEntry(ctx context.Context, name string) error {
	r.mu.Lock()
	e, ok := r.byName[name]
	r.mu.Unlock()
	if !ok {
		return ErrNotFound
	}

	pol, err := r.builder.BuildPolicy(ctx, e.PolicyName)
	if err != nil {
		return fmt.Errorf("router: rebuild policy for %q: %w", name, err)
	}
	filt, err := r.builder.BuildFilter(ctx, e.FilterName)
	if err != nil {
		return fmt.Errorf("router: rebuild filter for %q: %w", name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e.policy, e.filter = pol, filt
	return nil
}

// ChangePriority moves the named entry to newPriority, rejecting the
// change on collision with another enabled entry. Re-issuing the same
// (name, priority) pair is a no-op success (idempotent).
func (r *Router) ChangePriority(name string, newPriority int) error {
	if newPriority < 1 || newPriority > MaxPriority {
		return ErrInvalidPriority
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byName[name]
	if !ok {
		return ErrNotFound
	}
	if e.Priority == newPriority {
		return nil
	}
	if r.collidesLocked(name, newPriority) {
		return ErrPriorityCollision
	}
	e.Priority = newPriority
	r.sortLocked()
	return nil
}

// GetEntries returns a priority-ordered snapshot of every entry.
func (r *Router) GetEntries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.ordered))
	for i, e := range r.ordered {
		out[i] = e.Entry
	}
	return out
}

// Ingest walks entries in priority order; for each Enabled entry it
// calls filter.Matches, and on the first match invokes policy.Evaluate
// and stops. ErrNoMatch is returned (not a fatal error) when nothing
// matches.
func (r *Router) Ingest(ctx context.Context, event *evalsurface.Event) (evalsurface.EvalResult, error) {
	r.mu.Lock()
	candidates := make([]*entry, 0, len(r.ordered))
	for _, e := range r.ordered {
		if e.State == Enabled {
			candidates = append(candidates, e)
		}
	}
	r.mu.Unlock()

	for _, e := range candidates {
		if e.filter.Matches(ctx, event) {
			return e.policy.Evaluate(ctx, event, nil)
		}
	}
	return evalsurface.EvalResult{}, ErrNoMatch
}

// collidesLocked reports whether priority is already held by an Enabled
// entry other than excludeName. Caller must hold r.mu.
func (r *Router) collidesLocked(excludeName string, priority int) bool {
	for _, e := range r.ordered {
		if e.Name == excludeName {
			continue
		}
		if e.State == Enabled && e.Priority == priority {
			return true
		}
	}
	return false
}

func (r *Router) sortLocked() {
	sort.SliceStable(r.ordered, func(i, j int) bool {
		return r.ordered[i].Priority < r.ordered[j].Priority
	})
}
