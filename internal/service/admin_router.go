package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/engine-core/engine/internal/domain/router"
)

// PostRouterEntry validates, fans AddEntry out to every worker, enables
// the entry on every worker on full success, and persists. A partial
// fan-out failure rolls back (RemoveEntry) on the workers that already
// applied the change.
func (o *Orchestrator) PostRouterEntry(ctx context.Context, e router.Entry) (err error) {
	start := time.Now()
	defer func() { o.observeFanout("post_router_entry", start, err) }()
	if err := o.checkNotDiverged(); err != nil {
		return err
	}
	if e.Name == "" || e.PolicyName == "" || e.FilterName == "" {
		return ErrEmptyName
	}
	if e.Priority <= 0 {
		return ErrInvalidPriority
	}
	// The ID is minted here, once, so every worker stores the same row.
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	applied := make([]int, 0, len(o.workers))
	for i, w := range o.workers {
		if err := w.AddRouterEntry(ctx, e); err != nil {
			if rbErr := o.rollbackRouterAdd(ctx, e.Name, applied); rbErr != nil {
				return rbErr
			}
			return fmt.Errorf("post router entry %q: %w", e.Name, err)
		}
		applied = append(applied, i)
	}

	for _, w := range o.workers {
		if err := w.EnableRouterEntry(ctx, e.Name); err != nil {
			if rbErr := o.rollbackRouterAdd(ctx, e.Name, applied); rbErr != nil {
				return rbErr
			}
			return fmt.Errorf("enable router entry %q: %w", e.Name, err)
		}
	}

	return o.persistLocked(ctx)
}

// rollbackRouterAdd compensates a partial fan-out by removing the entry
// from every worker that applied it. RemoveEntry is a no-op success on
// an unknown name, so it is safe on every worker that reached the add
// step regardless of whether enable was also reached. A compensation
// failure latches divergence: workers now disagree.
func (o *Orchestrator) rollbackRouterAdd(ctx context.Context, name string, workerIdxs []int) error {
	for _, i := range workerIdxs {
		if err := o.workers[i].RemoveRouterEntry(ctx, name); err != nil {
			return o.diverge(fmt.Errorf("rollback of router entry %q on worker %d: %w", name, i, err))
		}
	}
	return nil
}

// DeleteRouterEntry removes the named entry from every worker and
// persists the resulting state.
func (o *Orchestrator) DeleteRouterEntry(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { o.observeFanout("delete_router_entry", start, err) }()
	if err := o.checkNotDiverged(); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, w := range o.workers {
		if err := w.RemoveRouterEntry(ctx, name); err != nil {
			return o.diverge(fmt.Errorf("delete router entry %q: %w", name, err))
		}
	}
	return o.persistLocked(ctx)
}

// GetRouterEntry asks any one worker for the named entry (all workers
// agree by construction).
func (o *Orchestrator) GetRouterEntry(ctx context.Context, name string) (router.Entry, error) {
	if err := o.checkNotDiverged(); err != nil {
		return router.Entry{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.workers) == 0 {
		return router.Entry{}, ErrNoWorkers
	}
	return o.workers[0].GetRouterEntry(ctx, name)
}

// ReloadRouterEntry rebuilds the named entry's policy and filter on
// every worker, re-enables it, and persists.
func (o *Orchestrator) ReloadRouterEntry(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { o.observeFanout("reload_router_entry", start, err) }()
	if err := o.checkNotDiverged(); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, w := range o.workers {
		if err := w.RebuildRouterEntry(ctx, name); err != nil {
			// RebuildEntry leaves the prior callables in place on its
			// own failure, so a single worker's failure
			// does not itself create divergence — but workers already
			// rebuilt before this one now run different callables than
			// the remaining workers, until a subsequent reload succeeds.
			return fmt.Errorf("reload router entry %q: %w", name, err)
		}
	}
	for _, w := range o.workers {
		if err := w.EnableRouterEntry(ctx, name); err != nil {
			return o.diverge(fmt.Errorf("enable router entry %q after reload: %w", name, err))
		}
	}
	return o.persistLocked(ctx)
}

// ChangeEntryPriority fans a priority change out to every worker and
// persists. Re-issuing the same call is idempotent because
// Router.ChangePriority is.
func (o *Orchestrator) ChangeEntryPriority(ctx context.Context, name string, priority int) (err error) {
	start := time.Now()
	defer func() { o.observeFanout("change_entry_priority", start, err) }()
	if err := o.checkNotDiverged(); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName
	}
	if priority <= 0 {
		return ErrInvalidPriority
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, w := range o.workers {
		if err := w.ChangeRouterPriority(ctx, name, priority); err != nil {
			return fmt.Errorf("change priority of %q: %w", name, err)
		}
	}
	return o.persistLocked(ctx)
}

// GetRouterEntries asks any one worker for the full ordered entry list.
func (o *Orchestrator) GetRouterEntries(ctx context.Context) ([]router.Entry, error) {
	if err := o.checkNotDiverged(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.workers) == 0 {
		return nil, ErrNoWorkers
	}
	return o.workers[0].GetRouterEntries(ctx)
}
