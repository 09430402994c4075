package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/engine-core/engine/internal/domain/tester"
)

// PostTesterEntry validates, fans AddEntry out to every worker, enables
// on full success, and persists. Testers have no priority to validate.
func (o *Orchestrator) PostTesterEntry(ctx context.Context, e tester.Entry) (err error) {
	start := time.Now()
	defer func() { o.observeFanout("post_tester_entry", start, err) }()
	if err := o.checkNotDiverged(); err != nil {
		return err
	}
	if e.Name == "" || e.PolicyName == "" {
		return ErrEmptyName
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	applied := make([]int, 0, len(o.workers))
	for i, w := range o.workers {
		if err := w.AddTesterEntry(ctx, e); err != nil {
			if rbErr := o.rollbackTesterAdd(ctx, e.Name, applied); rbErr != nil {
				return rbErr
			}
			return fmt.Errorf("post tester entry %q: %w", e.Name, err)
		}
		applied = append(applied, i)
	}

	for _, w := range o.workers {
		if err := w.EnableTesterEntry(ctx, e.Name); err != nil {
			if rbErr := o.rollbackTesterAdd(ctx, e.Name, applied); rbErr != nil {
				return rbErr
			}
			return fmt.Errorf("enable tester entry %q: %w", e.Name, err)
		}
	}

	return o.persistLocked(ctx)
}

// rollbackTesterAdd compensates a partial fan-out. A compensation
// failure latches divergence.
func (o *Orchestrator) rollbackTesterAdd(ctx context.Context, name string, workerIdxs []int) error {
	for _, i := range workerIdxs {
		if err := o.workers[i].RemoveTesterEntry(ctx, name); err != nil {
			return o.diverge(fmt.Errorf("rollback of tester entry %q on worker %d: %w", name, i, err))
		}
	}
	return nil
}

// DeleteTesterEntry removes the named entry from every worker and
// persists.
func (o *Orchestrator) DeleteTesterEntry(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { o.observeFanout("delete_tester_entry", start, err) }()
	if err := o.checkNotDiverged(); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, w := range o.workers {
		if err := w.RemoveTesterEntry(ctx, name); err != nil {
			return o.diverge(fmt.Errorf("delete tester entry %q: %w", name, err))
		}
	}
	return o.persistLocked(ctx)
}

// GetTesterEntry asks any one worker for the named entry.
func (o *Orchestrator) GetTesterEntry(ctx context.Context, name string) (tester.Entry, error) {
	if err := o.checkNotDiverged(); err != nil {
		return tester.Entry{}, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.workers) == 0 {
		return tester.Entry{}, ErrNoWorkers
	}
	return o.workers[0].GetTesterEntry(ctx, name)
}

// ReloadTesterEntry rebuilds the named entry's policy on every worker,
// re-enables it, and persists.
func (o *Orchestrator) ReloadTesterEntry(ctx context.Context, name string) (err error) {
	start := time.Now()
	defer func() { o.observeFanout("reload_tester_entry", start, err) }()
	if err := o.checkNotDiverged(); err != nil {
		return err
	}
	if name == "" {
		return ErrEmptyName
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, w := range o.workers {
		if err := w.RebuildTesterEntry(ctx, name); err != nil {
			return fmt.Errorf("reload tester entry %q: %w", name, err)
		}
	}
	for _, w := range o.workers {
		if err := w.EnableTesterEntry(ctx, name); err != nil {
			return o.diverge(fmt.Errorf("enable tester entry %q after reload: %w", name, err))
		}
	}
	return o.persistLocked(ctx)
}

// GetTesterEntries asks any one worker for every tester entry.
func (o *Orchestrator) GetTesterEntries(ctx context.Context) ([]tester.Entry, error) {
	if err := o.checkNotDiverged(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.workers) == 0 {
		return nil, ErrNoWorkers
	}
	return o.workers[0].GetTesterEntries(ctx)
}

// GetTesterAssets asks any one worker for the named entry's referenced
// asset names.
func (o *Orchestrator) GetTesterAssets(ctx context.Context, name string) (map[string]struct{}, error) {
	if err := o.checkNotDiverged(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.workers) == 0 {
		return nil, ErrNoWorkers
	}
	return o.workers[0].GetTesterAssets(ctx, name)
}
