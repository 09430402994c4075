package worker

import (
	"context"

	"github.com/engine-core/engine/internal/domain/router"
)

type entryResult struct {
	entry router.Entry
	err   error
}

type entriesResult struct {
	entries []router.Entry
}

// AddRouterEntry runs Router.AddEntry on the worker goroutine.
func (w *Worker) AddRouterEntry(ctx context.Context, e router.Entry) error {
	return onlyErr(call(w, ctx, func() error { return w.Router.AddEntry(ctx, e) }))
}

// RemoveRouterEntry runs Router.RemoveEntry on the worker goroutine.
func (w *Worker) RemoveRouterEntry(ctx context.Context, name string) error {
	return onlyErr(call(w, ctx, func() error { return w.Router.RemoveEntry(name) }))
}

// GetRouterEntry runs Router.GetEntry on the worker goroutine.
func (w *Worker) GetRouterEntry(ctx context.Context, name string) (router.Entry, error) {
	res, err := call(w, ctx, func() entryResult {
		e, gerr := w.Router.GetEntry(name)
		return entryResult{entry: e, err: gerr}
	})
	if err != nil {
		return router.Entry{}, err
	}
	return res.entry, res.err
}

// EnableRouterEntry runs Router.EnableEntry on the worker goroutine.
func (w *Worker) EnableRouterEntry(ctx context.Context, name string) error {
	return onlyErr(call(w, ctx, func() error { return w.Router.EnableEntry(name) }))
}

// RebuildRouterEntry runs Router.RebuildEntry on the worker goroutine.
func (w *Worker) RebuildRouterEntry(ctx context.Context, name string) error {
	return onlyErr(call(w, ctx, func() error { return w.Router.RebuildEntry(ctx, name) }))
}

// ChangeRouterPriority runs Router.ChangePriority on the worker goroutine.
func (w *Worker) ChangeRouterPriority(ctx context.Context, name string, priority int) error {
	return onlyErr(call(w, ctx, func() error { return w.Router.ChangePriority(name, priority) }))
}

// GetRouterEntries runs Router.GetEntries on the worker goroutine.
func (w *Worker) GetRouterEntries(ctx context.Context) ([]router.Entry, error) {
	res, err := call(w, ctx, func() entriesResult {
		return entriesResult{entries: w.Router.GetEntries()}
	})
	if err != nil {
		return nil, err
	}
	return res.entries, nil
}

func onlyErr(err, callErr error) error {
	if callErr != nil {
		return callErr
	}
	return err
}
