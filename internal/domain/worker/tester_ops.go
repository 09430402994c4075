package worker

import (
	"context"

	"github.com/engine-core/engine/internal/domain/evalsurface"
	"github.com/engine-core/engine/internal/domain/tester"
)

type testerEntryResult struct {
	entry tester.Entry
	err   error
}

type testerEntriesResult struct {
	entries []tester.Entry
}

type assetsResult struct {
	assets map[string]struct{}
	err    error
}

type evalResultAndErr struct {
	result evalsurface.EvalResult
	err    error
}

// AddTesterEntry runs Tester.AddEntry on the worker goroutine.
func (w *Worker) AddTesterEntry(ctx context.Context, e tester.Entry) error {
	return onlyErr(call(w, ctx, func() error { return w.Tester.AddEntry(ctx, e) }))
}

// RemoveTesterEntry runs Tester.RemoveEntry on the worker goroutine.
func (w *Worker) RemoveTesterEntry(ctx context.Context, name string) error {
	return onlyErr(call(w, ctx, func() error { return w.Tester.RemoveEntry(name) }))
}

// GetTesterEntry runs Tester.GetEntry on the worker goroutine.
func (w *Worker) GetTesterEntry(ctx context.Context, name string) (tester.Entry, error) {
	res, err := call(w, ctx, func() testerEntryResult {
		e, gerr := w.Tester.GetEntry(name)
		return testerEntryResult{entry: e, err: gerr}
	})
	if err != nil {
		return tester.Entry{}, err
	}
	return res.entry, res.err
}

// EnableTesterEntry runs Tester.EnableEntry on the worker goroutine.
func (w *Worker) EnableTesterEntry(ctx context.Context, name string) error {
	return onlyErr(call(w, ctx, func() error { return w.Tester.EnableEntry(name) }))
}

// RebuildTesterEntry runs Tester.RebuildEntry on the worker goroutine.
func (w *Worker) RebuildTesterEntry(ctx context.Context, name string) error {
	return onlyErr(call(w, ctx, func() error { return w.Tester.RebuildEntry(ctx, name) }))
}

// GetTesterEntries runs Tester.GetEntries on the worker goroutine.
func (w *Worker) GetTesterEntries(ctx context.Context) ([]tester.Entry, error) {
	res, err := call(w, ctx, func() testerEntriesResult {
		return testerEntriesResult{entries: w.Tester.GetEntries()}
	})
	if err != nil {
		return nil, err
	}
	return res.entries, nil
}

// GetTesterAssets runs Tester.GetAssets on the worker goroutine.
func (w *Worker) GetTesterAssets(ctx context.Context, name string) (map[string]struct{}, error) {
	res, err := call(w, ctx, func() assetsResult {
		a, gerr := w.Tester.GetAssets(ctx, name)
		return assetsResult{assets: a, err: gerr}
	})
	if err != nil {
		return nil, err
	}
	return res.assets, res.err
}

// IngestTest runs Tester.Ingest on the worker goroutine.
func (w *Worker) IngestTest(ctx context.Context, event *evalsurface.Event, opts tester.Options) (evalsurface.EvalResult, error) {
	res, err := call(w, ctx, func() evalResultAndErr {
		r, gerr := w.Tester.Ingest(ctx, event, opts)
		return evalResultAndErr{result: r, err: gerr}
	})
	if err != nil {
		return evalsurface.EvalResult{}, err
	}
	return res.result, res.err
}
