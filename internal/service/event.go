package service

import (
	"context"
	"fmt"

	"github.com/engine-core/engine/internal/domain/evalsurface"
	"github.com/engine-core/engine/internal/domain/tester"
)

// PostStrEvent parses the wazuh wire frame, dispatches the resulting
// event to the least-busy worker, and returns its evaluation result.
// Dispatch picks a worker without holding the admin mutex: event
// throughput must not wait behind a slow admin fan-out, and ordering
// across workers is not required (each worker handles its own entries
// independently).
func (o *Orchestrator) PostStrEvent(ctx context.Context, raw string) (evalsurface.EvalResult, error) {
	if err := o.checkNotDiverged(); err != nil {
		return evalsurface.EvalResult{}, err
	}

	queue, location, log, err := parseWazuhFrame(raw)
	if err != nil {
		if o.metrics != nil {
			o.metrics.EventsIngestedTotal.WithLabelValues("protocol_error").Inc()
		}
		return evalsurface.EvalResult{}, err
	}

	w, err := o.leastBusy()
	if err != nil {
		return evalsurface.EvalResult{}, err
	}

	event := &evalsurface.Event{Queue: queue, Location: location, Raw: log}
	result, err := w.PostEvent(ctx, event)
	if o.metrics != nil {
		if err != nil {
			o.metrics.EventsIngestedTotal.WithLabelValues("dispatch_error").Inc()
		} else {
			o.metrics.EventsIngestedTotal.WithLabelValues("dispatched").Inc()
		}
	}
	if err != nil {
		return evalsurface.EvalResult{}, fmt.Errorf("post event: %w", err)
	}
	return result, nil
}

// IngestTest parses the wire frame and runs it through the named tester
// entry on the least-busy worker, bounded by the configured test
// timeout. A timeout returns ErrTestTimeout without waiting further for
// the worker (the worker's own goroutine keeps running the evaluation
// to completion; only this call gives up on it).
func (o *Orchestrator) IngestTest(ctx context.Context, raw string, opts tester.Options) (evalsurface.EvalResult, error) {
	if err := o.checkNotDiverged(); err != nil {
		return evalsurface.EvalResult{}, err
	}
	if opts.Name == "" {
		return evalsurface.EvalResult{}, ErrEmptyName
	}

	queue, location, log, err := parseWazuhFrame(raw)
	if err != nil {
		return evalsurface.EvalResult{}, err
	}

	w, err := o.leastBusy()
	if err != nil {
		return evalsurface.EvalResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, o.testTimeout)
	defer cancel()

	event := &evalsurface.Event{Queue: queue, Location: location, Raw: log}
	type outcome struct {
		result evalsurface.EvalResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		r, err := w.IngestTest(ctx, event, opts)
		done <- outcome{r, err}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			return res.result, nil
		}
		// A worker that failed because the deadline passed is reported
		// as a timeout, the same as the ctx.Done branch.
		if ctx.Err() == nil {
			return evalsurface.EvalResult{}, fmt.Errorf("ingest test %q: %w", opts.Name, res.err)
		}
	case <-ctx.Done():
	}
	if o.metrics != nil {
		o.metrics.TestTimeoutsTotal.Inc()
	}
	return evalsurface.EvalResult{}, fmt.Errorf("%w: %q after %s", ErrTestTimeout, opts.Name, o.testTimeout)
}
