package worker

import (
	"context"

	"github.com/engine-core/engine/internal/domain/evalsurface"
)

// PostEvent runs Router.Ingest on the worker goroutine: the production
// event dispatch path.
func (w *Worker) PostEvent(ctx context.Context, event *evalsurface.Event) (evalsurface.EvalResult, error) {
	res, err := call(w, ctx, func() evalResultAndErr {
		r, gerr := w.Router.Ingest(ctx, event)
		return evalResultAndErr{result: r, err: gerr}
	})
	if err != nil {
		return evalsurface.EvalResult{}, err
	}
	return res.result, res.err
}

// QueueDepth reports the number of work items currently queued, used by
// the orchestrator to pick the least-busy worker for event dispatch.
// It is a snapshot, not a guarantee: workers may drain or fill between
// the read and the subsequent submit.
func (w *Worker) QueueDepth() int {
	return len(w.inbox)
}
