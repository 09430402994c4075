package worker

import "errors"

// ErrStopped is returned by any Worker method called after Stop has been
// invoked. Work already queued when Stop is called still runs and
// completes with its own result.
var ErrStopped = errors.New("worker: stopped")
