// Package tester implements the sandbox execution path: named entries
// that run a single policy against an event with selectable trace
// capture, independent of the production router's priority/filter
// machinery.
package tester

import "github.com/engine-core/engine/internal/domain/evalsurface"

// State is an entry's enablement.
type State int

const (
	Disabled State = iota
	Enabled
)

// Entry is a tester's public view of one row. ID is stored as given;
// the orchestrator fills it in before fan-out when the caller leaves it
// empty. LastTrace holds the trace
// lines from the most recent Ingest of this entry, persisted by the
// orchestrator on Stop.
type Entry struct {
	ID         string
	Name       string
	PolicyName string
	State      State
	LastTrace  []evalsurface.TraceLine
}

// Options configures one Ingest call.
type Options struct {
	Name        string
	TraceLevel  evalsurface.TraceLevel
	AssetFilter map[string]struct{} // nil = no restriction
}
