// Package router implements the production dispatch path: a
// priority-ordered, filter-gated set of policy entries. Exactly one
// Router instance is owned by each worker; the orchestrator keeps every
// worker's router in lockstep by fanning out identical admin calls.
package router

// MaxPriority is the highest legal priority value. 0 is reserved and
// invalid: a router entry's priority must be in [1, MaxPriority].
const MaxPriority = 65535

// State is an entry's enablement.
type State int

const (
	Disabled State = iota
	Enabled
)

// Entry is a router's public, builder-independent view of one row. ID
// is stored as given; the orchestrator fills it in before fan-out when
// the caller leaves it empty.
type Entry struct {
	ID         string
	Name       string
	PolicyName string
	FilterName string
	Priority   int
	State      State
}
