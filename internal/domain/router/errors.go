package router

import "errors"

var (
	// ErrNotFound is returned when an entry name is unknown to the router.
	ErrNotFound = errors.New("router: entry not found")
	// ErrDuplicateName is returned by AddEntry when the name is already in use.
	ErrDuplicateName = errors.New("router: duplicate entry name")
	// ErrPriorityCollision is returned when a priority would collide with
	// another enabled entry.
	ErrPriorityCollision = errors.New("router: priority collision with an enabled entry")
	// ErrInvalidPriority is returned for a priority outside [1, MaxPriority].
	ErrInvalidPriority = errors.New("router: priority must be in [1, MaxPriority]")
	// ErrNoMatch is returned by Ingest when no enabled entry's filter matched.
	ErrNoMatch = errors.New("router: no entry matched")
)
