// Package domain provides the simulation entities, domain level errors & the messages exchanged between services.
package domain

import "errors"

var (
	// ErrUnsupportedPolicy is a fatal configuration error: no comparator can be bound.
	ErrUnsupportedPolicy = errors.New("unsupported scheduling policy")
	// ErrInvalidCoreCount is returned when a scheduler is started with fewer than one core.
	ErrInvalidCoreCount = errors.New("core count must be positive")
	// ErrCoreOutOfRange is returned for a core id outside [0, cores).
	ErrCoreOutOfRange = errors.New("core id out of range")
	// ErrCoreIdle is returned when an event names a core that holds no job.
	ErrCoreIdle = errors.New("core is idle")
	// ErrJobMismatch is returned when an event names a job other than the core's occupant.
	ErrJobMismatch = errors.New("job is not running on core")
	// ErrNotRoundRobin is returned for quantum events under a non-RR policy.
	ErrNotRoundRobin = errors.New("quantum expiry requires round robin")

	// ErrInvalidWorkload wraps every workload validation failure.
	ErrInvalidWorkload = errors.New("invalid workload")
	// ErrRunNotFound is returned by repositories for unknown run ids.
	ErrRunNotFound = errors.New("simulation run not found")
)
