// File: api/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Defines the abstract interface for the worker-pool Reactor: a pool of
// OS threads, each running a single-threaded event loop over a Poller and
// a Mailbox. The Reactor dispatches Handler instances to workers.

package api

import (
	"time"

	"github.com/momentics/htcore/deferred"
)

// CPUSet is a best-effort affinity request; an empty set means "no pinning".
type CPUSet []int

// Prototype is implemented by Handler instances the Reactor clones, one
// copy per worker, so that each worker's handler state is private.
type Prototype interface {
	Clone() any
}

// Reactor owns N worker threads, each with its own Poller and Mailbox.
type Reactor interface {
	// Run starts the worker threads and blocks until they have all
	// stopped. Init-time worker creation happens in the concrete
	// constructor.
	Run() error
	// Shutdown signals every worker's loop to stop and blocks until all
	// workers have exited, subject to a grace period for in-flight peers.
	Shutdown(grace time.Duration) error
	// Pin requests best-effort CPU affinity for a worker.
	Pin(workerIndex int, cpus CPUSet) error
	// Dispatch selects a worker (by fd hash) and hands it a new peer via
	// the worker's mailbox.
	Dispatch(peerFd uintptr, peer any) error
	// NumWorkers returns the configured worker count.
	NumWorkers() int
	// WorkerDispatcher exposes the deferred.Dispatcher for a given worker
	// index, so callers (e.g. Transport) can schedule continuations to run
	// on that worker.
	WorkerDispatcher(workerIndex int) deferred.Dispatcher
}
