// File: reactor/reactor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reactor owns a fixed pool of Workers and implements api.Reactor. It
// replaces the teacher's dummy Reactor (reactor/reactor.go, deleted) and
// its duplicate epoll-only reactors (epoll_reactor.go, reactor_linux.go,
// both deleted) with the single canonical worker-pool design called for
// by the design's own "pick one definition" callout.

package reactor

import (
	"fmt"
	"sync"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
)

// ConnHandlerFactory clones a fresh api.ConnHandler for each worker, per
// the Prototype pattern: handler state never crosses worker boundaries.
type ConnHandlerFactory func() api.ConnHandler

// Reactor is the worker-pool implementation of api.Reactor.
type Reactor struct {
	workers  []*Worker
	handlers []api.ConnHandler
	cpus     []api.CPUSet

	dispatchFn func(workerIndex int, peerFd uintptr, peer any)

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
}

// New creates a Reactor with n workers, each cloned from prototype via
// Prototype.Clone(). cpus may be nil (no pinning) or one CPUSet per worker.
func New(n int, prototype api.ConnHandler, cpus []api.CPUSet) (*Reactor, error) {
	if n <= 0 {
		return nil, fmt.Errorf("reactor: worker count must be positive, got %d", n)
	}
	r := &Reactor{
		workers:  make([]*Worker, n),
		handlers: make([]api.ConnHandler, n),
		cpus:     cpus,
	}
	for i := 0; i < n; i++ {
		w, err := NewWorker(i)
		if err != nil {
			r.closeCreated(i)
			return nil, fmt.Errorf("reactor: worker %d: %w", i, err)
		}
		r.workers[i] = w
		if prototype != nil {
			r.handlers[i] = prototype.Clone().(api.ConnHandler)
		}
	}

	deferred.SetWorkerThreadDetector(r.onWorkerThread)
	return r, nil
}

func (r *Reactor) closeCreated(upto int) {
	for i := 0; i < upto; i++ {
		r.workers[i].Close()
	}
}

// onWorkerThread lets deferred.Barrier refuse to block when called from
// inside one of this Reactor's worker goroutines.
func (r *Reactor) onWorkerThread() bool {
	for _, w := range r.workers {
		if w.IsCurrentGoroutine() {
			return true
		}
	}
	return false
}

// Worker returns the i'th worker, for packages (transport) that need to
// register fds or post continuations directly.
func (r *Reactor) Worker(i int) *Worker {
	if i < 0 || i >= len(r.workers) {
		return nil
	}
	return r.workers[i]
}

// Handler returns the i'th worker's cloned handler instance.
func (r *Reactor) Handler(i int) api.ConnHandler {
	if i < 0 || i >= len(r.handlers) {
		return nil
	}
	return r.handlers[i]
}

// Run starts every worker's event loop and blocks until all have
// stopped (normally via Shutdown called from another goroutine).
func (r *Reactor) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return api.ErrAlreadyRunning
	}
	r.running = true
	r.mu.Unlock()

	errs := make(chan error, len(r.workers))
	for i, w := range r.workers {
		w := w
		var cpus api.CPUSet
		if r.cpus != nil && i < len(r.cpus) {
			cpus = r.cpus[i]
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			errs <- w.Run(cpus)
		}()
	}
	r.wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Shutdown drains and stops every worker, waiting up to grace in total.
func (r *Reactor) Shutdown(grace time.Duration) error {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()

	per := grace / time.Duration(max(1, len(r.workers)))
	var firstErr error
	for _, w := range r.workers {
		if err := w.Shutdown(per); err != nil && firstErr == nil {
			firstErr = err
		}
		w.Close()
	}
	return firstErr
}

// Pin sets the CPUSet a given worker's goroutine should be locked to the
// next time it runs; takes effect from the next Run call.
func (r *Reactor) Pin(workerIndex int, cpus api.CPUSet) error {
	if workerIndex < 0 || workerIndex >= len(r.workers) {
		return api.ErrInvalidArgument
	}
	for len(r.cpus) <= workerIndex {
		r.cpus = append(r.cpus, nil)
	}
	r.cpus[workerIndex] = cpus
	return nil
}

// Dispatch routes peerFd to a worker by fd mod NumWorkers, matching the
// design's fixed fd-to-worker affinity so a connection's reads/writes
// always run on the same single-threaded loop. The hand-off is posted to
// that worker's mailbox, so it runs on the worker's own goroutine.
func (r *Reactor) Dispatch(peerFd uintptr, peer any) error {
	idx := int(peerFd) % len(r.workers)
	if r.dispatchFn != nil {
		fn := r.dispatchFn
		if !r.workers[idx].Post(func() { fn(idx, peerFd, peer) }) {
			return api.ErrShutdown
		}
	}
	return nil
}

// SetDispatchFn installs the callback Dispatch runs on the chosen
// worker; listener.Init wires this to hand the new Peer to that worker's
// Transport.HandleNewPeer.
func (r *Reactor) SetDispatchFn(fn func(workerIndex int, peerFd uintptr, peer any)) {
	r.dispatchFn = fn
}

// NumWorkers returns the worker-pool size.
func (r *Reactor) NumWorkers() int { return len(r.workers) }

// WorkerDispatcher returns the given worker as a deferred.Dispatcher, so
// continuations can be posted back onto its single-threaded loop.
func (r *Reactor) WorkerDispatcher(workerIndex int) deferred.Dispatcher {
	if workerIndex < 0 || workerIndex >= len(r.workers) {
		return nil
	}
	return r.workers[workerIndex]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
