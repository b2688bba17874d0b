// File: reactor/worker.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker is the single-threaded event loop that owns exactly one Poller
// and one Mailbox, per the design's "N worker OS threads, each owning
// exactly one Poller + one Mailbox" rule. Grounded on the teacher's
// EventLoop (internal/concurrency/eventloop.go) for the run-loop shape
// and on executor.go for the worker-goroutine/stop-channel pattern,
// generalized from a fixed event ring to Poller-driven dispatch and from
// anonymous EventHandlers to a per-fd callback table keyed by api.Tag.

package reactor

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/momentics/htcore/api"
)

type fdCallback struct {
	onEvent func(api.Event)
}

// Worker drives one Poller and one Mailbox on a dedicated goroutine
// (optionally pinned to an OS thread via runtime.LockOSThread).
type Worker struct {
	index int
	state atomic.Int32

	poller  api.Poller
	notify  api.NotifyFd
	mailbox *Mailbox

	mu        sync.RWMutex
	callbacks map[uintptr]fdCallback

	goroutineID atomic.Uint64

	stop chan struct{}
	done chan struct{}
}

// NewWorker constructs a Worker with its own Poller and Mailbox, index
// identifying it within the owning Reactor's worker slice.
func NewWorker(index int) (*Worker, error) {
	poller, err := NewPoller()
	if err != nil {
		return nil, err
	}
	notify, err := NewNotifyFd()
	if err != nil {
		poller.Close()
		return nil, err
	}
	mailbox := NewMailbox(4096, notify)

	w := &Worker{
		index:     index,
		poller:    poller,
		notify:    notify,
		mailbox:   mailbox,
		callbacks: make(map[uintptr]fdCallback),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	w.state.Store(int32(api.WorkerCreated))

	if err := poller.Add(notify.Fd(), api.InterestRead, 0, api.LevelTriggered); err != nil {
		poller.Close()
		notify.Close()
		return nil, err
	}
	return w, nil
}

// Index returns the worker's position in the Reactor's worker slice.
func (w *Worker) Index() int { return w.index }

// WorkerIndex implements deferred.Dispatcher.
func (w *Worker) WorkerIndex() int { return w.index }

// State reports the worker's current lifecycle state.
func (w *Worker) State() api.WorkerState { return api.WorkerState(w.state.Load()) }

// IsCurrentGoroutine reports whether the calling goroutine is this
// worker's own Run loop goroutine.
func (w *Worker) IsCurrentGoroutine() bool {
	return w.State() == api.WorkerRunning && w.goroutineID.Load() == currentGoroutineID()
}

// Post implements deferred.Dispatcher: it posts fn to run on this
// worker's own goroutine via its Mailbox.
func (w *Worker) Post(fn func()) bool {
	if w.State() == api.WorkerStopped {
		return false
	}
	return w.mailbox.Post(fn)
}

// RegisterFd adds fd to this worker's Poller with onEvent invoked from
// the worker's own goroutine whenever fd becomes ready.
func (w *Worker) RegisterFd(fd uintptr, interest api.Interest, mode api.Mode, onEvent func(api.Event)) error {
	tag := api.Tag(fd)
	w.mu.Lock()
	w.callbacks[fd] = fdCallback{onEvent: onEvent}
	w.mu.Unlock()
	if err := w.poller.Add(fd, interest, tag, mode); err != nil {
		w.mu.Lock()
		delete(w.callbacks, fd)
		w.mu.Unlock()
		return err
	}
	return nil
}

// ModifyFd updates an existing registration's interest/mode.
func (w *Worker) ModifyFd(fd uintptr, interest api.Interest, mode api.Mode) error {
	return w.poller.Modify(fd, interest, api.Tag(fd), mode)
}

// UnregisterFd removes fd from the worker's Poller and callback table.
func (w *Worker) UnregisterFd(fd uintptr) error {
	w.mu.Lock()
	delete(w.callbacks, fd)
	w.mu.Unlock()
	return w.poller.Remove(fd)
}

// Run blocks, driving the event loop until Shutdown is called. Callers
// typically invoke Run on a goroutine per worker.
func (w *Worker) Run(pin api.CPUSet) error {
	if len(pin) > 0 {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		pinCurrentThread(pin)
	}

	w.goroutineID.Store(currentGoroutineID())
	w.state.Store(int32(api.WorkerRunning))
	defer close(w.done)

	events := make([]api.Event, 256)
	for {
		select {
		case <-w.stop:
			w.state.Store(int32(api.WorkerStopped))
			return nil
		default:
		}

		n, err := w.poller.Wait(events, 250*time.Millisecond)
		if err != nil {
			continue
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			if ev.Fd == w.notify.Fd() {
				w.notify.Drain()
				for _, fn := range w.mailbox.Drain() {
					fn()
				}
				continue
			}
			w.mu.RLock()
			cb, ok := w.callbacks[ev.Fd]
			w.mu.RUnlock()
			if ok && cb.onEvent != nil {
				cb.onEvent(ev)
			}
		}
	}
}

// Shutdown signals the worker's loop to stop and waits up to grace for
// it to do so; entering the Draining state first so in-flight callbacks
// can observe it and stop accepting new work.
func (w *Worker) Shutdown(grace time.Duration) error {
	w.state.Store(int32(api.WorkerDraining))
	close(w.stop)
	select {
	case <-w.done:
		return nil
	case <-time.After(grace):
		return api.ErrOperationTimeout
	}
}

// Close releases the worker's Poller and NotifyFd.
func (w *Worker) Close() error {
	w.poller.Close()
	return w.notify.Close()
}
