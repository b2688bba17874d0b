// File: deferred/deferred.go
// Package deferred implements the Promise/Future continuation machinery
// that ties asynchronous I/O to handler code.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A Deferred[T] is a type-erased-at-the-edges, allocation-backed one-shot
// future. Its core is a tagged variant {pending, fulfilled, rejected}
// behind a mutex, with an append-only FIFO of boxed continuation closures
// processed on settlement — no virtual-dispatch hierarchy, matching the
// design notes' re-architecture of the source's Continuable<T>/Request.
//
// The continuation FIFO is backed by github.com/eapache/queue, the same
// ring-buffer queue the teacher keeps in its executor for a low-contention,
// mutex-guarded buffer of boxed work items; here it holds boxed
// continuation closures instead of tasks.

package deferred

import (
	"sync"

	"github.com/eapache/queue"
)

// state is the settlement state of a Deferred's core.
type state int32

const (
	pending state = iota
	fulfilled
	rejected
)

// Dispatcher lets a continuation be scheduled back onto a specific worker
// instead of running inline on whichever goroutine settles the Deferred.
// reactor.Worker implements this.
type Dispatcher interface {
	// Post enqueues fn to run on the dispatcher's owning worker. Returns
	// false if the dispatcher can no longer accept work (shutting down).
	Post(fn func()) bool
	WorkerIndex() int
}

type continuation[T any] struct {
	onOK       func(T)
	onErr      func(error)
	dispatcher Dispatcher
}

// Deferred represents a value of T that becomes available later. State
// transitions are monotonic: resolve/reject beyond the first call is a
// no-op reported via the returned bool.
type Deferred[T any] struct {
	mu    sync.Mutex
	st    state
	value T
	err   error
	conts *queue.Queue
}

// New creates a pending Deferred[T].
func New[T any]() *Deferred[T] {
	return &Deferred[T]{conts: queue.New()}
}

// Resolved creates a Deferred already fulfilled with v.
func Resolved[T any](v T) *Deferred[T] {
	d := New[T]()
	d.Resolve(v)
	return d
}

// Rejected creates a Deferred already rejected with err.
func Rejected[T any](err error) *Deferred[T] {
	d := New[T]()
	d.Reject(err)
	return d
}

// Resolve fulfills the Deferred with v. Returns false if it was already
// settled — resolving/rejecting more than once is reported, not panicked.
func (d *Deferred[T]) Resolve(v T) bool {
	d.mu.Lock()
	if d.st != pending {
		d.mu.Unlock()
		return false
	}
	d.st = fulfilled
	d.value = v
	pending := d.drainLocked()
	d.mu.Unlock()
	runContinuations(pending, true, v, nil)
	return true
}

// Reject settles the Deferred with err. Returns false if already settled.
func (d *Deferred[T]) Reject(err error) bool {
	d.mu.Lock()
	if d.st != pending {
		d.mu.Unlock()
		return false
	}
	d.st = rejected
	d.err = err
	pending := d.drainLocked()
	d.mu.Unlock()
	var zero T
	runContinuations(pending, false, zero, err)
	return true
}

// drainLocked pops every queued continuation; caller holds d.mu.
func (d *Deferred[T]) drainLocked() []continuation[T] {
	out := make([]continuation[T], 0, d.conts.Length())
	for d.conts.Length() > 0 {
		out = append(out, d.conts.Remove().(continuation[T]))
	}
	return out
}

func runContinuations[T any](conts []continuation[T], ok bool, v T, err error) {
	for _, c := range conts {
		c := c
		invoke := func() {
			if ok {
				if c.onOK != nil {
					c.onOK(v)
				}
			} else {
				if c.onErr != nil {
					c.onErr(err)
				}
			}
		}
		if c.dispatcher != nil {
			if !c.dispatcher.Post(invoke) {
				// dispatcher gone/shutting down: run inline so the
				// continuation is not silently lost.
				invoke()
			}
		} else {
			invoke()
		}
	}
}

// Then registers onOK/onErr, invoked on settlement in registration order.
// If the Deferred is already settled, the applicable callback runs
// immediately, on the calling goroutine. Returns the receiver to allow
// further same-type chaining (e.g. d.Then(a, nil).Then(b, nil)).
func (d *Deferred[T]) Then(onOK func(T), onErr func(error)) *Deferred[T] {
	return d.thenOn(nil, onOK, onErr)
}

// ThenOn is the "deferred flavor" of Then: the continuation runs on the
// given Dispatcher's worker rather than inline on the resolving thread.
func (d *Deferred[T]) ThenOn(disp Dispatcher, onOK func(T), onErr func(error)) *Deferred[T] {
	return d.thenOn(disp, onOK, onErr)
}

func (d *Deferred[T]) thenOn(disp Dispatcher, onOK func(T), onErr func(error)) *Deferred[T] {
	c := continuation[T]{onOK: onOK, onErr: onErr, dispatcher: disp}

	d.mu.Lock()
	if d.st == pending {
		d.conts.Add(c)
		d.mu.Unlock()
		return d
	}
	st, v, err := d.st, d.value, d.err
	d.mu.Unlock()

	runContinuations([]continuation[T]{c}, st == fulfilled, v, err)
	return d
}

// Settled reports whether the Deferred has been resolved or rejected.
func (d *Deferred[T]) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st != pending
}

// Peek returns the settled value/error without blocking; ok is false if
// still pending.
func (d *Deferred[T]) Peek() (v T, err error, ok bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.st == pending {
		return v, nil, false
	}
	return d.value, d.err, true
}
