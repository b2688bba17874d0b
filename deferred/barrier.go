// File: deferred/barrier.go
// Package deferred — Barrier blocks a calling thread on Deferred settlement.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Barrier is the only primitive in htcore that suspends its caller. Per
// the concurrency model, handler code running on a reactor worker must
// never call it — Wait/WaitFor assert they are not running on a worker
// goroutine by calling a predicate the reactor package installs.

package deferred

import (
	"errors"
	"time"
)

// ErrNoInputs is returned by WhenAny called with zero Deferreds.
var ErrNoInputs = errors.New("deferred: whenAny called with no inputs")

// ErrBarrierOnWorker is returned (and the wait aborted) when Wait/WaitFor
// is called from a goroutine the reactor has marked as a worker thread.
var ErrBarrierOnWorker = errors.New("deferred: Barrier.Wait called on a reactor worker goroutine")

// onWorkerThread is set via SetWorkerThreadDetector by the reactor package,
// letting Barrier enforce "handler code never blocks" without an import
// cycle back to package reactor.
var onWorkerThread func() bool

// SetWorkerThreadDetector installs the predicate Barrier uses to detect
// that it is being called from inside a reactor worker's goroutine.
// reactor.New calls this for every Reactor it builds; the latest call wins.
func SetWorkerThreadDetector(fn func() bool) {
	onWorkerThread = fn
}

// Barrier exposes blocking wait semantics over a Deferred, for use by
// callers outside the event loop (tests, a synchronous main function).
type Barrier[T any] struct {
	d *Deferred[T]
}

// NewBarrier wraps d.
func NewBarrier[T any](d *Deferred[T]) *Barrier[T] {
	return &Barrier[T]{d: d}
}

// Wait blocks until d settles, returning its value or error.
func (b *Barrier[T]) Wait() (T, error) {
	if onWorkerThread != nil && onWorkerThread() {
		var zero T
		return zero, ErrBarrierOnWorker
	}
	done := make(chan struct{})
	var v T
	var err error
	b.d.Then(func(val T) {
		v = val
		close(done)
	}, func(e error) {
		err = e
		close(done)
	})
	<-done
	return v, err
}

// WaitFor blocks until d settles or timeout elapses, whichever comes
// first; ok is false on timeout (the Deferred may still settle later).
func (b *Barrier[T]) WaitFor(timeout time.Duration) (v T, err error, ok bool) {
	if onWorkerThread != nil && onWorkerThread() {
		return v, ErrBarrierOnWorker, false
	}
	done := make(chan struct{})
	b.d.Then(func(val T) {
		v = val
		close(done)
	}, func(e error) {
		err = e
		close(done)
	})
	select {
	case <-done:
		return v, err, true
	case <-time.After(timeout):
		return v, nil, false
	}
}
