// File: listener/timeout.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// timeoutTracker rearms a single shared per-worker Transport timer to
// the earliest of possibly many per-peer deadlines, since
// api.Transport.ArmTimer (transport/transport.go) exposes one
// worker-level timer rather than one per connection. Grounded on
// spec.md §4.7/§7's header/body read timeouts ("408 Request Timeout"
// on a connection that stalls mid-request).

package listener

import (
	"sync"
	"time"

	"github.com/momentics/htcore/api"
)

type timeoutTracker struct {
	transport api.Transport

	mu        sync.Mutex
	deadlines map[uintptr]time.Time

	onExpire func(fd uintptr)
}

func newTimeoutTracker(onExpire func(fd uintptr)) *timeoutTracker {
	return &timeoutTracker{deadlines: make(map[uintptr]time.Time), onExpire: onExpire}
}

func (tt *timeoutTracker) bind(t api.Transport) { tt.transport = t }

// arm (re)sets fd's deadline, replacing any previous one for the same
// fd, and rearms the shared timer if this is now the soonest deadline.
func (tt *timeoutTracker) arm(fd uintptr, d time.Duration) {
	tt.mu.Lock()
	tt.deadlines[fd] = time.Now().Add(d)
	tt.mu.Unlock()
	tt.rearm()
}

// disarm clears fd's deadline (the operation it was guarding finished).
func (tt *timeoutTracker) disarm(fd uintptr) {
	tt.mu.Lock()
	delete(tt.deadlines, fd)
	tt.mu.Unlock()
	tt.rearm()
}

func (tt *timeoutTracker) rearm() {
	tt.mu.Lock()
	var soonest time.Time
	found := false
	for _, dl := range tt.deadlines {
		if !found || dl.Before(soonest) {
			soonest, found = dl, true
		}
	}
	tt.mu.Unlock()

	if tt.transport == nil {
		return
	}
	if !found {
		_ = tt.transport.DisarmTimer()
		return
	}
	wait := time.Until(soonest)
	if wait <= 0 {
		// A zero duration would disarm the timer; fire as soon as possible.
		wait = time.Nanosecond
	}
	tt.transport.ArmTimer(wait).Then(func(uint64) { tt.fire() }, nil)
}

// fire runs when the shared timer expires: every fd whose deadline has
// passed is reported to onExpire, then the timer is rearmed for
// whatever deadlines remain.
func (tt *timeoutTracker) fire() {
	now := time.Now()
	var expired []uintptr

	tt.mu.Lock()
	for fd, dl := range tt.deadlines {
		if !dl.After(now) {
			expired = append(expired, fd)
		}
	}
	for _, fd := range expired {
		delete(tt.deadlines, fd)
	}
	tt.mu.Unlock()

	for _, fd := range expired {
		tt.onExpire(fd)
	}
	tt.rearm()
}
