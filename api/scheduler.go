// File: api/scheduler.go
// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Scheduler contract for high-precision timed and event-driven job
// execution. The listener's header/body read timeouts do not use it; they
// run on Transport.ArmTimer (listener/timeout.go).

package api

// Scheduler abstracts event/timer scheduling for async/highload loops.
type Scheduler interface {
    // Schedule schedules a callback to be executed after delayNanos.
    Schedule(delayNanos int64, fn func()) (Cancelable, error)

    // Cancel cancels a previously scheduled callback.
    Cancel(c Cancelable) error

    // Now returns monotonic time in nanoseconds.
    Now() int64
}
