// File: listener/load_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RUSAGE_THREAD-based CPU sampling. The probe runs on the worker's own
// goroutine, which stays on one OS thread only when the worker is pinned
// (reactor.Worker.Run); on an unpinned worker the sample covers whichever
// OS thread ran the probe.

//go:build linux

package listener

import (
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/reactor"
)

func sampleWorker(w *reactor.Worker) *deferred.Deferred[WorkerSample] {
	out := deferred.New[WorkerSample]()
	posted := w.Post(func() {
		var ru unix.Rusage
		if err := unix.Getrusage(unix.RUSAGE_THREAD, &ru); err != nil {
			out.Reject(err)
			return
		}
		cpu := time.Duration(ru.Utime.Sec)*time.Second +
			time.Duration(ru.Utime.Usec)*time.Microsecond +
			time.Duration(ru.Stime.Sec)*time.Second +
			time.Duration(ru.Stime.Usec)*time.Microsecond
		out.Resolve(WorkerSample{CPUTime: cpu, Wall: time.Now()})
	})
	if !posted {
		out.Reject(api.ErrShutdown)
	}
	return out
}
