// File: listener/load_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable load sampling fallback: RUSAGE_THREAD has no portable
// equivalent outside Linux, so non-Linux builds report a zero CPU-time
// sample (the wall-clock delta still flows through, so callers see 0%
// rather than a crash or a misleading number).

//go:build !linux

package listener

import (
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/reactor"
)

func sampleWorker(w *reactor.Worker) *deferred.Deferred[WorkerSample] {
	out := deferred.New[WorkerSample]()
	if !w.Post(func() { out.Resolve(WorkerSample{Wall: time.Now()}) }) {
		out.Reject(api.ErrShutdown)
	}
	return out
}
