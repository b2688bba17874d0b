// File: listener/load.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-worker CPU load sampling via RUSAGE_THREAD deltas, grounded on
// original_source/src/io.h's IoWorker::getLoad()/rusage-based load
// computation (spec.md §4.8's requestLoad). Each sample is taken by
// posting a probe onto the worker's own event loop so Getrusage(
// RUSAGE_THREAD, ...) measures that worker's OS thread rather than an
// arbitrary caller's.

package listener

import (
	"time"

	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/reactor"
)

// WorkerSample captures one worker's cumulative CPU time at a point in
// wall-clock time.
type WorkerSample struct {
	CPUTime time.Duration
	Wall    time.Time
}

// Load is a requestLoad result: a CPU-load percentage per worker,
// computed from the deltas between two WorkerSamples.
type Load struct {
	PerWorker []float64
	Samples   []WorkerSample
}

// RequestLoad samples every worker in workers and, if prev is non-nil,
// returns the %CPU load since prev's matching sample; with a nil prev it
// returns a zero-load snapshot meant to seed the next call.
func RequestLoad(workers []*reactor.Worker, prev *Load) *deferred.Deferred[Load] {
	ds := make([]*deferred.Deferred[WorkerSample], len(workers))
	for i, w := range workers {
		ds[i] = sampleWorker(w)
	}
	return deferred.ThenMap(deferred.WhenAll(ds...), func(samples []WorkerSample) (Load, error) {
		load := Load{PerWorker: make([]float64, len(samples)), Samples: samples}
		if prev == nil || len(prev.Samples) != len(samples) {
			return load, nil
		}
		for i, s := range samples {
			wall := s.Wall.Sub(prev.Samples[i].Wall)
			if wall <= 0 {
				continue
			}
			cpu := s.CPUTime - prev.Samples[i].CPUTime
			load.PerWorker[i] = 100 * float64(cpu) / float64(wall)
		}
		return load, nil
	})
}
