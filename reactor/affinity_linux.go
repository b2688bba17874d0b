//go:build linux
// +build linux

// File: reactor/affinity_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CPU pinning via sched_setaffinity(2) through golang.org/x/sys/unix —
// the teacher pins threads with cgo (internal/concurrency/pin_linux.go,
// calling pthread_setaffinity_np/numa_run_on_node); htcore drops the cgo
// dependency since x/sys/unix already exposes the same syscall, and a
// cgo-free build is worth more here than NUMA-node pinning, which the
// design's Reactor.Pin never asked for (CPUSet only).

package reactor

import (
	"golang.org/x/sys/unix"

	"github.com/momentics/htcore/api"
)

func pinCurrentThread(cpus api.CPUSet) {
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		set.Set(cpu)
	}
	_ = unix.SchedSetaffinity(0, &set)
}
