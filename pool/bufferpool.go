// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Flat, sync.Pool-backed BufferPool. Grounded on the teacher's
// pool/bufferpool_linux.go Get/Put/Release cycle (sync.Pool wrapping a
// recycled byte slice), with the NUMA-node keying stripped out: nothing
// in SPEC_FULL.md places connections on particular NUMA nodes, so one
// pool bucketed by size class replaces the teacher's map-of-pools-per-node.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/htcore/api"
)

// sizeClasses mirrors common HTTP buffer needs: a small header-parsing
// buffer and larger body/streaming buffers.
var sizeClasses = []int{4 << 10, 16 << 10, 64 << 10}

// BufferPool implements api.BufferPool with one sync.Pool per size class;
// a request larger than the biggest class is allocated directly and never
// pooled.
type BufferPool struct {
	pools [len(sizeClasses)]sync.Pool

	alloc int64
	free  int64
	inUse int64
}

// New creates an empty BufferPool.
func New() *BufferPool {
	bp := &BufferPool{}
	for i, sz := range sizeClasses {
		sz := sz
		bp.pools[i].New = func() any {
			return make([]byte, sz)
		}
	}
	return bp
}

func classFor(size int) int {
	for i, sz := range sizeClasses {
		if size <= sz {
			return i
		}
	}
	return -1
}

// Get returns a Buffer with at least size bytes of capacity.
func (bp *BufferPool) Get(size int) api.Buffer {
	atomic.AddInt64(&bp.alloc, 1)
	atomic.AddInt64(&bp.inUse, 1)

	class := classFor(size)
	if class < 0 {
		return api.Buffer{Data: make([]byte, size), Pool: bp}
	}
	buf := bp.pools[class].Get().([]byte)
	if cap(buf) < size {
		buf = make([]byte, sizeClasses[class])
	}
	return api.Buffer{Data: buf[:size], Pool: bp}
}

// Put returns b's backing slice to its size class, if it has one.
func (bp *BufferPool) Put(b api.Buffer) {
	atomic.AddInt64(&bp.free, 1)
	atomic.AddInt64(&bp.inUse, -1)

	class := classFor(cap(b.Data))
	if class < 0 {
		return
	}
	// Reset length to the class's full capacity before returning so the
	// next Get sees the pool's real capacity, not a shrunk slice.
	full := b.Data[:cap(b.Data)]
	bp.pools[class].Put(full)
}

// Stats reports allocation/free/in-use counters, sampled non-atomically
// relative to each other (a snapshot, not a transaction).
func (bp *BufferPool) Stats() api.BufferPoolStats {
	return api.BufferPoolStats{
		TotalAlloc: atomic.LoadInt64(&bp.alloc),
		TotalFree:  atomic.LoadInt64(&bp.free),
		InUse:      atomic.LoadInt64(&bp.inUse),
	}
}
