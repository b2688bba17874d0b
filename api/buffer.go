// File: api/buffer.go
// Package api defines Buffer and BufferPool.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Buffer is a pooled byte slice used for the transport's read chunks (the
// parser accumulates a request in its own plain slice). Unlike the teacher's NUMA-segmented
// pool, htcore only needs a flat size-classed pool — there is no NUMA
// placement concern in an HTTP/1.1 parser/writer — so the pool collapses to
// one sync.Pool per size class (see pool/bufferpool.go).

package api

// Buffer is a reusable memory slice obtained from a BufferPool.
type Buffer struct {
	Data []byte
	Pool Releaser
}

// Releaser decouples Buffer from a concrete pool implementation.
type Releaser interface {
	Put(Buffer)
}

// Bytes returns the slice backing this Buffer.
func (b Buffer) Bytes() []byte { return b.Data }

// Copy returns an independent copy of the buffer's contents.
func (b Buffer) Copy() []byte {
	dup := make([]byte, len(b.Data))
	copy(dup, b.Data)
	return dup
}

// Release returns the buffer to its pool; a no-op if Pool is nil.
func (b Buffer) Release() {
	if b.Pool != nil {
		b.Pool.Put(b)
	}
}

// Capacity returns the capacity of the underlying slice.
func (b Buffer) Capacity() int {
	return cap(b.Data)
}

// BufferPool allocates and recycles byte buffers.
type BufferPool interface {
	Get(size int) Buffer
	Put(b Buffer)
	Stats() BufferPoolStats
}

// BufferPoolStats summarizes pool usage for debug/metrics probes.
type BufferPoolStats struct {
	TotalAlloc int64
	TotalFree  int64
	InUse      int64
}
