// File: reactor/mailbox.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Mailbox is a lock-free MPSC queue of boxed work items paired with a
// NotifyFd, so a worker's Poller wakes as soon as another thread enqueues
// work for it. Grounded on the teacher's Dmitry-Vyukov-style bounded MPMC
// ring (core/concurrency/lock_free_queue.go), narrowed to the
// multi-producer/single-consumer case the reactor actually needs: many
// threads post work to exactly one worker's mailbox.

package reactor

import (
	"sync/atomic"

	"github.com/momentics/htcore/api"
)

type mailboxCell struct {
	sequence atomic.Uint64
	data     func()
}

// Mailbox is a bounded lock-free MPSC queue of closures, pollable via its
// NotifyFd so a worker can multiplex it alongside socket fds in its Poller.
type Mailbox struct {
	head  uint64
	_     [56]byte
	tail  uint64
	_     [56]byte
	mask  uint64
	cells []mailboxCell

	notify api.NotifyFd
}

// NewMailbox creates a Mailbox with capacity rounded up to a power of two,
// backed by notify for wake-up signaling.
func NewMailbox(capacity int, notify api.NotifyFd) *Mailbox {
	if capacity < 2 {
		capacity = 2
	}
	size := 1
	for size < capacity {
		size <<= 1
	}
	m := &Mailbox{
		mask:   uint64(size - 1),
		cells:  make([]mailboxCell, size),
		notify: notify,
	}
	for i := range m.cells {
		m.cells[i].sequence.Store(uint64(i))
	}
	return m
}

// Post enqueues fn, waking the mailbox's owning worker. Returns false if
// the mailbox is full (the caller should retry or treat it as backpressure).
func (m *Mailbox) Post(fn func()) bool {
	for {
		tail := atomic.LoadUint64(&m.tail)
		idx := tail & m.mask
		c := &m.cells[idx]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(tail)

		if dif == 0 {
			if atomic.CompareAndSwapUint64(&m.tail, tail, tail+1) {
				c.data = fn
				c.sequence.Store(tail + 1)
				if m.notify != nil {
					_ = m.notify.Notify()
				}
				return true
			}
		} else if dif < 0 {
			return false
		}
	}
}

// Drain pops every currently available closure without blocking.
func (m *Mailbox) Drain() []func() {
	var out []func()
	for {
		fn, ok := m.pop()
		if !ok {
			return out
		}
		out = append(out, fn)
	}
}

func (m *Mailbox) pop() (func(), bool) {
	for {
		head := atomic.LoadUint64(&m.head)
		idx := head & m.mask
		c := &m.cells[idx]
		seq := c.sequence.Load()
		dif := int64(seq) - int64(head+1)

		if dif == 0 {
			if atomic.CompareAndSwapUint64(&m.head, head, head+1) {
				fn := c.data
				c.data = nil
				c.sequence.Store(head + m.mask + 1)
				return fn, true
			}
		} else if dif < 0 {
			return nil, false
		}
	}
}

// NotifyFd exposes the mailbox's wake-up handle for registration with a Poller.
func (m *Mailbox) NotifyFd() api.NotifyFd { return m.notify }
