// File: client/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// connectionPool implements spec.md §4.9's ConnectionPool: connections
// keyed by "scheme://host:port", up to maxPerKey live per key, FIFO
// request/response correlation per fd (HTTP/1.1 pipelining is not relied
// upon — each connection serves one in-flight request at a time in this
// build, matching "connections are used serially"). Pick/return operations
// take a single lock; per spec.md §5 the pool is small so contention is
// minor.

package client

import (
	"fmt"
	"sync"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/httpparser"
)

// conn is one pooled outbound connection.
type conn struct {
	fd        uintptr
	key       string
	transport api.Transport
	peer      *api.Peer
}

type connectionPool struct {
	mu        sync.Mutex
	idle      map[string][]*conn
	active    map[uintptr]*conn
	pending   map[uintptr][]*deferred.Deferred[*httpparser.Response]
	counts    map[string]int
	maxPerKey int
}

func newConnectionPool(maxPerKey int) *connectionPool {
	return &connectionPool{
		idle:      make(map[string][]*conn),
		active:    make(map[uintptr]*conn),
		pending:   make(map[uintptr][]*deferred.Deferred[*httpparser.Response]),
		counts:    make(map[string]int),
		maxPerKey: maxPerKey,
	}
}

// acquireIdle pops one idle connection for key, if any.
func (p *connectionPool) acquireIdle(key string) (*conn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lst := p.idle[key]
	if len(lst) == 0 {
		return nil, false
	}
	c := lst[len(lst)-1]
	p.idle[key] = lst[:len(lst)-1]
	return c, true
}

// tryReserve atomically checks and increments key's live-connection count,
// reporting whether a new connection may be opened.
func (p *connectionPool) tryReserve(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts[key] >= p.maxPerKey {
		return false
	}
	p.counts[key]++
	return true
}

// release undoes a tryReserve whose dial ultimately failed.
func (p *connectionPool) release(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counts[key] > 0 {
		p.counts[key]--
	}
}

// register records a freshly connected conn as active (not idle — a
// request is about to be issued on it immediately).
func (p *connectionPool) register(c *conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[c.fd] = c
}

// enqueue appends out to fd's FIFO response-correlation queue.
func (p *connectionPool) enqueue(fd uintptr, out *deferred.Deferred[*httpparser.Response]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[fd] = append(p.pending[fd], out)
}

// deliver resolves the oldest pending request on fd with resp, then
// either returns the connection to the idle pool (keepAlive) or retires
// it (Connection: close).
func (p *connectionPool) deliver(fd uintptr, resp *httpparser.Response, keepAlive bool) {
	p.mu.Lock()
	c, ok := p.active[fd]
	q := p.pending[fd]
	var head *deferred.Deferred[*httpparser.Response]
	if len(q) > 0 {
		head = q[0]
		p.pending[fd] = q[1:]
	}
	if ok && keepAlive {
		p.idle[c.key] = append(p.idle[c.key], c)
	}
	p.mu.Unlock()

	if head != nil {
		head.Resolve(resp)
	}
	if ok && !keepAlive {
		p.retire(c)
	}
}

// failPending rejects every request still queued on fd, used when the
// response parser hits a malformed-response error.
func (p *connectionPool) failPending(fd uintptr, err error) {
	p.mu.Lock()
	q := p.pending[fd]
	delete(p.pending, fd)
	p.mu.Unlock()
	for _, d := range q {
		d.Reject(err)
	}
}

// onClosed drops fd's bookkeeping once Transport reports it disconnected
// (peer hang-up, or a retire() close completing).
func (p *connectionPool) onClosed(fd uintptr) {
	p.mu.Lock()
	c, ok := p.active[fd]
	delete(p.active, fd)
	if ok {
		if p.counts[c.key] > 0 {
			p.counts[c.key]--
		}
		p.removeIdleLocked(c)
	}
	q := p.pending[fd]
	delete(p.pending, fd)
	p.mu.Unlock()

	for _, d := range q {
		d.Reject(fmt.Errorf("client: connection closed with request in flight"))
	}
}

func (p *connectionPool) removeIdleLocked(c *conn) {
	lst := p.idle[c.key]
	for i, x := range lst {
		if x == c {
			p.idle[c.key] = append(lst[:i], lst[i+1:]...)
			return
		}
	}
}

func (p *connectionPool) retire(c *conn) {
	p.mu.Lock()
	delete(p.active, c.fd)
	if p.counts[c.key] > 0 {
		p.counts[c.key]--
	}
	p.mu.Unlock()
	c.transport.ClosePeer(c.fd)
}
