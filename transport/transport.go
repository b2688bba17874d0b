// File: transport/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transport is the per-worker sole owner of every Peer fd dispatched to
// it, implementing api.Transport. Grounded on internal/transport/transport.go's
// factory/wrapper shape and internal/transport/transport_linux.go's
// non-blocking-socket setup, generalized from the teacher's batch
// Send/Recv([][]byte) surface to the design's per-fd
// asyncWrite/asyncConnect/armTimer/disarmTimer returning Deferreds
// (original_source/src/io.h's Transport class).

package transport

import (
	"sync"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/reactor"
)

// Transport owns every Peer dispatched to one reactor worker. A
// multi-worker server has one Transport per worker, all sharing a
// BufferPool but each privately owning its peer table and write queues —
// no cross-worker locking on the hot path.
type Transport struct {
	worker  *reactor.Worker
	handler api.ConnHandler
	bufPool api.BufferPool

	mu    sync.Mutex
	peers map[uintptr]*api.Peer
	gen   map[uintptr]uint64

	writeMu sync.Mutex
	toWrite map[uintptr]*writeQueue

	timer      api.TimerFd
	timerMu    sync.Mutex
	timerWait  *deferred.Deferred[uint64]
}

// writeQueue is the per-fd FIFO of pending asyncWrite buffers, preserving
// write order when multiple AsyncWrite calls race on the same fd.
type writeQueue struct {
	mu      sync.Mutex
	pending []pendingWrite
}

type pendingWrite struct {
	buf     []byte
	off     int
	out     *deferred.Deferred[int]
}

// New creates a Transport bound to worker, driving handler callbacks for
// every Peer dispatched to it.
func New(worker *reactor.Worker, handler api.ConnHandler, bufPool api.BufferPool) (*Transport, error) {
	t := &Transport{
		worker:  worker,
		handler: handler,
		bufPool: bufPool,
		peers:   make(map[uintptr]*api.Peer),
		gen:     make(map[uintptr]uint64),
		toWrite: make(map[uintptr]*writeQueue),
	}

	timer, err := reactor.NewTimerFd()
	if err != nil {
		return nil, err
	}
	t.timer = timer
	if err := worker.RegisterFd(timer.Fd(), api.InterestRead, api.LevelTriggered, t.onTimerFire); err != nil {
		timer.Close()
		return nil, err
	}
	return t, nil
}

// HandleNewPeer registers peer's fd with the worker for edge-triggered
// read/hangup notifications and invokes handler.OnConnection.
func (t *Transport) HandleNewPeer(peer *api.Peer) error {
	t.mu.Lock()
	t.peers[peer.Fd] = peer
	t.gen[peer.Fd] = peer.Generation
	t.mu.Unlock()

	t.writeMu.Lock()
	t.toWrite[peer.Fd] = &writeQueue{}
	t.writeMu.Unlock()

	interest := api.InterestRead | api.InterestHangup
	if err := t.worker.RegisterFd(peer.Fd, interest, api.EdgeTriggered, func(ev api.Event) {
		t.onEvent(peer, ev)
	}); err != nil {
		return err
	}
	if t.handler != nil {
		t.handler.OnConnection(peer)
	}
	return nil
}

func (t *Transport) onEvent(peer *api.Peer, ev api.Event) {
	if ev.Interest&api.InterestHangup != 0 {
		t.closePeer(peer)
		return
	}
	if ev.Interest&api.InterestWrite != 0 {
		t.flushWrites(peer.Fd)
	}
	if ev.Interest&api.InterestRead != 0 {
		t.drainReads(peer)
	}
}

// drainReads reads peer.Fd until EAGAIN, per the edge-triggered contract:
// an ET registration only notifies once per transition, so the reader
// must consume everything available before returning.
func (t *Transport) drainReads(peer *api.Peer) {
	for {
		buf := t.bufPool.Get(64 * 1024)
		n, err := rawRead(peer.Fd, buf.Data)
		if n > 0 && t.handler != nil {
			t.handler.OnInput(buf.Data[:n], peer)
		}
		buf.Release()
		if err != nil {
			if isEAGAIN(err) {
				return
			}
			t.closePeer(peer)
			return
		}
		if n == 0 {
			t.closePeer(peer)
			return
		}
		if n < len(buf.Data) {
			// short read: fd is drained for this round even without EAGAIN.
			return
		}
	}
}

func (t *Transport) closePeer(peer *api.Peer) {
	t.mu.Lock()
	delete(t.peers, peer.Fd)
	delete(t.gen, peer.Fd)
	t.mu.Unlock()

	t.writeMu.Lock()
	delete(t.toWrite, peer.Fd)
	t.writeMu.Unlock()

	t.worker.UnregisterFd(peer.Fd)
	if t.handler != nil {
		t.handler.OnDisconnection(peer)
	}
	rawClose(peer.Fd)
}

// Resolve implements api.PeerResolver: a PeerRef whose generation no
// longer matches the live peer at that fd is stale (the fd was reused
// after the original peer disconnected).
func (t *Transport) Resolve(ref api.PeerRef) (*api.Peer, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	peer, ok := t.peers[ref.Fd]
	if !ok || t.gen[ref.Fd] != ref.Generation {
		return nil, api.ErrStalePeer
	}
	return peer, nil
}

// AsyncWrite enqueues buf for fd, returning a Deferred resolved with the
// byte count once the write completes (possibly across several
// EAGAIN-driven arm/flush cycles if the socket's write buffer is full).
// The buffer is copied before handing off when WriteCopy is set or the
// call comes from another goroutine, since the caller's slice may be
// reused immediately.
func (t *Transport) AsyncWrite(fd uintptr, buf []byte, flags api.WriteFlags) *deferred.Deferred[int] {
	out := deferred.New[int]()

	sameThread := t.worker.IsCurrentGoroutine()
	payload := buf
	if flags&api.WriteCopy != 0 || !sameThread {
		payload = make([]byte, len(buf))
		copy(payload, buf)
	}

	post := func() {
		t.writeMu.Lock()
		q, ok := t.toWrite[fd]
		t.writeMu.Unlock()
		if !ok {
			out.Reject(api.ErrBrokenPipe)
			return
		}
		q.mu.Lock()
		// The MultipleWrites cap only guards cross-thread submissions:
		// a handler issuing many writes on its own fd from its own
		// worker always queues behind, per the design's resolved
		// open question on this point.
		if !sameThread && len(q.pending) >= maxQueuedWrites {
			q.mu.Unlock()
			out.Reject(api.ErrMultipleWrites)
			return
		}
		q.pending = append(q.pending, pendingWrite{buf: payload, out: out})
		q.mu.Unlock()
		t.flushWrites(fd)
	}

	if sameThread {
		post()
	} else if !t.worker.Post(post) {
		out.Reject(api.ErrShutdown)
	}
	return out
}

const maxQueuedWrites = 1024

// flushWrites drains fd's write queue until the socket would block,
// keeping writes in FIFO order (a partially written buffer blocks
// everything queued behind it, matching the design's asyncWrite
// ordering guarantee).
func (t *Transport) flushWrites(fd uintptr) {
	t.writeMu.Lock()
	q, ok := t.toWrite[fd]
	t.writeMu.Unlock()
	if !ok {
		return
	}

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			t.worker.ModifyFd(fd, api.InterestRead|api.InterestHangup, api.EdgeTriggered)
			return
		}
		head := &q.pending[0]
		q.mu.Unlock()

		n, err := rawWrite(fd, head.buf[head.off:])
		if n > 0 {
			head.off += n
		}
		if err != nil {
			if isEAGAIN(err) {
				t.worker.ModifyFd(fd, api.InterestRead|api.InterestWrite|api.InterestHangup, api.EdgeTriggered)
				return
			}
			q.mu.Lock()
			q.pending = q.pending[1:]
			q.mu.Unlock()
			head.out.Reject(err)
			continue
		}
		if head.off >= len(head.buf) {
			q.mu.Lock()
			q.pending = q.pending[1:]
			q.mu.Unlock()
			head.out.Resolve(head.off)
		}
	}
}

// ArmTimer arms this Transport's worker-level timer (used for
// header/body/handler read timeouts), resolving the returned Deferred on
// expiry with the number of elapsed intervals (always 1 for a one-shot
// timer). Arming again before expiry replaces the pending wait.
func (t *Transport) ArmTimer(d time.Duration) *deferred.Deferred[uint64] {
	t.timerMu.Lock()
	defer t.timerMu.Unlock()
	if t.timerWait != nil {
		t.timerWait.Reject(api.ErrShutdown)
	}
	out := deferred.New[uint64]()
	t.timerWait = out
	if err := t.timer.Set(d); err != nil {
		out.Reject(err)
		t.timerWait = nil
	}
	return out
}

// DisarmTimer cancels the pending timer wait, if any.
func (t *Transport) DisarmTimer() error {
	t.timerMu.Lock()
	defer t.timerMu.Unlock()
	if err := t.timer.Set(0); err != nil {
		return err
	}
	if t.timerWait != nil {
		t.timerWait.Reject(api.ErrOperationTimeout)
		t.timerWait = nil
	}
	return nil
}

func (t *Transport) onTimerFire(api.Event) {
	n, err := t.timer.Expirations()
	t.timerMu.Lock()
	wait := t.timerWait
	t.timerWait = nil
	t.timerMu.Unlock()
	if wait == nil {
		return
	}
	if err != nil {
		wait.Reject(err)
		return
	}
	wait.Resolve(n)
}

// ClosePeer closes fd if this Transport currently owns it, posting the
// close onto the owning worker goroutine when called from elsewhere.
func (t *Transport) ClosePeer(fd uintptr) error {
	do := func() {
		t.mu.Lock()
		peer, ok := t.peers[fd]
		t.mu.Unlock()
		if ok {
			t.closePeer(peer)
		}
	}
	if t.worker.IsCurrentGoroutine() {
		do()
	} else if !t.worker.Post(do) {
		return api.ErrShutdown
	}
	return nil
}

// Close tears down every peer and releases the worker-level timer.
func (t *Transport) Close() error {
	t.mu.Lock()
	peers := make([]*api.Peer, 0, len(t.peers))
	for _, p := range t.peers {
		peers = append(peers, p)
	}
	t.mu.Unlock()
	for _, p := range peers {
		t.closePeer(p)
	}
	t.worker.UnregisterFd(t.timer.Fd())
	return t.timer.Close()
}
