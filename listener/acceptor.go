// File: listener/acceptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Listener owns the listening socket and its accept loop: each accepted
// fd is wrapped in an api.Peer and dispatched to a reactor worker by fd
// hash, per spec.md §4.8 ("accepts in a loop... dispatched to a worker
// by fd mod N"). Grounded on the teacher's blocking net.Listener accept
// loop, generalized from its per-connection handshake goroutine model
// to a dispatch-by-hash hand-off into the reactor's worker pool.

package listener

import (
	"sync"
	"sync/atomic"

	"github.com/momentics/htcore/api"
)

// acceptTarget is implemented by reactor.Reactor; Listener only needs
// Dispatch, so it doesn't otherwise depend on package reactor.
type acceptTarget interface {
	Dispatch(peerFd uintptr, peer any) error
}

// Listener accepts inbound TCP connections and hands each one to a
// reactor worker. Listener does not read or write peer data itself —
// that is Transport's job once dispatched.
type Listener struct {
	raw  *rawListener
	opts Options
	addr api.Address

	target acceptTarget

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	generation atomic.Uint64
}

// New creates a Listener bound to target, which receives every accepted
// Peer via Dispatch.
func New(target acceptTarget, opts Options) *Listener {
	if opts.Backlog <= 0 {
		opts.Backlog = 128
	}
	return &Listener{target: target, opts: opts}
}

// Bind opens the listening socket at addr, applying the configured
// options. The actual bound address (with the kernel-chosen port, if
// addr.Port was 0) is read back via getsockname.
func (l *Listener) Bind(addr api.Address) error {
	raw, err := bindListen(addr, l.opts)
	if err != nil {
		return err
	}
	l.raw = raw
	if bound, err := raw.BoundAddr(); err == nil {
		l.addr = bound
	} else {
		l.addr = addr
	}
	return nil
}

// Addr returns the bound address.
func (l *Listener) Addr() api.Address { return l.addr }

// Fd returns the listening socket's fd, used for open-fd-count
// accounting in tests.
func (l *Listener) Fd() uintptr {
	if l.raw == nil {
		return 0
	}
	return l.raw.Fd()
}

// Serve runs the accept loop until Shutdown is called; an Accept error
// is skipped and the loop tries again. It blocks the calling goroutine.
func (l *Listener) Serve() error {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return api.ErrAlreadyRunning
	}
	l.running = true
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.mu.Unlock()
	defer close(l.done)

	for {
		select {
		case <-l.stop:
			return nil
		default:
		}

		fd, addr, err := l.raw.Accept(l.opts)
		if err != nil {
			select {
			case <-l.stop:
				return nil
			default:
			}
			continue
		}

		gen := l.generation.Add(1)
		peer := api.NewPeer(fd, addr, gen)
		_ = l.target.Dispatch(fd, peer)
	}
}

// Shutdown closes the listening fd and waits for Serve to return.
func (l *Listener) Shutdown() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	close(l.stop)
	l.mu.Unlock()

	var err error
	if l.raw != nil {
		err = l.raw.Close()
	}
	<-l.done
	return err
}
