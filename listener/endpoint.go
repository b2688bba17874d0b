// File: listener/endpoint.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Endpoint layers an HTTP RequestHandler over a Listener and a
// reactor.Reactor, per spec.md §4.8: init, setHandler, bind, serve,
// serveThreaded, shutdown, requestLoad. Grounded on the data-flow note
// in spec.md's overview ("Listener's accept loop -> pick worker by hash
// -> hand peer to worker's Transport via mailbox -> Transport registers
// peer for Read...").

package listener

import (
	"time"

	"github.com/google/uuid"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/pool"
	"github.com/momentics/htcore/reactor"
	"github.com/momentics/htcore/transport"
)

// Endpoint owns a Listener, a Reactor, and one Transport per worker, and
// drives a single RequestHandler across all of them.
type Endpoint struct {
	opts      Options
	numWorkers int

	reactor     *reactor.Reactor
	listener    *Listener
	transports  []*transport.Transport
	bufPool     api.BufferPool
	stopSignals func()

	prevLoad *Load
}

// Config configures Endpoint.Init.
type Config struct {
	Workers int
	CPUs    []api.CPUSet
	Options Options
}

// Init constructs the Reactor and per-worker Transports, wiring handler
// as the sole RequestHandler (no routing layer: spec.md §1 names a
// router an explicit Non-goal).
func Init(cfg Config, handler RequestHandler) (*Endpoint, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	prototype := newConnHandlerPrototype(handler, cfg.Options)

	r, err := reactor.New(cfg.Workers, prototype, cfg.CPUs)
	if err != nil {
		return nil, err
	}

	bufPool := pool.New()
	transports := make([]*transport.Transport, cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		ch := r.Handler(i).(*connHandler)
		tr, err := transport.New(r.Worker(i), ch, bufPool)
		if err != nil {
			return nil, err
		}
		ch.bindTransport(tr)
		transports[i] = tr
	}

	r.SetDispatchFn(func(workerIndex int, peerFd uintptr, peer any) {
		p, ok := peer.(*api.Peer)
		if !ok {
			return
		}
		_ = transports[workerIndex].HandleNewPeer(p)
	})

	ep := &Endpoint{
		opts:       cfg.Options,
		numWorkers: cfg.Workers,
		reactor:    r,
		transports: transports,
		bufPool:    bufPool,
	}
	ep.listener = New(r, cfg.Options)
	return ep, nil
}

// Bind opens the listening socket at addr.
func (e *Endpoint) Bind(addr api.Address) error {
	return e.listener.Bind(addr)
}

// Addr returns the bound address, with the kernel-chosen port resolved if
// Bind was called with port 0.
func (e *Endpoint) Addr() api.Address {
	return e.listener.Addr()
}

// Serve starts the reactor's worker goroutines and runs the accept loop
// on the calling goroutine, blocking until Shutdown.
func (e *Endpoint) Serve() error {
	if e.opts.InstallSignalHandler {
		e.stopSignals = installSignalHandler(func() { _ = e.Shutdown(5 * time.Second) })
	}
	go func() { _ = e.reactor.Run() }()
	return e.listener.Serve()
}

// ServeThreaded starts the reactor and the accept loop each on their own
// goroutine and returns immediately; use Shutdown to stop.
func (e *Endpoint) ServeThreaded() error {
	if e.opts.InstallSignalHandler {
		e.stopSignals = installSignalHandler(func() { _ = e.Shutdown(5 * time.Second) })
	}
	go func() { _ = e.reactor.Run() }()
	go func() { _ = e.listener.Serve() }()
	return nil
}

// Shutdown stops accepting new connections, drains the reactor within
// grace, and closes every Transport.
func (e *Endpoint) Shutdown(grace time.Duration) error {
	if e.stopSignals != nil {
		e.stopSignals()
	}
	if err := e.listener.Shutdown(); err != nil {
		return err
	}
	if err := e.reactor.Shutdown(grace); err != nil {
		return err
	}
	for _, tr := range e.transports {
		tr.Close()
	}
	return nil
}

// RequestLoad samples every worker's CPU load since the previous call
// (the first call returns an all-zero Load, seeding subsequent deltas).
func (e *Endpoint) RequestLoad() *deferred.Deferred[Load] {
	ws := make([]*reactor.Worker, e.numWorkers)
	for i := range ws {
		ws[i] = e.reactor.Worker(i)
	}
	d := RequestLoad(ws, e.prevLoad)
	d.Then(func(load Load) { e.prevLoad = &load }, nil)
	return d
}

// NewRequestID returns a fresh request-correlation id, stamped by
// callers as X-Request-Id when a request doesn't already carry one.
func NewRequestID() string {
	return uuid.NewString()
}
