// File: client/client.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Client is the outbound half of spec.md §4.9: a round-robin worker pool
// of transport.Transport instances plus a connectionPool keyed by
// scheme://host:port. Grounded on listener/endpoint.go's
// Reactor+per-worker-Transport wiring, run in the opposite direction
// (Transport.AsyncConnect instead of Listener.Accept).

package client

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/httpparser"
	"github.com/momentics/htcore/pool"
	"github.com/momentics/htcore/reactor"
	"github.com/momentics/htcore/transport"
)

// Client issues outbound HTTP/1.1 requests over a pool of reused
// connections.
type Client struct {
	opts Options

	reactor    *reactor.Reactor
	transports []*transport.Transport
	pool       *connectionPool

	next atomic.Uint64
}

// New constructs a Client and starts its reactor's worker goroutines.
func New(opts Options) (*Client, error) {
	if opts.Threads <= 0 {
		opts.Threads = 1
	}
	if opts.MaxConnectionsPerHost <= 0 {
		opts.MaxConnectionsPerHost = 8
	}

	cp := newConnectionPool(opts.MaxConnectionsPerHost)
	prototype := &connHandler{pool: cp}
	r, err := reactor.New(opts.Threads, prototype, opts.CPUs)
	if err != nil {
		return nil, err
	}

	bufPool := pool.New()
	transports := make([]*transport.Transport, opts.Threads)
	for i := 0; i < opts.Threads; i++ {
		ch := r.Handler(i).(*connHandler)
		ch.pool = cp
		tr, err := transport.New(r.Worker(i), ch, bufPool)
		if err != nil {
			return nil, err
		}
		transports[i] = tr
	}

	c := &Client{
		opts:       opts,
		reactor:    r,
		transports: transports,
		pool:       cp,
	}
	go func() { _ = r.Run() }()
	return c, nil
}

// NewRequest builds a Request for method against rawURL ("http://host[:port]/path[?query]").
func (c *Client) NewRequest(method api.Method, rawURL string) (*Request, error) {
	return newRequest(c, method, rawURL)
}

// Get is shorthand for NewRequest(api.MethodGet, rawURL).Send(ctx).
func (c *Client) Get(ctx context.Context, rawURL string) *deferred.Deferred[*httpparser.Response] {
	req, err := c.NewRequest(api.MethodGet, rawURL)
	if err != nil {
		return deferred.Rejected[*httpparser.Response](err)
	}
	return req.Send(ctx)
}

func (c *Client) nextWorker() int {
	return int(c.next.Add(1)-1) % len(c.transports)
}

// send picks or opens a connection for req's key and issues it, applying
// FIFO response correlation (spec.md §4.9: "connections are used
// serially"; this build does not attempt HTTP/1.1 pipelining).
func (c *Client) send(ctx context.Context, req *Request) *deferred.Deferred[*httpparser.Response] {
	out := deferred.New[*httpparser.Response]()
	key := req.key()

	if cn, ok := c.pool.acquireIdle(key); ok {
		c.issue(cn, req, out)
		c.watchCancel(ctx, out)
		return out
	}

	if !c.pool.tryReserve(key) {
		out.Reject(fmt.Errorf("client: connection limit (%d) reached for %s", c.opts.MaxConnectionsPerHost, key))
		return out
	}

	addr, err := resolveAddress(req.url.Hostname(), req.url.Port(), req.url.Scheme)
	if err != nil {
		c.pool.release(key)
		out.Reject(err)
		return out
	}

	tr := c.transports[c.nextWorker()]
	dial(tr, addr).Then(
		func(fd uintptr) {
			peer := api.NewPeer(fd, addr, api.NextPeerID())
			if err := tr.HandleNewPeer(peer); err != nil {
				c.pool.release(key)
				tr.ClosePeer(fd)
				out.Reject(err)
				return
			}
			cn := &conn{fd: fd, key: key, transport: tr, peer: peer}
			c.pool.register(cn)
			c.issue(cn, req, out)
		},
		func(err error) {
			c.pool.release(key)
			out.Reject(err)
		},
	)
	c.watchCancel(ctx, out)
	return out
}

func (c *Client) issue(cn *conn, req *Request, out *deferred.Deferred[*httpparser.Response]) {
	c.pool.enqueue(cn.fd, out)
	payload := req.serialize(c.opts.KeepAlive)
	cn.transport.AsyncWrite(cn.fd, payload, api.WriteCopy).Then(nil, func(err error) { out.Reject(err) })
}

// watchCancel rejects out with ctx.Err() if ctx is cancelled before the
// request settles on its own. The in-flight entry in the pool's FIFO is
// left in place (a stale resolve/reject on an already-settled Deferred is
// a no-op), matching original_source's "cancel doesn't yank the socket"
// behavior for in-flight writes.
func (c *Client) watchCancel(ctx context.Context, out *deferred.Deferred[*httpparser.Response]) {
	if ctx == nil || ctx.Done() == nil {
		return
	}
	done := make(chan struct{})
	out.Then(
		func(*httpparser.Response) { close(done) },
		func(error) { close(done) },
	)
	go func() {
		select {
		case <-ctx.Done():
			out.Reject(ctx.Err())
		case <-done:
		}
	}()
}

func resolveAddress(host, portStr, scheme string) (api.Address, error) {
	port := 80
	if scheme == "https" {
		port = 443
	}
	if portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return api.Address{}, fmt.Errorf("client: invalid port %q: %w", portStr, err)
		}
		port = p
	}
	if net.ParseIP(host) == nil {
		if _, err := net.LookupHost(host); err != nil {
			return api.Address{}, err
		}
	}
	return api.NewAddress(host, port)
}

// Shutdown closes every pooled connection and stops the worker pool.
func (c *Client) Shutdown(grace time.Duration) error {
	if err := c.reactor.Shutdown(grace); err != nil {
		return err
	}
	for _, tr := range c.transports {
		tr.Close()
	}
	return nil
}
