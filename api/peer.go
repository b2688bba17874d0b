// File: api/peer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Peer models a live connection. Transport has sole ownership of Peer
// values, keyed by fd; handler/response code is only ever given the
// lightweight PeerRef handle described in the design notes, trading the
// source's shared+weak pointer pattern for a generation check that turns
// "peer already gone" into an ordinary error instead of relying on
// weak-pointer expiration semantics.

package api

import "sync/atomic"

var peerIDCounter uint64

// NextPeerID returns a process-unique, monotonically increasing id,
// assigned by Listener on accept or Client on connect.
func NextPeerID() uint64 {
	return atomic.AddUint64(&peerIDCounter, 1)
}

// Peer is a live TCP connection, owned by exactly one Transport for its
// lifetime and destroyed when its fd is fully closed.
type Peer struct {
	ID         uint64
	Fd         uintptr
	Generation uint64
	Addr       Address

	hostnameOnce uint32
	hostname     string

	attachments map[string]any
}

// NewPeer constructs a Peer for a freshly accepted or connected fd.
func NewPeer(fd uintptr, addr Address, generation uint64) *Peer {
	return &Peer{
		ID:          NextPeerID(),
		Fd:          fd,
		Generation:  generation,
		Addr:        addr,
		attachments: make(map[string]any, 2),
	}
}

// Attach stores a named per-peer value (e.g. the HTTP parser instance).
func (p *Peer) Attach(name string, v any) {
	p.attachments[name] = v
}

// Attachment retrieves a previously Attach-ed value.
func (p *Peer) Attachment(name string) (any, bool) {
	v, ok := p.attachments[name]
	return v, ok
}

// Hostname lazily resolves and caches the peer's reverse-DNS hostname.
// resolver is called at most once; subsequent calls return the cached
// value regardless of the resolver passed.
func (p *Peer) Hostname(resolver func(Address) string) string {
	if atomic.CompareAndSwapUint32(&p.hostnameOnce, 0, 1) {
		p.hostname = resolver(p.Addr)
	}
	return p.hostname
}

// Ref returns the lightweight handle callers should hold instead of *Peer
// across suspension points.
func (p *Peer) Ref() PeerRef {
	return PeerRef{Fd: p.Fd, Generation: p.Generation}
}

// PeerRef is a generation-checked handle to a Peer. Dereferencing a stale
// ref (the fd was closed and possibly reused) yields ErrStalePeer instead
// of a dangling pointer.
type PeerRef struct {
	Fd         uintptr
	Generation uint64
}

// PeerResolver is implemented by Transport to turn a PeerRef back into the
// live *Peer, or report that it has gone stale.
type PeerResolver interface {
	Resolve(ref PeerRef) (*Peer, error)
}
