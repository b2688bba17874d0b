// File: api/transport.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Defines the Transport contract: the per-worker owner of connected peer
// fds, their write queues, and timers. One Transport instance lives inside
// each reactor worker; all I/O for a peer owned by that worker happens on
// it alone.

package api

import (
	"time"

	"github.com/momentics/htcore/deferred"
)

// NetConn abstracts a full-duplex network connection, letting Transport
// work over both raw syscall fds and anything exposing the same shape.
type NetConn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	RawFD() uintptr
}

// WriteFlags controls how Transport.AsyncWrite treats its payload.
type WriteFlags uint8

const (
	// WriteCopy instructs the transport to copy a borrowed slice before
	// queuing it, because the caller may reuse/mutate it after the call.
	WriteCopy WriteFlags = 1 << iota
	// WriteMore hints more data is coming shortly (maps to MSG_MORE where
	// supported), used by the header/body split in serveFile.
	WriteMore
)

// Transport is the per-worker connection owner.
type Transport interface {
	PeerResolver
	// HandleNewPeer takes ownership of peer's fd and registers it for
	// edge-triggered Read.
	HandleNewPeer(peer *Peer) error
	// AsyncWrite enqueues buf for fd. If the calling goroutine is the
	// owning worker and no write is pending, it attempts an immediate
	// non-blocking send. Otherwise the write is queued in submission
	// order (same worker) or detached and mailboxed (other worker).
	AsyncWrite(fd uintptr, buf []byte, flags WriteFlags) *deferred.Deferred[int]
	// AsyncConnect initiates a non-blocking connect and resolves when the
	// socket becomes writable and SO_ERROR reads zero.
	AsyncConnect(fd uintptr, addr Address) *deferred.Deferred[struct{}]
	// ArmTimer arms the worker's shared timer and resolves with the
	// wake-count when it fires.
	ArmTimer(d time.Duration) *deferred.Deferred[uint64]
	// DisarmTimer cancels any armed timer on this worker.
	DisarmTimer() error
	// ClosePeer closes a single owned fd, invoking OnDisconnection, without
	// tearing down the rest of the Transport. Used by Client to retire a
	// connection on a Connection: close response.
	ClosePeer(fd uintptr) error
	// Close shuts down the transport, closing all owned peer fds.
	Close() error
}
