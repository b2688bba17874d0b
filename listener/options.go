// File: listener/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Listener/Endpoint configuration options, grounded on spec.md §4.8's
// enumerated option set {ReuseAddr, Linger, FastOpen, QuickAck, NoDelay,
// ReverseLookup, InstallSignalHandler} plus §6/§7's maxRequestSize and
// header/body read timeouts.

package listener

import "time"

// Options configures a Listener's socket options and accept-loop
// behavior.
type Options struct {
	// ReuseAddr sets SO_REUSEADDR on the listening socket.
	ReuseAddr bool
	// Linger, if >= 0, sets SO_LINGER to this many seconds; -1 leaves the
	// OS default in place.
	Linger int
	// FastOpen enables TCP_FASTOPEN on the listening socket, using Backlog
	// as its queue length (Linux only; ignored elsewhere).
	FastOpen bool
	// QuickAck sets TCP_QUICKACK on accepted connections (Linux only).
	QuickAck bool
	// NoDelay sets TCP_NODELAY on accepted connections.
	NoDelay bool
	// ReverseLookup causes Peer.Hostname to be resolved eagerly on
	// accept rather than lazily on first access.
	ReverseLookup bool
	// InstallSignalHandler installs a process-wide SIGINT handler that
	// triggers an orderly Endpoint.Shutdown, and ignores SIGPIPE.
	InstallSignalHandler bool
	// Backlog is the listen() backlog; default 128.
	Backlog int
	// MaxRequestSize caps the accumulated request-line+headers size a
	// Parser will buffer before answering 413; 0 uses
	// httpparser.DefaultMaxHeaderBytes.
	MaxRequestSize int
	// HeaderTimeout bounds how long a connection may sit between being
	// accepted and completing its request-line+headers before the
	// connection is answered with 408 and closed; 0 disables it.
	HeaderTimeout time.Duration
	// BodyTimeout bounds how long a connection may go without body
	// progress once headers are parsed; 0 disables it.
	BodyTimeout time.Duration
	// NegotiateCompression enables automatic Content-Encoding selection
	// from each request's Accept-Encoding header.
	NegotiateCompression bool
}

// DefaultOptions returns the design's documented defaults.
func DefaultOptions() Options {
	return Options{
		ReuseAddr: true,
		Linger:    -1,
		NoDelay:   true,
		Backlog:   128,
	}
}
