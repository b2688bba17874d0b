// File: client/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package client

import "github.com/momentics/htcore/api"

// Options configures a Client. Grounded on spec.md §4.9/§5's defaults:
// one worker thread, eight connections per host, keep-alive on.
type Options struct {
	// Threads is the size of the round-robin worker pool backing every
	// ConnectionPool entry.
	Threads int
	// MaxConnectionsPerHost caps live connections per scheme://host:port key.
	MaxConnectionsPerHost int
	// KeepAlive, when true, sends no Connection header (HTTP/1.1 defaults
	// to persistent) and reuses connections across requests.
	KeepAlive bool
	// CPUs optionally pins each worker, mirroring listener.Config.CPUs.
	CPUs []api.CPUSet
}

// DefaultOptions returns the spec's documented client defaults.
func DefaultOptions() Options {
	return Options{
		Threads:               1,
		MaxConnectionsPerHost: 8,
		KeepAlive:             true,
	}
}
