// File: api/handler.go
// Package api defines Handler contracts.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// ConnHandler is the TCP-level callback surface a Transport drives: one
// instance is cloned per reactor worker (see Prototype) so handler state
// never crosses worker boundaries. The HTTP-level RequestHandler built on
// top of it lives in package listener, which composes a ConnHandler with
// the httpparser/httpwriter packages; api stays free of that dependency.
type ConnHandler interface {
	Prototype
	OnConnection(peer *Peer)
	OnDisconnection(peer *Peer)
	OnInput(data []byte, peer *Peer)
}
