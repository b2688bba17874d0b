// File: listener/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package listener provides the TCP accept loop (Listener) and the
// Endpoint that layers an HTTP RequestHandler over a Listener, a
// reactor.Reactor, and one transport.Transport per worker.
package listener
