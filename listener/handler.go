// File: listener/handler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RequestHandler is the HTTP-level callback an Endpoint drives: unlike
// api.ConnHandler (TCP bytes in/out), RequestHandler sees a fully parsed
// httpparser.Request and writes through an httpwriter.Writer. connHandler
// adapts one RequestHandler into the api.ConnHandler surface Transport
// expects, owning one httpparser.Parser per Peer. No routing layer sits
// in front of RequestHandler — spec.md §1 names a router an explicit
// Non-goal.

package listener

import (
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/httpparser"
	"github.com/momentics/htcore/httpwriter"
)

// RequestHandler handles one fully-parsed HTTP request, writing a
// response through w.
type RequestHandler interface {
	Handle(req *httpparser.Request, w *httpwriter.Writer)
}

// RequestHandlerFunc adapts a plain function to RequestHandler.
type RequestHandlerFunc func(req *httpparser.Request, w *httpwriter.Writer)

func (f RequestHandlerFunc) Handle(req *httpparser.Request, w *httpwriter.Writer) {
	f(req, w)
}

const attachmentParser = "httpparser.Parser"

// connHandler is the api.ConnHandler prototype cloned once per reactor
// worker. Its transport field is nil until Init calls bindTransport
// after the per-worker Transport is constructed (Transport itself
// needs a ConnHandler to be built, so the back-reference can't be set at
// Clone time).
type connHandler struct {
	handler        RequestHandler
	transport      api.Transport
	negotiate      bool
	maxHeaderBytes int
	reverseLookup  bool
	resolveHost    func(api.Address) string
	headerTimeout  time.Duration
	bodyTimeout    time.Duration

	timeouts *timeoutTracker
}

func newConnHandlerPrototype(h RequestHandler, opts Options) *connHandler {
	maxHeaderBytes := opts.MaxRequestSize
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = httpparser.DefaultMaxHeaderBytes
	}
	ch := &connHandler{
		handler:        h,
		negotiate:      opts.NegotiateCompression,
		maxHeaderBytes: maxHeaderBytes,
		reverseLookup:  opts.ReverseLookup,
		resolveHost:    resolveHostname,
		headerTimeout:  opts.HeaderTimeout,
		bodyTimeout:    opts.BodyTimeout,
	}
	ch.timeouts = newTimeoutTracker(ch.onTimeout)
	return ch
}

// Clone implements api.Prototype.
func (h *connHandler) Clone() any {
	clone := &connHandler{
		handler:        h.handler,
		negotiate:      h.negotiate,
		maxHeaderBytes: h.maxHeaderBytes,
		reverseLookup:  h.reverseLookup,
		resolveHost:    h.resolveHost,
		headerTimeout:  h.headerTimeout,
		bodyTimeout:    h.bodyTimeout,
	}
	clone.timeouts = newTimeoutTracker(clone.onTimeout)
	return clone
}

func (h *connHandler) bindTransport(t api.Transport) {
	h.transport = t
	h.timeouts.bind(t)
}

func (h *connHandler) OnConnection(peer *api.Peer) {
	peer.Attach(attachmentParser, httpparser.NewParserWithLimits(h.maxHeaderBytes, httpparser.DefaultMaxBodyBytes))
	if h.reverseLookup {
		peer.Hostname(h.resolveHost)
	}
	if h.headerTimeout > 0 {
		h.timeouts.arm(peer.Fd, h.headerTimeout)
	}
}

func (h *connHandler) OnDisconnection(peer *api.Peer) {
	h.timeouts.disarm(peer.Fd)
}

func (h *connHandler) OnInput(data []byte, peer *api.Peer) {
	v, ok := peer.Attachment(attachmentParser)
	if !ok {
		return
	}
	parser := v.(*httpparser.Parser)

	state, err := parser.Feed(data)
	if err != nil {
		h.timeouts.disarm(peer.Fd)
		h.writeError(peer, err)
		parser.Reset()
		return
	}
	if state != httpparser.Done {
		if parser.Step() == 2 && h.bodyTimeout > 0 {
			h.timeouts.arm(peer.Fd, h.bodyTimeout)
		}
		return
	}
	h.timeouts.disarm(peer.Fd)

	req := parser.Request()
	w := httpwriter.New(h.transport, peer.Fd, req.Version)
	if h.negotiate {
		if enc := httpwriter.NegotiateEncoding(req.Headers.AcceptEncoding()); enc != httpwriter.EncodingNone {
			w.SetCompression(enc)
		}
	}
	if h.handler != nil {
		h.handler.Handle(req, w)
	}
	parser.Reset()

	if h.headerTimeout > 0 {
		h.timeouts.arm(peer.Fd, h.headerTimeout)
	}
}

func (h *connHandler) writeError(peer *api.Peer, err error) {
	code := 400
	if he, ok := err.(*api.HTTPError); ok {
		code = he.Code
	}
	resp := httpparser.NewResponse()
	resp.Code = code
	resp.Reason = ""
	resp.Headers.Set("Connection", "close")
	fd := peer.Fd
	w := httpwriter.New(h.transport, fd, api.Version11)
	w.Send(resp).Then(
		func(int) { h.transport.ClosePeer(fd) },
		func(error) { h.transport.ClosePeer(fd) },
	)
}

// onTimeout fires when a peer's header or body read deadline expires:
// it answers 408 Request Timeout and retires the connection, per
// spec.md §7's timeout-kind error handling.
func (h *connHandler) onTimeout(fd uintptr) {
	resp := httpparser.NewResponse()
	resp.Code = 408
	resp.Reason = "Request Timeout"
	resp.Headers.Set("Connection", "close")
	w := httpwriter.New(h.transport, fd, api.Version11)
	w.Send(resp).Then(
		func(int) { h.transport.ClosePeer(fd) },
		func(error) { h.transport.ClosePeer(fd) },
	)
}
