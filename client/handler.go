// File: client/handler.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// connHandler is the api.ConnHandler prototype Client clones once per
// reactor worker, mirroring listener/handler.go's connHandler shape but
// running in the opposite direction: it parses responses instead of
// requests and resolves a per-connection FIFO of pending Deferreds
// instead of invoking a RequestHandler.

package client

import (
	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/httpparser"
)

const attachmentResponseParser = "httpparser.ResponseParser"

type connHandler struct {
	pool *connectionPool
}

// Clone implements api.Prototype.
func (h *connHandler) Clone() any {
	return &connHandler{pool: h.pool}
}

func (h *connHandler) OnConnection(peer *api.Peer) {
	peer.Attach(attachmentResponseParser, httpparser.NewResponseParser())
}

func (h *connHandler) OnDisconnection(peer *api.Peer) {
	h.pool.onClosed(peer.Fd)
}

func (h *connHandler) OnInput(data []byte, peer *api.Peer) {
	v, ok := peer.Attachment(attachmentResponseParser)
	if !ok {
		return
	}
	parser := v.(*httpparser.ResponseParser)

	state, err := parser.Feed(data)
	if err != nil {
		h.pool.failPending(peer.Fd, err)
		return
	}
	if state != httpparser.Done {
		return
	}

	resp := parser.Response()
	keepAlive := resp.Headers.KeepAlive(resp.Version == api.Version11)
	h.pool.deliver(peer.Fd, resp, keepAlive)
	parser.Reset()
}
