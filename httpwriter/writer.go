// File: httpwriter/writer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Response serializer over a Transport-owned peer fd. Supports a
// single-shot send path and a streaming chunked path (see
// chunkwriter.go), plus a serveFile path for static content. Grounded on
// original_source/src/http.cc's ResponseWriter/Http::serializeHeaders
// shape, re-expressed over Transport.AsyncWrite instead of the original's
// owned libevent buffer.

package httpwriter

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/httpparser"
)

// DefaultChunkBufferSize is the default accumulation size before a
// streaming ChunkWriter forces a flush (spec's "default 512 bytes").
const DefaultChunkBufferSize = 512

// DefaultMaxResponseSize caps a single-shot Send body; streaming mode
// bypasses this cap.
const DefaultMaxResponseSize = 4096

// Writer serializes one response onto fd via transport. It is not safe
// for concurrent use — one Writer exists per in-flight request/response.
type Writer struct {
	transport   api.Transport
	fd          uintptr
	version     httpparser.Version
	chunkBuf    int
	maxResponse int
	compression Encoding
}

// New creates a Writer bound to a peer's fd on the worker owning
// transport.
func New(transport api.Transport, fd uintptr, version httpparser.Version) *Writer {
	return &Writer{
		transport:   transport,
		fd:          fd,
		version:     version,
		chunkBuf:    DefaultChunkBufferSize,
		maxResponse: DefaultMaxResponseSize,
	}
}

// SetCompression sets the policy applied to Send's body (streaming
// bodies are not compressed, matching the spec's assumption that
// streamed payloads are already framed by the caller).
func (w *Writer) SetCompression(e Encoding) { w.compression = e }

// SetChunkBufferSize overrides the default 512-byte streaming flush
// threshold.
func (w *Writer) SetChunkBufferSize(n int) {
	if n > 0 {
		w.chunkBuf = n
	}
}

// SetMaxResponseSize overrides the default single-shot Send body cap;
// n <= 0 disables the cap entirely.
func (w *Writer) SetMaxResponseSize(n int) { w.maxResponse = n }

// Send serializes and writes resp in a single shot: status line,
// headers, Content-Length, and body. If a compression policy is set and
// the body is non-empty, the body is compressed first and a matching
// Content-Encoding header is added.
func (w *Writer) Send(resp *httpparser.Response) *deferred.Deferred[int] {
	resp.Version = w.version
	body := resp.Body
	if w.compression != EncodingNone && len(body) > 0 {
		compressed, err := compressBody(w.compression, body)
		if err != nil {
			return deferred.Rejected[int](err)
		}
		body = compressed
		resp.Headers.Set("Content-Encoding", w.compression.HeaderValue())
	}
	if w.maxResponse > 0 && len(body) > w.maxResponse {
		return deferred.Rejected[int](api.NewHTTPError(500,
			fmt.Sprintf("response body %d bytes exceeds maxResponseSize %d", len(body), w.maxResponse)))
	}
	resp.Headers.Del("Transfer-Encoding")
	resp.Headers.Set("Content-Length", strconv.Itoa(len(body)))

	buf := serializeHead(resp)
	buf = append(buf, body...)
	return w.transport.AsyncWrite(w.fd, buf, api.WriteCopy)
}

// Stream writes resp's status line and headers with Transfer-Encoding:
// chunked, and returns a ChunkWriter for emitting the body incrementally.
// resp.Body is ignored; write it through the returned ChunkWriter.
func (w *Writer) Stream(resp *httpparser.Response) *ChunkWriter {
	resp.Version = w.version
	resp.Headers.Del("Content-Length")
	resp.Headers.Set("Transfer-Encoding", "chunked")
	head := serializeHead(resp)
	w.transport.AsyncWrite(w.fd, head, api.WriteCopy|api.WriteMore)
	return &ChunkWriter{w: w, buf: make([]byte, 0, w.chunkBuf)}
}

// ServeFile opens path, stats it for Content-Length, sends the headers
// with WriteMore, then streams the file's contents. mime overrides the
// Content-Type; an empty mime leaves Content-Type unset.
func (w *Writer) ServeFile(path, mime string) *deferred.Deferred[int] {
	f, err := os.Open(path)
	if err != nil {
		return deferred.Rejected[int](err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return deferred.Rejected[int](err)
	}
	if info.IsDir() {
		return deferred.Rejected[int](fmt.Errorf("httpwriter: %s is a directory", path))
	}

	resp := httpparser.NewResponse()
	resp.Version = w.version
	resp.Headers.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	if mime != "" {
		resp.Headers.Set("Content-Type", mime)
	}
	resp.Headers.Del("Transfer-Encoding")

	head := serializeHead(resp)
	headDeferred := w.transport.AsyncWrite(w.fd, head, api.WriteCopy|api.WriteMore)

	data, err := io.ReadAll(f)
	if err != nil {
		return deferred.Rejected[int](err)
	}
	out := deferred.New[int]()
	headDeferred.Then(func(int) {
		w.transport.AsyncWrite(w.fd, data, api.WriteCopy).Then(
			func(n int) { out.Resolve(n) },
			func(err error) { out.Reject(err) },
		)
	}, func(err error) { out.Reject(err) })
	return out
}
