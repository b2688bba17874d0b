// File: httpwriter/chunkwriter.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Streaming chunked-transfer-encoding body writer returned by
// Writer.Stream. Grounded on spec.md §4.7's streaming contract: each
// Write call frames one chunk (hex length, CRLF, payload, CRLF); frames
// accumulate in an internal buffer flushed once it reaches the
// configured threshold, and Ends appends the terminating 0-length chunk.

package httpwriter

import (
	"fmt"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
)

// ChunkWriter writes a chunked-encoded response body. Not safe for
// concurrent use.
type ChunkWriter struct {
	w      *Writer
	buf    []byte
	closed bool
}

// Write frames p as one chunk and appends it to the internal buffer,
// auto-flushing once the buffer reaches the configured threshold. It
// implements io.Writer so callers can use the "<<" idiom via repeated
// Write calls.
func (cw *ChunkWriter) Write(p []byte) (int, error) {
	if cw.closed {
		return 0, fmt.Errorf("httpwriter: write after Ends")
	}
	if len(p) == 0 {
		return 0, nil
	}
	cw.buf = append(cw.buf, []byte(fmt.Sprintf("%x\r\n", len(p)))...)
	cw.buf = append(cw.buf, p...)
	cw.buf = append(cw.buf, '\r', '\n')
	if len(cw.buf) >= cw.w.chunkBuf {
		cw.Flush()
	}
	return len(p), nil
}

// Flush forces an asyncWrite of whatever is currently buffered,
// regardless of the auto-flush threshold.
func (cw *ChunkWriter) Flush() *deferred.Deferred[int] {
	if len(cw.buf) == 0 {
		return deferred.Resolved(0)
	}
	out := cw.buf
	cw.buf = cw.buf[:0]
	return cw.w.transport.AsyncWrite(cw.w.fd, out, api.WriteCopy)
}

// Ends appends the terminating 0-length chunk and flushes, closing the
// stream. Further Write calls return an error.
func (cw *ChunkWriter) Ends() *deferred.Deferred[int] {
	cw.closed = true
	cw.buf = append(cw.buf, []byte("0\r\n\r\n")...)
	return cw.Flush()
}
