// File: httpparser/response_parser.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Incremental response parser for Client's inbound side, mirroring
// parser.go's Step/State machine (status line, headers, body) but
// producing a Response instead of a Request. The body-decoding rules
// (Content-Length vs. chunked, size caps, 400/413) are identical to the
// request side, so this intentionally parallels parser.go's structure
// rather than sharing a generic core across two narrow, differently-
// shaped messages.

package httpparser

import (
	"bytes"
	"strconv"

	"github.com/momentics/htcore/api"
)

// ResponseParser incrementally parses one HTTP response per instance.
type ResponseParser struct {
	buf []byte
	pos int

	step int
	resp *Response

	bodyRead    int64
	chunkState  chunkState
	chunkRemain int64

	maxHeaderBytes int
	maxBodyBytes   int
}

// NewResponseParser creates a ResponseParser with the default size caps.
func NewResponseParser() *ResponseParser {
	return &ResponseParser{
		maxHeaderBytes: DefaultMaxHeaderBytes,
		maxBodyBytes:   DefaultMaxBodyBytes,
		resp:           NewResponse(),
	}
}

// Reset prepares the parser for the next response on a keep-alive
// connection, preserving any unconsumed trailing bytes (the start of the
// next pipelined response).
func (p *ResponseParser) Reset() {
	remaining := p.buf[p.pos:]
	p.buf = append([]byte(nil), remaining...)
	p.pos = 0
	p.step = 0
	p.resp = NewResponse()
	p.bodyRead = 0
	p.chunkState = chunkSize
	p.chunkRemain = 0
}

// Response returns the message parsed so far.
func (p *ResponseParser) Response() *Response { return p.resp }

// Feed appends chunk and drives the parse state machine; see Parser.Feed
// for the return-value contract.
func (p *ResponseParser) Feed(chunk []byte) (State, error) {
	p.buf = append(p.buf, chunk...)

	for {
		if p.step < 2 && len(p.buf) > p.maxHeaderBytes {
			return NeedMore, api.NewHTTPError(413, "response header too large")
		}
		var (
			st  State
			err error
		)
		switch p.step {
		case 0:
			st, err = p.stepStatusLine()
		case 1:
			st, err = p.stepHeaders()
		case 2:
			st, err = p.stepBody()
		}
		if err != nil {
			return NeedMore, err
		}
		if st == Next {
			p.step++
			continue
		}
		if st == Done {
			return Done, nil
		}
		return NeedMore, nil
	}
}

func (p *ResponseParser) findCRLF(from int) int {
	return bytes.Index(p.buf[from:], []byte("\r\n"))
}

func (p *ResponseParser) stepStatusLine() (State, error) {
	idx := p.findCRLF(p.pos)
	if idx < 0 {
		return NeedMore, nil
	}
	line := p.buf[p.pos : p.pos+idx]
	p.pos += idx + 2

	sp1 := bytes.IndexByte(line, ' ')
	if sp1 < 0 {
		return Next, api.NewParseError("malformed status line: missing version separator")
	}
	switch string(line[:sp1]) {
	case "HTTP/1.0":
		p.resp.Version = api.Version10
	case "HTTP/1.1":
		p.resp.Version = api.Version11
	default:
		return Next, api.NewParseError("unsupported HTTP version in status line")
	}

	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	var codeTok []byte
	if sp2 < 0 {
		codeTok = rest
	} else {
		codeTok = rest[:sp2]
		p.resp.Reason = string(bytes.TrimSpace(rest[sp2+1:]))
	}
	code, err := strconv.Atoi(string(bytes.TrimSpace(codeTok)))
	if err != nil {
		return Next, api.NewParseError("malformed status code")
	}
	p.resp.Code = code
	return Next, nil
}

func (p *ResponseParser) stepHeaders() (State, error) {
	for {
		idx := p.findCRLF(p.pos)
		if idx < 0 {
			return NeedMore, nil
		}
		line := p.buf[p.pos : p.pos+idx]
		p.pos += idx + 2

		if len(line) == 0 {
			return Next, nil
		}

		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			return Next, api.NewParseError("malformed header line: missing colon")
		}
		name := string(bytes.TrimSpace(line[:colon]))
		value := string(bytes.TrimSpace(line[colon+1:]))
		if name == "" {
			return Next, api.NewParseError("malformed header line: empty name")
		}
		p.resp.Headers.Add(name, value)
		if name == "Set-Cookie" {
			if c, err := ParseCookie(value); err == nil {
				p.resp.Cookies = append(p.resp.Cookies, c)
			}
		}
	}
}

func (p *ResponseParser) stepBody() (State, error) {
	// A response to a HEAD request or a 204/304 has no body regardless of
	// headers; callers that know this should skip straight to Done by
	// not feeding further bytes and reading Response() immediately after
	// the headers step. Here we follow Content-Length/chunked as given.
	if p.resp.Headers.IsChunked() {
		return p.stepChunkedBody()
	}
	cl, ok := p.resp.Headers.ContentLength()
	if !ok || cl == 0 {
		return Done, nil
	}
	if cl > int64(p.maxBodyBytes) {
		return Done, api.NewHTTPError(413, "response body too large")
	}
	available := int64(len(p.buf) - p.pos)
	remaining := cl - p.bodyRead
	if available < remaining {
		p.resp.Body = append(p.resp.Body, p.buf[p.pos:]...)
		p.bodyRead += available
		p.pos = len(p.buf)
		return NeedMore, nil
	}
	p.resp.Body = append(p.resp.Body, p.buf[p.pos:p.pos+int(remaining)]...)
	p.pos += int(remaining)
	return Done, nil
}

func (p *ResponseParser) stepChunkedBody() (State, error) {
	for {
		switch p.chunkState {
		case chunkSize:
			idx := p.findCRLF(p.pos)
			if idx < 0 {
				return NeedMore, nil
			}
			line := p.buf[p.pos : p.pos+idx]
			p.pos += idx + 2
			if semi := bytes.IndexByte(line, ';'); semi >= 0 {
				line = line[:semi]
			}
			size, err := strconv.ParseInt(string(bytes.TrimSpace(line)), 16, 64)
			if err != nil {
				return Done, api.NewParseError("malformed chunk size")
			}
			if int64(len(p.resp.Body))+size > int64(p.maxBodyBytes) {
				return Done, api.NewHTTPError(413, "chunked response body too large")
			}
			p.chunkRemain = size
			if size == 0 {
				p.chunkState = chunkTrailer
			} else {
				p.chunkState = chunkData
			}
		case chunkData:
			available := int64(len(p.buf) - p.pos)
			if available < p.chunkRemain {
				p.resp.Body = append(p.resp.Body, p.buf[p.pos:]...)
				p.chunkRemain -= available
				p.pos = len(p.buf)
				return NeedMore, nil
			}
			p.resp.Body = append(p.resp.Body, p.buf[p.pos:p.pos+int(p.chunkRemain)]...)
			p.pos += int(p.chunkRemain)
			p.chunkRemain = 0
			p.chunkState = chunkDataCRLF
		case chunkDataCRLF:
			if len(p.buf)-p.pos < 2 {
				return NeedMore, nil
			}
			p.pos += 2
			p.chunkState = chunkSize
		case chunkTrailer:
			idx := p.findCRLF(p.pos)
			if idx < 0 {
				return NeedMore, nil
			}
			line := p.buf[p.pos : p.pos+idx]
			p.pos += idx + 2
			if len(line) == 0 {
				return Done, nil
			}
		}
	}
}
