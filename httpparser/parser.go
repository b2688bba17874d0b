// File: httpparser/parser.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Incremental, resumable HTTP/1.x request parser. Grounded on
// original_source/src/http.cc's Private::{RequestLineStep, HeadersStep,
// BodyStep} and its top-level Parser::parse() drive loop (State::Again /
// State::Next / State::Done), re-expressed over a growable Go byte slice
// instead of the original's StreamCursor, and extended with a chunked
// decode path the original's BodyStep (Content-Length-only) didn't need
// to cover to the same extent since the design calls for it explicitly.

package httpparser

import (
	"bytes"
	"strconv"

	"github.com/momentics/htcore/api"
)

// State is the result of one parse step, mirroring the design's
// NeedMore/Next/Done trio.
type State int

const (
	// NeedMore means the buffered bytes are insufficient; Feed must be
	// called again with more data before this step can proceed.
	NeedMore State = iota
	// Next means this step is done; the parser advances to the next step.
	Next
	// Done means the entire message has been parsed.
	Done
)

// DefaultMaxHeaderBytes caps the accumulated start-line+headers size
// before the parser raises HTTP 413, preventing unbounded buffering from
// a slow-loris-style client. 4 KiB matches the design's default
// maxRequestSize.
const DefaultMaxHeaderBytes = 4 * 1024

// DefaultMaxBodyBytes caps the body size the parser will buffer.
const DefaultMaxBodyBytes = 16 * 1024 * 1024

// Parser incrementally parses one HTTP request per instance; Reset
// prepares it to parse the next pipelined request on the same connection.
type Parser struct {
	buf []byte
	pos int

	step int
	req  *Request

	bodyRead    int64
	chunkState  chunkState
	chunkRemain int64

	maxHeaderBytes int
	maxBodyBytes   int
}

type chunkState int

const (
	chunkSize chunkState = iota
	chunkData
	chunkDataCRLF
	chunkTrailer
)

// NewParser creates a Parser with the default size caps.
func NewParser() *Parser {
	return newParserWithCaps(DefaultMaxHeaderBytes, DefaultMaxBodyBytes)
}

// NewParserWithLimits creates a Parser with explicit header/body caps.
func NewParserWithLimits(maxHeaderBytes, maxBodyBytes int) *Parser {
	return newParserWithCaps(maxHeaderBytes, maxBodyBytes)
}

func newParserWithCaps(maxHeader, maxBody int) *Parser {
	p := &Parser{maxHeaderBytes: maxHeader, maxBodyBytes: maxBody}
	p.Reset()
	return p
}

// Reset discards any parsed/partial message state, keeping the size caps,
// so the Parser can be reused for the next request on a keep-alive
// connection (any unconsumed bytes in buf — the start of a pipelined next
// request — are preserved).
func (p *Parser) Reset() {
	remaining := p.buf[p.pos:]
	p.buf = append([]byte(nil), remaining...)
	p.pos = 0
	p.step = 0
	p.req = NewRequest()
	p.bodyRead = 0
	p.chunkState = chunkSize
	p.chunkRemain = 0
}

// Request returns the message parsed so far (complete once Feed returns
// Done).
func (p *Parser) Request() *Request { return p.req }

// Step reports the parser's current phase: 0 request-line, 1 headers,
// 2 body. Used by callers that need to know whether a header-read or
// body-read timeout applies to the connection's current state.
func (p *Parser) Step() int { return p.step }

// Feed appends chunk to the internal buffer and drives the parse state
// machine as far as it will go, returning Done once a full request has
// been parsed, NeedMore if more bytes are required, or an *api.HTTPError
// (400 for malformed syntax, 413 for exceeding a size cap).
func (p *Parser) Feed(chunk []byte) (State, error) {
	p.buf = append(p.buf, chunk...)

	for {
		if p.step < 2 && len(p.buf) > p.maxHeaderBytes {
			return NeedMore, api.NewHTTPError(413, "request header too large")
		}
		var (
			st  State
			err error
		)
		switch p.step {
		case 0:
			st, err = p.stepRequestLine()
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

func (p *Parser) findCRLF(from int) int {
	return bytes.Index(p.buf[from:], []byte("\r\n"))
}

// stepRequestLine parses "METHOD SP resource[?query] SP HTTP/x.y CRLF".
func (p *Parser) stepRequestLine() (State, error) {
	idx := p.findCRLF(p.pos)
	if idx < 0 {
		return NeedMore, nil
	}
	line := p.buf[p.pos : p.pos+idx]
	p.pos += idx + 2

	sp1 := bytes.IndexByte(line, ' ')
	if sp1 < 0 {
		return Next, api.NewParseError("malformed request line: missing method separator")
	}
	methodTok := string(line[:sp1])
	method, ok := api.ParseMethod(methodTok)
	if !ok {
		return Next, api.NewParseError("unknown HTTP method " + methodTok)
	}
	p.req.Method = method

	rest := line[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 < 0 {
		return Next, api.NewParseError("malformed request line: missing version separator")
	}
	target := rest[:sp2]
	versionTok := string(rest[sp2+1:])

	if q := bytes.IndexByte(target, '?'); q >= 0 {
		p.req.Resource = string(target[:q])
		parseQuery(string(target[q+1:]), p.req.Query)
	} else {
		p.req.Resource = string(target)
	}

	switch versionTok {
	case "HTTP/1.0":
		p.req.Version = api.Version10
	case "HTTP/1.1":
		p.req.Version = api.Version11
	default:
		return Next, api.NewParseError("unsupported HTTP version " + versionTok)
	}
	return Next, nil
}

func parseQuery(raw string, out map[string][]string) {
	start := 0
	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == '&' {
			if i > start {
				pair := raw[start:i]
				if eq := indexByteStr(pair, '='); eq >= 0 {
					out[pair[:eq]] = append(out[pair[:eq]], pair[eq+1:])
				} else {
					out[pair] = append(out[pair], "")
				}
			}
			start = i + 1
		}
	}
}

func indexByteStr(s string, c byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == c {
			return i
		}
	}
	return -1
}

// stepHeaders parses "Name: value" lines up to the blank-line terminator.
func (p *Parser) stepHeaders() (State, error) {
	for {
		idx := p.findCRLF(p.pos)
		if idx < 0 {
			return NeedMore, nil
		}
		line := p.buf[p.pos : p.pos+idx]
		p.pos += idx + 2

		if len(line) == 0 {
			if raw, ok := p.req.Headers.Get("Cookie"); ok {
				_ = p.req.Cookies.ParseCookieHeader(raw)
			}
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
		p.req.Headers.Add(name, value)
	}
}

// stepBody dispatches to the chunked or Content-Length body decoder, or
// completes immediately if neither is present (no body).
func (p *Parser) stepBody() (State, error) {
	if p.req.Headers.IsChunked() {
		return p.stepChunkedBody()
	}
	cl, ok := p.req.Headers.ContentLength()
	if !ok || cl == 0 {
		return Done, nil
	}
	if cl > int64(p.maxBodyBytes) {
		return Done, api.NewHTTPError(413, "request body too large")
	}
	available := int64(len(p.buf) - p.pos)
	remaining := cl - p.bodyRead
	if available < remaining {
		p.req.Body = append(p.req.Body, p.buf[p.pos:]...)
		p.bodyRead += available
		p.pos = len(p.buf)
		return NeedMore, nil
	}
	p.req.Body = append(p.req.Body, p.buf[p.pos:p.pos+int(remaining)]...)
	p.pos += int(remaining)
	return Done, nil
}

// stepChunkedBody decodes a Transfer-Encoding: chunked body per RFC 7230
// §4.1, ignoring chunk extensions and trailers beyond consuming them.
func (p *Parser) stepChunkedBody() (State, error) {
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
			if int64(len(p.req.Body))+size > int64(p.maxBodyBytes) {
				return Done, api.NewHTTPError(413, "chunked body too large")
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
				p.req.Body = append(p.req.Body, p.buf[p.pos:]...)
				p.chunkRemain -= available
				p.pos = len(p.buf)
				return NeedMore, nil
			}
			p.req.Body = append(p.req.Body, p.buf[p.pos:p.pos+int(p.chunkRemain)]...)
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
