package httpparser

import (
	"strings"
	"testing"

	"github.com/momentics/htcore/api"
)

func TestParser_SimpleGet(t *testing.T) {
	raw := "GET /hello?name=world HTTP/1.1\r\nHost: example.com\r\n\r\n"
	p := NewParser()
	st, err := p.Feed([]byte(raw))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if st != Done {
		t.Fatalf("got %v, want Done", st)
	}
	req := p.Request()
	if req.Method != api.MethodGet {
		t.Errorf("method = %v, want GET", req.Method)
	}
	if req.Resource != "/hello" {
		t.Errorf("resource = %q, want /hello", req.Resource)
	}
	if got := req.Query["name"]; len(got) != 1 || got[0] != "world" {
		t.Errorf("query[name] = %v, want [world]", got)
	}
	if host, ok := req.Headers.Host(); !ok || host != "example.com" {
		t.Errorf("host = %q, %v", host, ok)
	}
}

// TestParser_BytePartitioning verifies that feeding the message one byte
// at a time produces the same parsed result as feeding it all at once,
// which is the whole point of an incremental parser.
func TestParser_BytePartitioning(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nHost: x\r\nContent-Length: 5\r\n\r\nhello"
	p := NewParser()
	var st State
	var err error
	for i := 0; i < len(raw); i++ {
		st, err = p.Feed([]byte{raw[i]})
		if err != nil {
			t.Fatalf("Feed byte %d: %v", i, err)
		}
	}
	if st != Done {
		t.Fatalf("got %v, want Done", st)
	}
	req := p.Request()
	if req.Method != api.MethodPost {
		t.Errorf("method = %v, want POST", req.Method)
	}
	if string(req.Body) != "hello" {
		t.Errorf("body = %q, want hello", req.Body)
	}
}

func TestParser_ContentLengthBody(t *testing.T) {
	raw := "PUT /x HTTP/1.1\r\nHost: x\r\nContent-Length: 11\r\n\r\nhello world"
	p := NewParser()
	st, err := p.Feed([]byte(raw))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if st != Done {
		t.Fatalf("got %v, want Done", st)
	}
	if string(p.Request().Body) != "hello world" {
		t.Errorf("body = %q", p.Request().Body)
	}
}

func TestParser_ChunkedBody(t *testing.T) {
	raw := "POST /x HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"5\r\nhello\r\n6\r\n world\r\n0\r\n\r\n"
	p := NewParser()
	st, err := p.Feed([]byte(raw))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if st != Done {
		t.Fatalf("got %v, want Done", st)
	}
	if string(p.Request().Body) != "hello world" {
		t.Errorf("body = %q, want %q", p.Request().Body, "hello world")
	}
}

func TestParser_ChunkedBodyBytePartitioning(t *testing.T) {
	raw := "POST /x HTTP/1.1\r\nHost: x\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"3\r\nfoo\r\n3\r\nbar\r\n0\r\n\r\n"
	p := NewParser()
	var st State
	var err error
	for i := 0; i < len(raw); i++ {
		st, err = p.Feed([]byte{raw[i]})
		if err != nil {
			t.Fatalf("Feed byte %d: %v", i, err)
		}
	}
	if st != Done {
		t.Fatalf("got %v, want Done", st)
	}
	if string(p.Request().Body) != "foobar" {
		t.Errorf("body = %q, want foobar", p.Request().Body)
	}
}

func TestParser_HeaderTooLarge(t *testing.T) {
	p := NewParserWithLimits(64, DefaultMaxBodyBytes)
	big := strings.Repeat("a", 200)
	_, err := p.Feed([]byte("GET /" + big + " HTTP/1.1\r\n\r\n"))
	if err == nil {
		t.Fatal("expected an error")
	}
	he, ok := err.(*api.HTTPError)
	if !ok || he.Code != 413 {
		t.Errorf("got %v, want HTTPError 413", err)
	}
}

func TestParser_MalformedRequestLine(t *testing.T) {
	p := NewParser()
	_, err := p.Feed([]byte("GARBAGE\r\n\r\n"))
	if err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestParser_UnknownMethod(t *testing.T) {
	p := NewParser()
	_, err := p.Feed([]byte("FROB / HTTP/1.1\r\n\r\n"))
	if err == nil {
		t.Fatal("expected a parse error for unknown method")
	}
}

func TestParser_NeedsMoreData(t *testing.T) {
	p := NewParser()
	st, err := p.Feed([]byte("GET / HTTP/1.1\r\nHost: x"))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if st != NeedMore {
		t.Fatalf("got %v, want NeedMore", st)
	}
}

func TestParser_Pipelining(t *testing.T) {
	raw := "GET /a HTTP/1.1\r\nHost: x\r\n\r\nGET /b HTTP/1.1\r\nHost: x\r\n\r\n"
	p := NewParser()
	st, err := p.Feed([]byte(raw))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if st != Done {
		t.Fatalf("got %v, want Done", st)
	}
	if p.Request().Resource != "/a" {
		t.Fatalf("resource = %q, want /a", p.Request().Resource)
	}
	p.Reset()
	st, err = p.Feed(nil)
	if err != nil {
		t.Fatalf("Feed after reset: %v", err)
	}
	if st != Done {
		t.Fatalf("got %v, want Done for second pipelined request", st)
	}
	if p.Request().Resource != "/b" {
		t.Fatalf("resource = %q, want /b", p.Request().Resource)
	}
}
