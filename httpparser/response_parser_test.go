package httpparser

import "testing"

func TestResponseParser_SimpleOK(t *testing.T) {
	p := NewResponseParser()
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
	state, err := p.Feed([]byte(raw))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if state != Done {
		t.Fatalf("expected Done, got %v", state)
	}
	resp := p.Response()
	if resp.Code != 200 || resp.Reason != "OK" {
		t.Errorf("unexpected status: %d %q", resp.Code, resp.Reason)
	}
	if string(resp.Body) != "hello" {
		t.Errorf("unexpected body: %q", resp.Body)
	}
}

func TestResponseParser_ChunkedBody(t *testing.T) {
	p := NewResponseParser()
	raw := "HTTP/1.1 200 OK\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"2\r\nPO\r\n2\r\nNG\r\n0\r\n\r\n"
	state, err := p.Feed([]byte(raw))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if state != Done {
		t.Fatalf("expected Done, got %v", state)
	}
	if string(p.Response().Body) != "PONG" {
		t.Errorf("unexpected body: %q", p.Response().Body)
	}
}

func TestResponseParser_NoContentLengthIsImmediatelyDone(t *testing.T) {
	p := NewResponseParser()
	raw := "HTTP/1.1 204 No Content\r\nConnection: close\r\n\r\n"
	state, err := p.Feed([]byte(raw))
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if state != Done {
		t.Fatalf("expected Done, got %v", state)
	}
	if p.Response().Code != 204 {
		t.Errorf("unexpected code: %d", p.Response().Code)
	}
}

func TestResponseParser_MalformedStatusLine(t *testing.T) {
	p := NewResponseParser()
	_, err := p.Feed([]byte("garbage\r\n"))
	if err == nil {
		t.Fatal("expected malformed status line to error")
	}
}

func TestResponseParser_Reset(t *testing.T) {
	p := NewResponseParser()
	raw := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nokHTTP/1.1 404 Not Found\r\nContent-Length: 0\r\n\r\n"
	state, err := p.Feed([]byte(raw))
	if err != nil || state != Done {
		t.Fatalf("first response: state=%v err=%v", state, err)
	}
	p.Reset()
	state, err = p.Feed(nil)
	if err != nil || state != Done {
		t.Fatalf("second response after reset: state=%v err=%v", state, err)
	}
	if p.Response().Code != 404 {
		t.Errorf("expected 404, got %d", p.Response().Code)
	}
}
