package listener

import (
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/httpparser"
	"github.com/momentics/htcore/httpwriter"
)

func TestEndpoint_HeaderTimeoutSends408(t *testing.T) {
	handler := RequestHandlerFunc(func(req *httpparser.Request, w *httpwriter.Writer) {
		resp := httpparser.NewResponse()
		w.Send(resp)
	})

	ep, err := Init(Config{Workers: 1, Options: Options{HeaderTimeout: 100 * time.Millisecond}}, handler)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := ep.Bind(api.Address{Host: "127.0.0.1", Port: 0}); err != nil {
		t.Skipf("bind not available in this sandbox: %v", err)
	}
	addr := ep.listener.Addr()
	if err := ep.ServeThreaded(); err != nil {
		t.Fatalf("ServeThreaded: %v", err)
	}
	defer ep.Shutdown(time.Second)
	time.Sleep(50 * time.Millisecond)

	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	// Send nothing; the armed header timeout should answer 408 and
	// close the connection on its own.
	out, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !containsStr(string(out), "408") {
		t.Errorf("expected 408 response, got %q", out)
	}
}

func TestEndpoint_MaxRequestSizeSends413(t *testing.T) {
	handler := RequestHandlerFunc(func(req *httpparser.Request, w *httpwriter.Writer) {
		resp := httpparser.NewResponse()
		w.Send(resp)
	})

	ep, err := Init(Config{Workers: 1, Options: Options{MaxRequestSize: 64}}, handler)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := ep.Bind(api.Address{Host: "127.0.0.1", Port: 0}); err != nil {
		t.Skipf("bind not available in this sandbox: %v", err)
	}
	addr := ep.listener.Addr()
	if err := ep.ServeThreaded(); err != nil {
		t.Fatalf("ServeThreaded: %v", err)
	}
	defer ep.Shutdown(time.Second)
	time.Sleep(50 * time.Millisecond)

	conn, err := net.DialTimeout("tcp", addr.String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(2 * time.Second))

	big := strings.Repeat("a", 200)
	if _, err := conn.Write([]byte("GET /" + big + " HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !containsStr(string(out), "413") {
		t.Errorf("expected 413 response, got %q", out)
	}
}

func TestEndpoint_DefaultMaxRequestSizeIs4KiB(t *testing.T) {
	if httpparser.DefaultMaxHeaderBytes != 4*1024 {
		t.Errorf("expected default header cap of 4KiB, got %d", httpparser.DefaultMaxHeaderBytes)
	}
}
