package listener

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/httpparser"
	"github.com/momentics/htcore/httpwriter"
)

func TestEndpoint_HelloWorld(t *testing.T) {
	handler := RequestHandlerFunc(func(req *httpparser.Request, w *httpwriter.Writer) {
		resp := httpparser.NewResponse()
		resp.Body = []byte("Hello, World!")
		w.Send(resp)
	})

	ep, err := Init(Config{Workers: 1}, handler)
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
	if _, err := conn.Write([]byte("GET / HTTP/1.1\r\nHost: x\r\nConnection: close\r\n\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got := string(out)
	if !containsStr(got, "200") || !containsStr(got, "Hello, World!") {
		t.Errorf("unexpected response: %q", got)
	}
}

func containsStr(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
