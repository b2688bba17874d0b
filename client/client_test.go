package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/httpparser"
	"github.com/momentics/htcore/httpwriter"
	"github.com/momentics/htcore/listener"
)

func startEchoServer(t *testing.T) (api.Address, func()) {
	t.Helper()
	var hits int
	handler := listener.RequestHandlerFunc(func(req *httpparser.Request, w *httpwriter.Writer) {
		hits++
		resp := httpparser.NewResponse()
		resp.Body = []byte(fmt.Sprintf("hit %d on %s", hits, req.Resource))
		w.Send(resp)
	})

	ep, err := listener.Init(listener.Config{Workers: 1}, handler)
	if err != nil {
		t.Fatalf("listener.Init: %v", err)
	}
	if err := ep.Bind(api.Address{Host: "127.0.0.1", Port: 0}); err != nil {
		t.Skipf("bind not available in this sandbox: %v", err)
	}
	addr := ep.Addr()
	if err := ep.ServeThreaded(); err != nil {
		t.Fatalf("ServeThreaded: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	return addr, func() { ep.Shutdown(time.Second) }
}

func TestClient_GetRoundTrip(t *testing.T) {
	addr, stop := startEchoServer(t)
	defer stop()

	c, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	defer c.Shutdown(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	d := c.Get(ctx, fmt.Sprintf("http://%s/hello", addr.String()))
	resp, err := awaitResponse(t, d)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Code != 200 {
		t.Errorf("expected 200, got %d", resp.Code)
	}
	if string(resp.Body) != "hit 1 on /hello" {
		t.Errorf("unexpected body: %q", resp.Body)
	}
}

func TestClient_ReusesPooledConnection(t *testing.T) {
	addr, stop := startEchoServer(t)
	defer stop()

	c, err := New(DefaultOptions())
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	defer c.Shutdown(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := fmt.Sprintf("http://%s/r", addr.String())
	first, err := awaitResponse(t, c.Get(ctx, url))
	if err != nil {
		t.Fatalf("first Get: %v", err)
	}

	// Give the connection time to settle back into the idle pool before
	// the second request, since delivery and idle-return happen
	// asynchronously on the worker goroutine relative to this test.
	time.Sleep(20 * time.Millisecond)

	second, err := awaitResponse(t, c.Get(ctx, url))
	if err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if string(first.Body) == string(second.Body) {
		t.Errorf("expected distinct hit counts, got %q twice", first.Body)
	}

	c.pool.mu.Lock()
	totalIdle := 0
	for _, lst := range c.pool.idle {
		totalIdle += len(lst)
	}
	c.pool.mu.Unlock()
	if totalIdle == 0 {
		t.Errorf("expected the reused connection to end up idle again")
	}
}

func awaitResponse(t *testing.T, d *deferred.Deferred[*httpparser.Response]) (*httpparser.Response, error) {
	t.Helper()
	type result struct {
		resp *httpparser.Response
		err  error
	}
	ch := make(chan result, 1)
	d.Then(
		func(resp *httpparser.Response) { ch <- result{resp: resp} },
		func(err error) { ch <- result{err: err} },
	)
	select {
	case r := <-ch:
		return r.resp, r.err
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for response")
		return nil, nil
	}
}
