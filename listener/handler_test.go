package listener

import (
	"testing"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/httpparser"
	"github.com/momentics/htcore/httpwriter"
)

func TestConnHandler_ReverseLookupResolvesEagerly(t *testing.T) {
	h := newConnHandlerPrototype(RequestHandlerFunc(func(*httpparser.Request, *httpwriter.Writer) {}), Options{ReverseLookup: true})
	clone := h.Clone().(*connHandler)
	clone.resolveHost = func(api.Address) string { return "eager.example" }

	peer := api.NewPeer(42, api.Address{Host: "127.0.0.1", Port: 1234}, 1)
	clone.OnConnection(peer)

	// OnConnection's eager resolve should have already consumed the
	// once-guard: a later Hostname call with a distinct resolver must
	// return the value cached during OnConnection, not re-resolve.
	got := peer.Hostname(func(api.Address) string { return "should-not-run" })
	if got != "eager.example" {
		t.Errorf("expected eager resolution from OnConnection, got %q", got)
	}
}

func TestConnHandler_HeaderTimeoutNotArmedWhenDisabled(t *testing.T) {
	h := newConnHandlerPrototype(RequestHandlerFunc(func(*httpparser.Request, *httpwriter.Writer) {}), Options{})
	clone := h.Clone().(*connHandler)

	peer := api.NewPeer(1, api.Address{Host: "127.0.0.1", Port: 1}, 1)
	clone.OnConnection(peer)

	clone.timeouts.mu.Lock()
	_, armed := clone.timeouts.deadlines[peer.Fd]
	clone.timeouts.mu.Unlock()
	if armed {
		t.Errorf("expected no timeout armed when HeaderTimeout is 0")
	}
}

func TestConnHandler_HeaderTimeoutArmedOnConnect(t *testing.T) {
	h := newConnHandlerPrototype(RequestHandlerFunc(func(*httpparser.Request, *httpwriter.Writer) {}), Options{HeaderTimeout: time.Minute})
	clone := h.Clone().(*connHandler)

	peer := api.NewPeer(2, api.Address{Host: "127.0.0.1", Port: 1}, 1)
	clone.OnConnection(peer)

	clone.timeouts.mu.Lock()
	_, armed := clone.timeouts.deadlines[peer.Fd]
	clone.timeouts.mu.Unlock()
	if !armed {
		t.Errorf("expected a timeout armed when HeaderTimeout > 0")
	}

	clone.OnDisconnection(peer)
	clone.timeouts.mu.Lock()
	_, stillArmed := clone.timeouts.deadlines[peer.Fd]
	clone.timeouts.mu.Unlock()
	if stillArmed {
		t.Errorf("expected OnDisconnection to disarm the pending timeout")
	}
}
