package transport

import (
	"testing"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/pool"
	"github.com/momentics/htcore/reactor"
)

type recordingHandler struct {
	connected    []*api.Peer
	disconnected []*api.Peer
	input        [][]byte
}

func (h *recordingHandler) Clone() any { return &recordingHandler{} }
func (h *recordingHandler) OnConnection(p *api.Peer)    { h.connected = append(h.connected, p) }
func (h *recordingHandler) OnDisconnection(p *api.Peer) { h.disconnected = append(h.disconnected, p) }
func (h *recordingHandler) OnInput(data []byte, p *api.Peer) {
	cp := make([]byte, len(data))
	copy(cp, data)
	h.input = append(h.input, cp)
}

func TestTransport_ArmTimerResolves(t *testing.T) {
	w, err := reactor.NewWorker(0)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	defer w.Close()
	go w.Run(nil)
	defer w.Shutdown(time.Second)

	tr, err := New(w, &recordingHandler{}, pool.New())
	if err != nil {
		t.Fatalf("New transport: %v", err)
	}
	defer tr.Close()

	d := tr.ArmTimer(20 * time.Millisecond)
	v, err, ok := deferredWait(d, time.Second)
	if !ok {
		t.Fatal("timer never fired")
	}
	if err != nil {
		t.Fatalf("timer deferred rejected: %v", err)
	}
	if v == 0 {
		t.Error("expected at least one expiration")
	}
}

func TestTransport_DisarmTimerRejectsWait(t *testing.T) {
	w, err := reactor.NewWorker(0)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	defer w.Close()
	go w.Run(nil)
	defer w.Shutdown(time.Second)

	tr, err := New(w, &recordingHandler{}, pool.New())
	if err != nil {
		t.Fatalf("New transport: %v", err)
	}
	defer tr.Close()

	d := tr.ArmTimer(time.Hour)
	if err := tr.DisarmTimer(); err != nil {
		t.Fatalf("DisarmTimer: %v", err)
	}
	_, err, ok := deferredWait(d, time.Second)
	if !ok {
		t.Fatal("disarm should settle the pending wait")
	}
	if err != api.ErrOperationTimeout {
		t.Errorf("got %v, want ErrOperationTimeout", err)
	}
}

func deferredWait[T any](d interface {
	Peek() (T, error, bool)
}, timeout time.Duration) (T, error, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if v, err, ok := d.Peek(); ok {
			return v, err, true
		}
		time.Sleep(time.Millisecond)
	}
	var zero T
	return zero, nil, false
}
