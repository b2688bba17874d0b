package httpwriter

import (
	"testing"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/httpparser"
)

type fakeTransport struct {
	writes [][]byte
}

func (f *fakeTransport) Resolve(ref api.PeerRef) (*api.Peer, error) { return nil, api.ErrStalePeer }
func (f *fakeTransport) HandleNewPeer(peer *api.Peer) error         { return nil }
func (f *fakeTransport) AsyncWrite(fd uintptr, buf []byte, flags api.WriteFlags) *deferred.Deferred[int] {
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.writes = append(f.writes, cp)
	return deferred.Resolved(len(buf))
}
func (f *fakeTransport) AsyncConnect(fd uintptr, addr api.Address) *deferred.Deferred[struct{}] {
	return deferred.Resolved(struct{}{})
}
func (f *fakeTransport) ArmTimer(d time.Duration) *deferred.Deferred[uint64] {
	return deferred.Resolved[uint64](0)
}
func (f *fakeTransport) DisarmTimer() error        { return nil }
func (f *fakeTransport) ClosePeer(fd uintptr) error { return nil }
func (f *fakeTransport) Close() error              { return nil }

func TestWriter_SendSetsContentLength(t *testing.T) {
	ft := &fakeTransport{}
	w := New(ft, 1, api.Version11)
	resp := httpparser.NewResponse()
	resp.Body = []byte("hello")
	w.Send(resp)

	if len(ft.writes) != 1 {
		t.Fatalf("got %d writes, want 1", len(ft.writes))
	}
	out := string(ft.writes[0])
	if !contains(out, "Content-Length: 5") {
		t.Errorf("missing Content-Length: %q", out)
	}
	if !contains(out, "HTTP/1.1 200 OK") {
		t.Errorf("missing status line: %q", out)
	}
	if !contains(out, "hello") {
		t.Errorf("missing body: %q", out)
	}
}

func TestWriter_StreamEmitsChunksSeparately(t *testing.T) {
	ft := &fakeTransport{}
	w := New(ft, 1, api.Version11)
	resp := httpparser.NewResponse()
	cw := w.Stream(resp)
	cw.Write([]byte("PO"))
	cw.Write([]byte("NG"))
	cw.Ends()

	if len(ft.writes) < 2 {
		t.Fatalf("got %d writes, want at least 2 (head + chunks)", len(ft.writes))
	}
	head := string(ft.writes[0])
	if !contains(head, "Transfer-Encoding: chunked") {
		t.Errorf("missing chunked header: %q", head)
	}
	rest := ""
	for _, w := range ft.writes[1:] {
		rest += string(w)
	}
	want := "2\r\nPO\r\n2\r\nNG\r\n0\r\n\r\n"
	if rest != want {
		t.Errorf("chunk stream = %q, want %q", rest, want)
	}
}

func TestWriter_CompressionSetsContentEncoding(t *testing.T) {
	ft := &fakeTransport{}
	w := New(ft, 1, api.Version11)
	w.SetCompression(EncodingDeflate)
	resp := httpparser.NewResponse()
	resp.Body = []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	w.Send(resp)

	out := string(ft.writes[0])
	if !contains(out, "Content-Encoding: deflate") {
		t.Errorf("missing Content-Encoding: %q", out)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
