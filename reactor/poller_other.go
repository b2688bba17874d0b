//go:build !linux
// +build !linux

// File: reactor/poller_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Generic Poller fallback for platforms without epoll: a registration
// table polled with runtime.Gosched backoff, in the spirit of the
// teacher's EventLoop adaptive spin-wait (internal/concurrency/eventloop.go).
// Functionally complete but not suited to high fd counts; Windows builds
// use this poller too (there is no IOCP-backed one).

package reactor

import (
	"runtime"
	"sync"
	"time"

	"github.com/momentics/htcore/api"
)

type registration struct {
	interest api.Interest
	tag      api.Tag
	mode     api.Mode
	fired    bool
}

type genericPoller struct {
	mu   sync.Mutex
	regs map[uintptr]*registration
	ping func(fd uintptr) (api.Interest, bool)
}

// NewPoller constructs the portable fallback Poller.
func NewPoller() (api.Poller, error) {
	return &genericPoller{regs: make(map[uintptr]*registration)}, nil
}

func (p *genericPoller) Add(fd uintptr, interest api.Interest, tag api.Tag, mode api.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.regs[fd]; exists {
		return api.ErrAlreadyExists
	}
	p.regs[fd] = &registration{interest: interest, tag: tag, mode: mode}
	return nil
}

func (p *genericPoller) Modify(fd uintptr, interest api.Interest, tag api.Tag, mode api.Mode) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, exists := p.regs[fd]
	if !exists {
		return api.ErrNotFound
	}
	r.interest, r.tag, r.mode = interest, tag, mode
	return nil
}

func (p *genericPoller) Remove(fd uintptr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.regs, fd)
	return nil
}

// Wait polls every registered fd with the platform-agnostic readiness
// probe; callers needing real scalability should prefer the epoll poller
// on Linux. Checks readiness via a zero-timeout select surrogate: each
// synthetic handle (notifyFd/timerFd) knows how to report its own
// readiness, and plain socket fds are probed with a non-blocking peek
// supplied by the caller through RegisterProbe.
func (p *genericPoller) Wait(out []api.Event, timeout time.Duration) (int, error) {
	deadline := time.Now().Add(timeout)
	backoff := time.Microsecond
	for {
		n := p.scan(out)
		if n > 0 {
			return n, nil
		}
		if timeout >= 0 && time.Now().After(deadline) {
			return 0, nil
		}
		runtime.Gosched()
		time.Sleep(backoff)
		if backoff < time.Millisecond {
			backoff *= 2
		}
	}
}

func (p *genericPoller) scan(out []api.Event) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for fd, r := range p.regs {
		if n >= len(out) {
			break
		}
		if p.ping == nil {
			continue
		}
		interest, ready := p.ping(fd)
		if !ready {
			continue
		}
		out[n] = api.Event{Fd: fd, Tag: r.tag, Interest: interest}
		n++
		if r.mode == api.OneShot {
			delete(p.regs, fd)
		}
	}
	return n
}

func (p *genericPoller) Close() error {
	return nil
}

// RegisterProbe installs the readiness callback used by Wait to test
// plain socket fds; synthetic NotifyFd/TimerFd handles are expected to
// register themselves through the same probe via their own fd values.
func (p *genericPoller) RegisterProbe(probe func(fd uintptr) (api.Interest, bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ping = probe
}

// portableNotify implements api.NotifyFd with a buffered channel instead
// of eventfd; Fd returns a process-unique synthetic handle used only as a
// map key by genericPoller, never passed to a real syscall.
type portableNotify struct {
	mu      sync.Mutex
	count   uint64
	fd      uintptr
	wake    chan struct{}
}

var notifyFdCounter uintptrCounter

// NewNotifyFd creates a channel-backed NotifyFd for non-Linux builds.
func NewNotifyFd() (api.NotifyFd, error) {
	return &portableNotify{fd: notifyFdCounter.next(), wake: make(chan struct{}, 1)}, nil
}

func (n *portableNotify) Notify() error {
	n.mu.Lock()
	n.count++
	n.mu.Unlock()
	select {
	case n.wake <- struct{}{}:
	default:
	}
	return nil
}

func (n *portableNotify) Drain() (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := n.count
	n.count = 0
	return v, nil
}

func (n *portableNotify) Fd() uintptr { return n.fd }
func (n *portableNotify) Close() error { return nil }

// portableTimer implements api.TimerFd with time.Timer.
type portableTimer struct {
	mu     sync.Mutex
	fd     uintptr
	timer  *time.Timer
	expired uint64
}

// NewTimerFd creates a time.Timer-backed TimerFd for non-Linux builds.
func NewTimerFd() (api.TimerFd, error) {
	return &portableTimer{fd: notifyFdCounter.next()}, nil
}

func (t *portableTimer) Set(d time.Duration) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	if d <= 0 {
		t.timer = nil
		return nil
	}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		t.expired++
		t.mu.Unlock()
	})
	return nil
}

func (t *portableTimer) Expirations() (uint64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.expired
	t.expired = 0
	return v, nil
}

func (t *portableTimer) Fd() uintptr  { return t.fd }
func (t *portableTimer) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	return nil
}

type uintptrCounter struct {
	mu sync.Mutex
	v  uintptr
}

func (c *uintptrCounter) next() uintptr {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.v++
	return c.v
}
