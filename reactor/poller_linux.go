//go:build linux
// +build linux

// File: reactor/poller_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux epoll(7) Poller, plus eventfd/timerfd-backed NotifyFd/TimerFd.
// Grounded on the teacher's epoll registration pattern (reactor_linux.go,
// internal/concurrency/poller_linux.go), generalized from a single
// read/write interest mask to the full api.Interest/api.Mode surface and
// from a fixed udata pointer to an api.Tag recovered per event.

package reactor

import (
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/htcore/api"
)

type epollPoller struct {
	epfd int

	mu   sync.Mutex
	tags map[uintptr]api.Tag
}

// NewPoller constructs the platform Poller for Linux.
func NewPoller() (api.Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollPoller{epfd: epfd, tags: make(map[uintptr]api.Tag)}, nil
}

func interestToEpoll(interest api.Interest, mode api.Mode) uint32 {
	var ev uint32
	if interest&api.InterestRead != 0 {
		ev |= unix.EPOLLIN
	}
	if interest&api.InterestWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	if interest&api.InterestHangup != 0 {
		ev |= unix.EPOLLRDHUP
	}
	switch mode {
	case api.EdgeTriggered:
		ev |= unix.EPOLLET
	case api.OneShot:
		ev |= unix.EPOLLONESHOT
	}
	return ev
}

func (p *epollPoller) Add(fd uintptr, interest api.Interest, tag api.Tag, mode api.Mode) error {
	p.mu.Lock()
	if _, exists := p.tags[fd]; exists {
		p.mu.Unlock()
		return api.ErrAlreadyExists
	}
	p.tags[fd] = tag
	p.mu.Unlock()

	ev := &unix.EpollEvent{Events: interestToEpoll(interest, mode), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, int(fd), ev); err != nil {
		p.mu.Lock()
		delete(p.tags, fd)
		p.mu.Unlock()
		return err
	}
	return nil
}

func (p *epollPoller) Modify(fd uintptr, interest api.Interest, tag api.Tag, mode api.Mode) error {
	p.mu.Lock()
	if _, exists := p.tags[fd]; !exists {
		p.mu.Unlock()
		return api.ErrNotFound
	}
	p.tags[fd] = tag
	p.mu.Unlock()

	ev := &unix.EpollEvent{Events: interestToEpoll(interest, mode), Fd: int32(fd)}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, int(fd), ev)
}

func (p *epollPoller) Remove(fd uintptr) error {
	p.mu.Lock()
	_, exists := p.tags[fd]
	delete(p.tags, fd)
	p.mu.Unlock()
	if !exists {
		return nil
	}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, int(fd), nil)
}

func (p *epollPoller) Wait(out []api.Event, timeout time.Duration) (int, error) {
	ms := -1
	if timeout >= 0 {
		ms = int(timeout / time.Millisecond)
	}
	raw := make([]unix.EpollEvent, len(out))
	n, err := unix.EpollWait(p.epfd, raw, ms)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	p.mu.Lock()
	for i := 0; i < n; i++ {
		fd := uintptr(raw[i].Fd)
		out[i] = api.Event{
			Fd:       fd,
			Tag:      p.tags[fd],
			Interest: epollToInterest(raw[i].Events),
		}
	}
	p.mu.Unlock()
	return n, nil
}

func epollToInterest(ev uint32) api.Interest {
	var in api.Interest
	if ev&unix.EPOLLIN != 0 {
		in |= api.InterestRead
	}
	if ev&unix.EPOLLOUT != 0 {
		in |= api.InterestWrite
	}
	if ev&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		in |= api.InterestHangup
	}
	if ev&unix.EPOLLERR != 0 {
		in |= api.InterestShutdown
	}
	return in
}

func (p *epollPoller) Close() error {
	return unix.Close(p.epfd)
}

// eventfdNotify implements api.NotifyFd on Linux via eventfd(2) in
// semaphore-less counter mode: writes add to a 64-bit counter, reads
// drain and clear it, matching the design's synthetic NotifyFd handle.
type eventfdNotify struct {
	fd int
}

// NewNotifyFd creates an eventfd-backed NotifyFd.
func NewNotifyFd() (api.NotifyFd, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &eventfdNotify{fd: fd}, nil
}

func (n *eventfdNotify) Notify() error {
	buf := [8]byte{1, 0, 0, 0, 0, 0, 0, 0}
	_, err := unix.Write(n.fd, buf[:])
	if err == unix.EAGAIN {
		// counter already saturated/about to overflow: still "notified".
		return nil
	}
	return err
}

func (n *eventfdNotify) Drain() (uint64, error) {
	var buf [8]byte
	_, err := unix.Read(n.fd, buf[:])
	if err == unix.EAGAIN {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return leUint64(buf[:]), nil
}

func (n *eventfdNotify) Fd() uintptr { return uintptr(n.fd) }
func (n *eventfdNotify) Close() error { return unix.Close(n.fd) }

// timerfdTimer implements api.TimerFd on Linux via timerfd_create(2).
type timerfdTimer struct {
	fd int
}

// NewTimerFd creates a timerfd-backed one-shot TimerFd.
func NewTimerFd() (api.TimerFd, error) {
	fd, err := unix.TimerfdCreate(unix.CLOCK_MONOTONIC, unix.TFD_CLOEXEC|unix.TFD_NONBLOCK)
	if err != nil {
		return nil, err
	}
	return &timerfdTimer{fd: fd}, nil
}

func (t *timerfdTimer) Set(d time.Duration) error {
	spec := unix.ItimerSpec{}
	if d > 0 {
		spec.Value.Sec = int64(d / time.Second)
		spec.Value.Nsec = int64(d % time.Second)
	}
	return unix.TimerfdSettime(t.fd, 0, &spec, nil)
}

func (t *timerfdTimer) Expirations() (uint64, error) {
	var buf [8]byte
	_, err := unix.Read(t.fd, buf[:])
	if err == unix.EAGAIN {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return leUint64(buf[:]), nil
}

func (t *timerfdTimer) Fd() uintptr  { return uintptr(t.fd) }
func (t *timerfdTimer) Close() error { return unix.Close(t.fd) }

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
