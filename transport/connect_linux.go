//go:build linux
// +build linux

// File: transport/connect_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Non-blocking connect(2) + EPOLLOUT completion detection via
// SO_ERROR, grounded on original_source/src/client.h's async connect
// flow and the teacher's non-blocking-socket setup in
// internal/transport/transport_linux.go.

package transport

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
)

// AsyncConnect issues a non-blocking connect on fd to addr and resolves
// once the connection completes or fails, determined by SO_ERROR once
// the fd reports writable.
func (t *Transport) AsyncConnect(fd uintptr, addr api.Address) *deferred.Deferred[struct{}] {
	out := deferred.New[struct{}]()

	sa, err := toSockaddr(addr)
	if err != nil {
		out.Reject(err)
		return out
	}

	err = unix.Connect(int(fd), sa)
	if err != nil && err != unix.EINPROGRESS {
		out.Reject(fmt.Errorf("connect: %w", err))
		return out
	}

	register := func() {
		regErr := t.worker.RegisterFd(fd, api.InterestWrite, api.OneShot, func(api.Event) {
			errno, serr := unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_ERROR)
			t.worker.UnregisterFd(fd)
			if serr != nil {
				out.Reject(serr)
				return
			}
			if errno != 0 {
				out.Reject(fmt.Errorf("connect: %w", unix.Errno(errno)))
				return
			}
			out.Resolve(struct{}{})
		})
		if regErr != nil {
			out.Reject(regErr)
		}
	}
	if t.worker.IsCurrentGoroutine() {
		register()
	} else if !t.worker.Post(register) {
		out.Reject(api.ErrShutdown)
	}
	return out
}

func toSockaddr(addr api.Address) (unix.Sockaddr, error) {
	ip, err := resolveIP(addr.Host)
	if err != nil {
		return nil, err
	}
	if ip4 := ip.To4(); ip4 != nil {
		var a [4]byte
		copy(a[:], ip4)
		return &unix.SockaddrInet4{Port: int(addr.Port), Addr: a}, nil
	}
	var a [16]byte
	copy(a[:], ip.To16())
	return &unix.SockaddrInet6{Port: int(addr.Port), Addr: a}, nil
}
