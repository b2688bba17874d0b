//go:build linux

// File: client/dial_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Outbound connection establishment for Linux: a raw non-blocking socket
// created here, then driven to completion by transport.Transport's own
// AsyncConnect (connect(2) + epoll-writable + SO_ERROR), grounded on
// listener/listener_linux.go's socket-creation style.

package client

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
)

func dial(tr api.Transport, addr api.Address) *deferred.Deferred[uintptr] {
	out := deferred.New[uintptr]()

	ip, err := resolveHost(addr.Host)
	if err != nil {
		out.Reject(err)
		return out
	}
	domain := unix.AF_INET
	if ip.To4() == nil {
		domain = unix.AF_INET6
	}
	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		out.Reject(err)
		return out
	}

	tr.AsyncConnect(uintptr(fd), addr).Then(
		func(struct{}) { out.Resolve(uintptr(fd)) },
		func(err error) { unix.Close(fd); out.Reject(err) },
	)
	return out
}

func resolveHost(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addrs, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}
	return addrs[0], nil
}
