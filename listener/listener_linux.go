// File: listener/listener_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw-socket TCP listener for Linux: socket/bind/listen with the
// design's option set applied via setsockopt, and a non-blocking
// accept4 loop. Grounded on transport/connect_linux.go's sockaddr
// construction style.

//go:build linux

package listener

import (
	"net"

	"golang.org/x/sys/unix"

	"github.com/momentics/htcore/api"
)

type rawListener struct {
	fd uintptr
}

func bindListen(addr api.Address, opts Options) (*rawListener, error) {
	ip, err := resolveBindIP(addr.Host)
	if err != nil {
		return nil, err
	}

	domain := unix.AF_INET
	if ip.To4() == nil {
		domain = unix.AF_INET6
	}

	fd, err := unix.Socket(domain, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, err
	}

	if opts.ReuseAddr {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}
	if opts.Linger >= 0 {
		_ = unix.SetsockoptLinger(fd, unix.SOL_SOCKET, unix.SO_LINGER, &unix.Linger{
			Onoff:  1,
			Linger: int32(opts.Linger),
		})
	}
	if opts.FastOpen {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_FASTOPEN, opts.Backlog)
	}

	sa, err := toSockaddr(domain, ip, addr.Port)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, err
	}

	backlog := opts.Backlog
	if backlog <= 0 {
		backlog = 128
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return &rawListener{fd: uintptr(fd)}, nil
}

// BoundAddr reads back the actual bound address via getsockname, needed
// when Bind was called with port 0 (let the kernel choose a free port).
func (l *rawListener) BoundAddr() (api.Address, error) {
	sa, err := unix.Getsockname(int(l.fd))
	if err != nil {
		return api.Address{}, err
	}
	return sockaddrToAddress(sa), nil
}

func (l *rawListener) Fd() uintptr { return l.fd }

func (l *rawListener) Close() error {
	return unix.Close(int(l.fd))
}

// Accept takes one pending connection off the non-blocking listening
// socket (failing with EAGAIN at once when none is pending), returning a
// non-blocking, close-on-exec client fd.
func (l *rawListener) Accept(opts Options) (uintptr, api.Address, error) {
	nfd, sa, err := unix.Accept4(int(l.fd), unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return 0, api.Address{}, err
	}
	if opts.NoDelay {
		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	}
	if opts.QuickAck {
		_ = unix.SetsockoptInt(nfd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	}
	return uintptr(nfd), sockaddrToAddress(sa), nil
}

func resolveBindIP(host string) (net.IP, error) {
	if host == "" {
		return net.IPv4zero, nil
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addrs, err := net.LookupIP(host)
	if err != nil {
		return nil, err
	}
	return addrs[0], nil
}

func toSockaddr(domain int, ip net.IP, port uint16) (unix.Sockaddr, error) {
	if domain == unix.AF_INET {
		var a [4]byte
		copy(a[:], ip.To4())
		return &unix.SockaddrInet4{Port: int(port), Addr: a}, nil
	}
	var a [16]byte
	copy(a[:], ip.To16())
	return &unix.SockaddrInet6{Port: int(port), Addr: a}, nil
}

func sockaddrToAddress(sa unix.Sockaddr) api.Address {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		ip := net.IP(v.Addr[:])
		return api.Address{Host: ip.String(), Port: uint16(v.Port)}
	case *unix.SockaddrInet6:
		ip := net.IP(v.Addr[:])
		return api.Address{Host: ip.String(), Port: uint16(v.Port)}
	default:
		return api.Address{}
	}
}
