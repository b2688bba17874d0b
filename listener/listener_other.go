// File: listener/listener_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable TCP listener fallback built on net.ListenTCP. Each accepted
// net.Conn is converted to a raw, independently-owned fd via Dup — not
// held behind an *os.File wrapper, whose finalizer would close the fd
// out from under the reactor the moment the wrapper is garbage
// collected (see transport/raw_other.go for the same concern).

//go:build !linux

package listener

import (
	"net"
	"strconv"
	"syscall"

	"github.com/momentics/htcore/api"
)

type rawListener struct {
	ln *net.TCPListener
}

func bindListen(addr api.Address, opts Options) (*rawListener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", net.JoinHostPort(addr.Host, strconv.Itoa(int(addr.Port))))
	if err != nil {
		return nil, err
	}
	ln, err := net.ListenTCP("tcp", tcpAddr)
	if err != nil {
		return nil, err
	}
	return &rawListener{ln: ln}, nil
}

// BoundAddr reads back the actual bound address, needed when Bind was
// called with port 0.
func (l *rawListener) BoundAddr() (api.Address, error) {
	host, portStr, err := net.SplitHostPort(l.ln.Addr().String())
	if err != nil {
		return api.Address{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return api.Address{}, err
	}
	return api.Address{Host: host, Port: uint16(port)}, nil
}

func (l *rawListener) Fd() uintptr {
	rc, err := l.ln.SyscallConn()
	if err != nil {
		return 0
	}
	var fd uintptr
	_ = rc.Control(func(s uintptr) { fd = s })
	return fd
}

func (l *rawListener) Close() error {
	return l.ln.Close()
}

func (l *rawListener) Accept(opts Options) (uintptr, api.Address, error) {
	conn, err := l.ln.AcceptTCP()
	if err != nil {
		return 0, api.Address{}, err
	}
	if opts.NoDelay {
		_ = conn.SetNoDelay(true)
	}
	if opts.Linger >= 0 {
		_ = conn.SetLinger(opts.Linger)
	}

	host, portStr, _ := net.SplitHostPort(conn.RemoteAddr().String())
	port, _ := strconv.Atoi(portStr)

	f, err := conn.File()
	if err != nil {
		conn.Close()
		return 0, api.Address{}, err
	}
	dupFd, err := syscall.Dup(int(f.Fd()))
	f.Close()
	conn.Close()
	if err != nil {
		return 0, api.Address{}, err
	}
	if err := syscall.SetNonblock(dupFd, true); err != nil {
		syscall.Close(dupFd)
		return 0, api.Address{}, err
	}

	return uintptr(dupFd), api.Address{Host: host, Port: uint16(port)}, nil
}
