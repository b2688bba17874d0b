//go:build !linux

// File: client/dial_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable outbound connection establishment: net.DialTimeout on a
// goroutine, then the resulting net.Conn is converted to an
// independently-owned fd via Dup, mirroring listener_other.go's
// accept-side pattern (not an *os.File, whose finalizer would close the
// fd out from under the reactor). Unlike transport/connect_other.go's
// connectivity-probe-then-close AsyncConnect, this hands back a live,
// already-connected fd ready for Transport.HandleNewPeer.

package client

import (
	"net"
	"syscall"
	"time"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
)

const dialTimeout = 10 * time.Second

func dial(_ api.Transport, addr api.Address) *deferred.Deferred[uintptr] {
	out := deferred.New[uintptr]()
	go func() {
		conn, err := net.DialTimeout("tcp", addr.String(), dialTimeout)
		if err != nil {
			out.Reject(err)
			return
		}
		tcpConn, ok := conn.(*net.TCPConn)
		if !ok {
			conn.Close()
			out.Reject(api.ErrInvalidArgument)
			return
		}
		f, err := tcpConn.File()
		if err != nil {
			conn.Close()
			out.Reject(err)
			return
		}
		fd, err := syscall.Dup(int(f.Fd()))
		f.Close()
		conn.Close()
		if err != nil {
			out.Reject(err)
			return
		}
		if err := syscall.SetNonblock(fd, true); err != nil {
			syscall.Close(fd)
			out.Reject(err)
			return
		}
		out.Resolve(uintptr(fd))
	}()
	return out
}
