//go:build linux
// +build linux

// File: transport/raw_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Raw fd read/write/close via golang.org/x/sys/unix, bypassing net.Conn's
// own internal netpoller so the reactor's epoll registration is the only
// thing driving readiness — grounded on
// internal/transport/transport_linux.go's direct unix.Socket/unix.Sendmsg
// use, narrowed from batched Sendmsg/Recvmsg to plain Read/Write since
// the design doesn't call for vectored I/O.

package transport

import "golang.org/x/sys/unix"

func rawRead(fd uintptr, buf []byte) (int, error) {
	return unix.Read(int(fd), buf)
}

func rawWrite(fd uintptr, buf []byte) (int, error) {
	return unix.Write(int(fd), buf)
}

func rawClose(fd uintptr) error {
	return unix.Close(int(fd))
}

func isEAGAIN(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
