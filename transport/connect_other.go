//go:build !linux
// +build !linux

// File: transport/connect_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Portable AsyncConnect: dials with net.Dial on a goroutine (no raw
// non-blocking-connect syscall path outside Linux here) and posts the
// result back onto the owning worker so callers still observe
// single-threaded completion semantics.

package transport

import (
	"net"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
)

func (t *Transport) AsyncConnect(fd uintptr, addr api.Address) *deferred.Deferred[struct{}] {
	out := deferred.New[struct{}]()
	go func() {
		conn, err := net.Dial("tcp", addr.String())
		settle := func() {
			if err != nil {
				out.Reject(err)
				return
			}
			conn.Close()
			out.Resolve(struct{}{})
		}
		if !t.worker.Post(settle) {
			settle()
		}
	}()
	return out
}
