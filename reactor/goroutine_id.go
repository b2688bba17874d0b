// File: reactor/goroutine_id.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker-thread detection for deferred.Barrier: each Worker records the
// goroutine id of its own Run loop, so Reactor.onWorkerThread can tell a
// Barrier.Wait call apart from one made on a worker's own goroutine
// without needing a context.Context threaded through every handler call.

package reactor

import (
	"bytes"
	"runtime"
	"strconv"
)

func currentGoroutineID() uint64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	// "goroutine 123 [running]:\n..."
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return 0
	}
	rest := buf[len(prefix):]
	end := bytes.IndexByte(rest, ' ')
	if end < 0 {
		return 0
	}
	id, _ := strconv.ParseUint(string(rest[:end]), 10, 64)
	return id
}
