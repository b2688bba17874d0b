// File: pool/default.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Process-wide default pool so components that don't own their own
// Endpoint/Transport still share one set of size-classed buffers instead
// of fragmenting allocations.

package pool

import (
	"sync"

	"github.com/momentics/htcore/api"
)

var (
	defaultOnce sync.Once
	defaultPool *BufferPool
)

// Default returns the process-wide BufferPool.
func Default() api.BufferPool {
	defaultOnce.Do(func() {
		defaultPool = New()
	})
	return defaultPool
}
