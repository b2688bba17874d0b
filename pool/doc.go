// File: pool/doc.go
// Package pool
// Author: momentics <momentics@gmail.com>
//
// A sync.Pool-backed byte-buffer pool implementing api.BufferPool, sized
// per request and reused by Transport and Endpoint across connections.
package pool
