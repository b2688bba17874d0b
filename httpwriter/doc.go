// File: httpwriter/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package httpwriter serializes an httpparser.Response onto a Transport-
// owned peer fd: a single-shot send path, a streaming chunked path, a
// static-file path, and an optional compression policy (br, deflate,
// zstd) negotiated from a request's Accept-Encoding header.
package httpwriter
