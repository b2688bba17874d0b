// File: httpparser/header/header.go
// Package header implements the typed+raw header registry described in
// the design: commonly used headers (Content-Length, Host, Content-Type,
// Connection, Transfer-Encoding) get cheap typed accessors; anything else
// is kept in a raw, case-insensitive multi-map.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Grounded on original_source/src/http_header.h/http_headers.h's
// Header/Collection split (a virtual Header base with named subclasses,
// parsed lazily, plus a raw fallback map), re-expressed without
// inheritance: Collection stores raw textual values and parses the
// handful of typed accessors on demand instead of at insert time.

package header

import (
	"net/textproto"
	"strconv"
	"strings"
)

// Collection is an ordered, case-insensitive set of header fields. Field
// names are canonicalized via textproto.CanonicalMIMEHeaderKey on Set/Add.
type Collection struct {
	order  []string
	values map[string][]string
}

// New creates an empty Collection.
func New() *Collection {
	return &Collection{values: make(map[string][]string)}
}

// Add appends a value for name, preserving any existing values (used for
// multi-valued headers like Set-Cookie).
func (c *Collection) Add(name, value string) {
	key := textproto.CanonicalMIMEHeaderKey(name)
	if _, exists := c.values[key]; !exists {
		c.order = append(c.order, key)
	}
	c.values[key] = append(c.values[key], value)
}

// Set replaces any existing values for name with a single value.
func (c *Collection) Set(name, value string) {
	key := textproto.CanonicalMIMEHeaderKey(name)
	if _, exists := c.values[key]; !exists {
		c.order = append(c.order, key)
	}
	c.values[key] = []string{value}
}

// Get returns the first value for name, and whether it was present.
func (c *Collection) Get(name string) (string, bool) {
	vs, ok := c.values[textproto.CanonicalMIMEHeaderKey(name)]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// GetAll returns every value for name in insertion order.
func (c *Collection) GetAll(name string) []string {
	return c.values[textproto.CanonicalMIMEHeaderKey(name)]
}

// Has reports whether name has at least one value.
func (c *Collection) Has(name string) bool {
	_, ok := c.Get(name)
	return ok
}

// Del removes every value for name.
func (c *Collection) Del(name string) {
	key := textproto.CanonicalMIMEHeaderKey(name)
	delete(c.values, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Names returns every distinct header name, in first-insertion order.
func (c *Collection) Names() []string {
	return append([]string(nil), c.order...)
}

// ContentLength parses the Content-Length header; ok is false if absent
// or malformed.
func (c *Collection) ContentLength() (int64, bool) {
	v, ok := c.Get("Content-Length")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Host returns the Host header's value.
func (c *Collection) Host() (string, bool) {
	return c.Get("Host")
}

// ContentType returns the Content-Type header's value.
func (c *Collection) ContentType() (string, bool) {
	return c.Get("Content-Type")
}

// IsChunked reports whether Transfer-Encoding names "chunked" as its
// final (outermost) coding, per RFC 7230 §3.3.1.
func (c *Collection) IsChunked() bool {
	v, ok := c.Get("Transfer-Encoding")
	if !ok {
		return false
	}
	codings := strings.Split(v, ",")
	last := strings.TrimSpace(codings[len(codings)-1])
	return strings.EqualFold(last, "chunked")
}

// KeepAlive reports whether the connection should persist, applying
// HTTP/1.1's keep-alive-by-default rule and HTTP/1.0's opt-in rule.
func (c *Collection) KeepAlive(http11 bool) bool {
	v, ok := c.Get("Connection")
	if !ok {
		return http11
	}
	for _, tok := range strings.Split(v, ",") {
		tok = strings.TrimSpace(tok)
		if strings.EqualFold(tok, "close") {
			return false
		}
		if strings.EqualFold(tok, "keep-alive") {
			return true
		}
	}
	return http11
}

// AcceptEncoding returns the parsed Accept-Encoding coding names, in
// the order listed (quality values are ignored — the writer picks the
// first supported coding in this order rather than weighing q-values).
func (c *Collection) AcceptEncoding() []string {
	v, ok := c.Get("Accept-Encoding")
	if !ok {
		return nil
	}
	var out []string
	for _, tok := range strings.Split(v, ",") {
		tok = strings.TrimSpace(tok)
		if semi := strings.IndexByte(tok, ';'); semi >= 0 {
			tok = strings.TrimSpace(tok[:semi])
		}
		if tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
