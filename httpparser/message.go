// File: httpparser/message.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Request/Response message model atop the header.Collection registry.
// Grounded on original_source/src/http.h's Request/Response classes.

package httpparser

import (
	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/httpparser/header"
)

// Request is a parsed HTTP/1.1 (or 1.0) request.
type Request struct {
	Method   api.Method
	Resource string
	Query    map[string][]string
	Version  api.Version
	Headers  *header.Collection
	Cookies  *CookieJar
	Body     []byte
}

// NewRequest returns a zero-value Request ready for the Parser to fill in.
func NewRequest() *Request {
	return &Request{
		Query:   make(map[string][]string),
		Headers: header.New(),
		Cookies: NewCookieJar(),
	}
}

// Response is an outbound HTTP/1.1 (or 1.0) response built by a handler
// and handed to httpwriter for serialization.
type Response struct {
	Version Version
	Code    int
	Reason  string
	Headers *header.Collection
	Cookies []Cookie
	Body    []byte
}

// Version aliases api.Version so httpwriter/listener don't need to
// import api just to name it.
type Version = api.Version

// NewResponse returns a Response defaulted to HTTP/1.1, 200 OK.
func NewResponse() *Response {
	return &Response{
		Version: api.Version11,
		Code:    200,
		Reason:  "OK",
		Headers: header.New(),
	}
}
