// File: client/request.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Request is the builder spec.md §4.9 names: Client.NewRequest(method,
// resource) returns one, callers chain Header/Cookie/Body, then Send
// issues it and returns a Deferred<Response>.

package client

import (
	"bytes"
	"context"
	"fmt"
	"net/url"

	"github.com/momentics/htcore/api"
	"github.com/momentics/htcore/deferred"
	"github.com/momentics/htcore/httpparser"
	"github.com/momentics/htcore/httpparser/header"
)

// Request builds one outbound HTTP/1.1 request against a parsed URL.
type Request struct {
	client  *Client
	method  api.Method
	url     *url.URL
	headers *header.Collection
	cookies []httpparser.Cookie
	body    []byte
}

func newRequest(c *Client, method api.Method, rawURL string) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("client: invalid URL %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("client: URL %q has no host", rawURL)
	}
	if u.Scheme == "" {
		u.Scheme = "http"
	}
	return &Request{client: c, method: method, url: u, headers: header.New()}, nil
}

// Header adds a request header, preserving any prior value under the
// same name (matching header.Collection's multi-valued Add).
func (r *Request) Header(name, value string) *Request {
	r.headers.Add(name, value)
	return r
}

// Cookie attaches a cookie to be sent in the request's Cookie header.
func (r *Request) Cookie(c httpparser.Cookie) *Request {
	r.cookies = append(r.cookies, c)
	return r
}

// Body sets the request body, implicitly setting Content-Length unless
// the caller already set one via Header.
func (r *Request) Body(b []byte) *Request {
	r.body = b
	return r
}

// Send issues the request over a pooled connection for the URL's
// scheme://host:port, dialing a new one if the pool has room, and
// returns a Deferred resolved with the parsed Response (or rejected on
// dial failure, write failure, malformed response, or pool exhaustion).
func (r *Request) Send(ctx context.Context) *deferred.Deferred[*httpparser.Response] {
	return r.client.send(ctx, r)
}

// key returns the ConnectionPool key for this request's URL.
func (r *Request) key() string {
	return r.url.Scheme + "://" + r.url.Host
}

// serialize renders the request line, headers, cookies, and body.
func (r *Request) serialize(keepAlive bool) []byte {
	var b bytes.Buffer

	resource := r.url.Path
	if resource == "" {
		resource = "/"
	}
	if r.url.RawQuery != "" {
		resource += "?" + r.url.RawQuery
	}
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", r.method, resource)

	if !r.headers.Has("Host") {
		fmt.Fprintf(&b, "Host: %s\r\n", r.url.Host)
	}
	if len(r.body) > 0 && !r.headers.Has("Content-Length") {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(r.body))
	}
	if !keepAlive && !r.headers.Has("Connection") {
		b.WriteString("Connection: close\r\n")
	}

	for _, name := range r.headers.Names() {
		for _, v := range r.headers.GetAll(name) {
			fmt.Fprintf(&b, "%s: %s\r\n", name, v)
		}
	}
	for _, c := range r.cookies {
		fmt.Fprintf(&b, "Cookie: %s=%s\r\n", c.Name, c.Value)
	}
	b.WriteString("\r\n")
	b.Write(r.body)
	return b.Bytes()
}
