// File: client/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package client implements the outbound half of the HTTP/1.1 core: a
// Client holding a round-robin worker pool of transport.Transport
// instances and a connectionPool keyed by scheme://host:port, a Request
// builder, and FIFO request/response correlation per connection.
package client
