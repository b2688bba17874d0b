// File: httpwriter/serialize.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Status-line + header + cookie serialization shared by the single-shot
// send path and the streaming path.

package httpwriter

import (
	"bytes"
	"fmt"

	"github.com/momentics/htcore/httpparser"
)

func statusReason(code int, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if r, ok := reasonPhrases[code]; ok {
		return r
	}
	return ""
}

var reasonPhrases = map[int]string{
	200: "OK",
	201: "Created",
	202: "Accepted",
	204: "No Content",
	206: "Partial Content",
	301: "Moved Permanently",
	302: "Found",
	304: "Not Modified",
	400: "Bad Request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	408: "Request Timeout",
	409: "Conflict",
	413: "Payload Too Large",
	414: "URI Too Long",
	431: "Request Header Fields Too Large",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
}

// serializeHead renders resp's status line, headers, and cookies, ending
// in the blank-line terminator. It does not append the body.
func serializeHead(resp *httpparser.Response) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %d %s\r\n", resp.Version, resp.Code, statusReason(resp.Code, resp.Reason))
	for _, name := range resp.Headers.Names() {
		for _, v := range resp.Headers.GetAll(name) {
			fmt.Fprintf(&b, "%s: %s\r\n", name, v)
		}
	}
	for _, c := range resp.Cookies {
		fmt.Fprintf(&b, "Set-Cookie: %s\r\n", c.String())
	}
	b.WriteString("\r\n")
	return b.Bytes()
}
