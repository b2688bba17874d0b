// File: listener/hostname.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Reverse-DNS resolution for Options.ReverseLookup, wired through
// api.Peer.Hostname's lazy-once resolver hook.

package listener

import (
	"net"

	"github.com/momentics/htcore/api"
)

func resolveHostname(addr api.Address) string {
	names, err := net.LookupAddr(addr.Host)
	if err != nil || len(names) == 0 {
		return ""
	}
	return names[0]
}
