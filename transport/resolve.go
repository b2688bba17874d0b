// File: transport/resolve.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "net"

func resolveIP(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	addr, err := net.ResolveIPAddr("ip", host)
	if err != nil {
		return nil, err
	}
	return addr.IP, nil
}
