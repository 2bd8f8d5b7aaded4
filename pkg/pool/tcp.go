package pool

import (
	"fmt"
	"net"
)

// TCPDialer hands out data-plane connections. A TCP stream carries one
// transfer and is consumed by it, so unlike gRPC channels these are not
// cached; the dialer exists to apply the shared connect timeout and to
// keep the call sites symmetric with the gRPC pool.
type TCPDialer struct{}

var tcpDialer = &TCPDialer{}

// TCP returns the process-wide TCP dialer.
func TCP() *TCPDialer {
	return tcpDialer
}

// Dial opens a fresh connection to addr.
func (d *TCPDialer) Dial(addr string) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", addr, DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return conn, nil
}
