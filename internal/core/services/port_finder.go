package services

import (
	"fmt"
	"net"
	"strconv"
)

// ListenAddress returns host:port for the first port in [first, last] that
// can be bound on host.
func ListenAddress(host string, first, last int) (string, error) {
	for port := first; port <= last; port++ {
		addr := net.JoinHostPort(host, strconv.Itoa(port))
		l, err := net.Listen("tcp", addr)
		if err != nil {
			continue
		}
		_ = l.Close()
		return addr, nil
	}
	return "", fmt.Errorf("no free port on %s in %d-%d", host, first, last)
}
