// Package port implements host port availability checks.
//
// Before creating the server container, craftctl verifies that the
// configured host port is actually free. Docker would otherwise create
// the container and fail at start time with a less actionable error, or
// silently shadow another service already bound to the port.
package port

import (
	"fmt"
	"net"
)

// Scanner checks whether specific ports are available on the host.
//
// It asks the operating system directly via net.Listen / net.ListenPacket
// rather than parsing /proc/net/* or shelling out to lsof/ss, which may
// require elevated permissions. The struct is stateless; it exists so a
// bind address or timeout can be added later without breaking callers.
type Scanner struct{}

// NewScanner creates a new Scanner instance.
func NewScanner() *Scanner {
	return &Scanner{}
}

// IsPortAvailable checks whether a single port is free on the host.
//
// It binds to all interfaces (":port" rather than "127.0.0.1:port")
// because Docker publishes ports on 0.0.0.0, so the same address space
// must be checked to avoid false positives.
//
// Returns true if the port is free, false if it is in use or the
// protocol is unknown.
func (s *Scanner) IsPortAvailable(port int, protocol string) bool {
	addr := fmt.Sprintf(":%d", port)

	switch protocol {
	case "tcp":
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = listener.Close() }()
		return true

	case "udp":
		// UDP is connectionless; ListenPacket is the bind probe.
		conn, err := net.ListenPacket("udp", addr)
		if err != nil {
			return false
		}
		defer func() { _ = conn.Close() }()
		return true

	default:
		// Unknown protocol — treat as unavailable to fail safe.
		return false
	}
}
