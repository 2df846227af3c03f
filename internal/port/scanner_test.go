package port

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIsPortAvailable_TCPInUse verifies that a port held open by a live
// TCP listener is reported as unavailable, and becomes available again
// once the listener closes.
func TestIsPortAvailable_TCPInUse(t *testing.T) {
	// Bind an ephemeral port so the test does not depend on any fixed
	// port being free on the machine running it.
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	boundPort := listener.Addr().(*net.TCPAddr).Port

	s := NewScanner()
	assert.False(t, s.IsPortAvailable(boundPort, "tcp"),
		"port %d is held by the test listener and should be unavailable", boundPort)

	require.NoError(t, listener.Close())
	assert.True(t, s.IsPortAvailable(boundPort, "tcp"),
		"port %d should be available after the listener closed", boundPort)
}

// TestIsPortAvailable_UDPInUse mirrors the TCP case for UDP, which the
// Minecraft Bedrock protocol and query interface use.
func TestIsPortAvailable_UDPInUse(t *testing.T) {
	conn, err := net.ListenPacket("udp", ":0")
	require.NoError(t, err)
	boundPort := conn.LocalAddr().(*net.UDPAddr).Port

	s := NewScanner()
	assert.False(t, s.IsPortAvailable(boundPort, "udp"))

	require.NoError(t, conn.Close())
	assert.True(t, s.IsPortAvailable(boundPort, "udp"))
}

// TestIsPortAvailable_UnknownProtocol verifies the fail-safe: an
// unknown protocol is reported as unavailable rather than free.
func TestIsPortAvailable_UnknownProtocol(t *testing.T) {
	s := NewScanner()
	assert.False(t, s.IsPortAvailable(25565, "sctp"))
}
