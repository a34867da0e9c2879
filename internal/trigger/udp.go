package trigger

import (
	"fmt"
	"net"

	"github.com/slopevision/basesentry/internal/monitoring"
)

// UDPSink emits trigger bytes over a UDP socket dialed once at
// startup to the configured remote host:port.
type UDPSink struct {
	conn *net.UDPConn
}

// OpenUDPSink dials host:port over UDP.
func OpenUDPSink(host string, port uint16) (*UDPSink, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve trigger UDP address %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial trigger UDP socket %s: %w", addr, err)
	}
	return &UDPSink{conn: conn}, nil
}

// Present reports whether the UDP socket has been dialed.
func (u *UDPSink) Present() bool {
	return u != nil && u.conn != nil
}

// Emit writes the single trigger byte to the socket. A failed write
// is logged and returned; recoverable per the error taxonomy — the
// pipeline continues and the next trigger carries a fresh sequence.
func (u *UDPSink) Emit(b byte) error {
	if !u.Present() {
		return nil
	}
	if _, err := u.conn.Write([]byte{b}); err != nil {
		monitoring.Logf("trigger: UDP write failed: %v", err)
		return fmt.Errorf("UDP write failed: %w", err)
	}
	return nil
}

// Close closes the underlying socket.
func (u *UDPSink) Close() error {
	if !u.Present() {
		return nil
	}
	return u.conn.Close()
}
