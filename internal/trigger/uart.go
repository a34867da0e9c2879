package trigger

import (
	"fmt"

	"go.bug.st/serial"

	"github.com/slopevision/basesentry/internal/monitoring"
)

// UARTSink emits trigger bytes over a serial port. Present() reports
// false until a port has been opened, so the pipeline can call Emit
// unconditionally on a zero-value sink during startup before the port
// configuration is known.
type UARTSink struct {
	port serial.Port
}

// OpenUARTSink opens portName at 115200/8N1, the UART configuration
// the trigger wire format was designed around.
func OpenUARTSink(portName string) (*UARTSink, error) {
	mode := &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open trigger UART %s: %w", portName, err)
	}
	return &UARTSink{port: port}, nil
}

// Present reports whether the UART port is open.
func (u *UARTSink) Present() bool {
	return u != nil && u.port != nil
}

// Emit writes the single trigger byte to the serial port. A failed
// write is logged and returned; the caller is expected to continue
// the pipeline regardless (recoverable I/O, per the error taxonomy).
func (u *UARTSink) Emit(b byte) error {
	if !u.Present() {
		return nil
	}
	if _, err := u.port.Write([]byte{b}); err != nil {
		monitoring.Logf("trigger: UART write failed: %v", err)
		return fmt.Errorf("UART write failed: %w", err)
	}
	return nil
}

// Close closes the underlying serial port.
func (u *UARTSink) Close() error {
	if !u.Present() {
		return nil
	}
	return u.port.Close()
}
