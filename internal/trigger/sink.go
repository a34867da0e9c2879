package trigger

// Sink is the capability both trigger transports share: emit a single
// wire byte, and report whether the sink is actually configured. The
// pipeline calls every sink unconditionally every time a crossing
// fires; an unconfigured sink no-ops.
type Sink interface {
	Emit(b byte) error
	Present() bool
}

// MultiSink fans a single trigger byte out to every configured sink,
// collecting (not stopping on) individual write errors — a failed
// UART write must never suppress the UDP send, and vice versa.
type MultiSink struct {
	Sinks []Sink
}

// Emit calls Emit on every present sink and returns the first error
// encountered, if any, after attempting all of them.
func (m MultiSink) Emit(b byte) error {
	var firstErr error
	for _, s := range m.Sinks {
		if !s.Present() {
			continue
		}
		if err := s.Emit(b); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Present reports whether at least one wrapped sink is present, so a
// MultiSink can itself be passed anywhere a Sink is expected.
func (m MultiSink) Present() bool {
	for _, s := range m.Sinks {
		if s.Present() {
			return true
		}
	}
	return false
}
