// Package trigger encodes crossing events into the wire byte format
// and emits them on the configured sinks: UART and UDP, each a no-op
// if unconfigured. It also decodes the inbound remote pause/resume
// byte when remote control is enabled.
package trigger

import (
	"github.com/slopevision/basesentry/internal/config"
)

// Base identity bits, bit 7-6 of the trigger byte.
const (
	baseABits byte = 0b10
	baseBBits byte = 0b11
)

// Sequence is a 6-bit rolling counter. NewSequence starts it at 0x3F
// so that the first new crossing produces sequence 0 after the
// pre-increment; a zero-value Sequence starts at 0, so its first Next
// returns 1.
type Sequence struct {
	value byte
}

// NewSequence returns a Sequence initialized to the spec's starting
// value (0x3F), one pre-increment away from producing 0.
func NewSequence() *Sequence {
	return &Sequence{value: 0x3F}
}

// Next pre-increments the sequence modulo 64 and returns the new
// value. Called only for a new crossing, never for a repeat.
func (s *Sequence) Next() byte {
	s.value = (s.value + 1) & 0x3F
	return s.value
}

// Current returns the sequence's current value without advancing it,
// for re-sending on a repeat crossing.
func (s *Sequence) Current() byte {
	return s.value
}

// EncodeTriggerByte packs base identity and a 6-bit sequence number
// into the single-octet wire format shared by UART and UDP.
func EncodeTriggerByte(base config.BaseType, sequence byte) byte {
	var identity byte
	switch base {
	case config.BaseB:
		identity = baseBBits
	default:
		identity = baseABits
	}
	return identity<<6 | (sequence & 0x3F)
}

// RemoteCommand is a decoded inbound pause/resume byte.
type RemoteCommand int

const (
	RemoteCommandIgnored RemoteCommand = iota
	RemoteCommandPause
	RemoteCommandResume
)

// DecodeRemoteByte decodes an inbound remote-control byte. It returns
// RemoteCommandIgnored if the byte isn't addressed to base, matching
// the spec's "commands not addressed to the configured base are
// ignored" rule.
func DecodeRemoteByte(b byte, base config.BaseType) RemoteCommand {
	identity := (b >> 6) & 0b11
	var wantIdentity byte
	switch base {
	case config.BaseA:
		wantIdentity = baseABits
	case config.BaseB:
		wantIdentity = baseBBits
	default:
		return RemoteCommandIgnored
	}
	if identity != wantIdentity {
		return RemoteCommandIgnored
	}

	switch b & 0x3F {
	case 0x00:
		return RemoteCommandPause
	case 0x01:
		return RemoteCommandResume
	default:
		return RemoteCommandIgnored
	}
}
