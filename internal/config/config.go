package config

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/slopevision/basesentry/internal/monitoring"
)

// BaseType identifies which vertical plane a sensor instance watches,
// or a non-base role the same binary can run under. The five values
// mirror the original implementation's BaseType_t, which this program
// never narrowed down to just A/B: a unit can also run as a standalone
// round timer or an anemometer relay sharing the same config format.
type BaseType int

const (
	BaseUnknown BaseType = iota
	BaseA
	BaseB
	BaseTimer
	BaseAnemometer
)

func (b BaseType) String() string {
	switch b {
	case BaseA:
		return "A"
	case BaseB:
		return "B"
	case BaseTimer:
		return "Timer"
	case BaseAnemometer:
		return "Anemometer"
	default:
		return "Unknown"
	}
}

// Config holds the sensor's hand-edited text-format settings: base
// identity, remote control, sink toggles and camera pass-through
// switches. It is distinct from TuningConfig, which carries the
// numeric detection/tracking parameters in JSON.
type Config struct {
	BaseType          BaseType
	IsRemoteControl   bool
	IsHardwareSwitch  bool
	UDPRemoteHost     string
	UDPRemotePort     uint16
	RTPRemoteHost     string
	RTPRemotePort     uint16
	VideoOutputScreen bool
	VideoOutputFile   bool
	VideoOutputRTP    bool
	VideoOutputResult bool

	// Unrecognized keys are preserved verbatim so camera pass-through
	// settings (exposure, gain, white balance — owned by the camera
	// driver, not this sensor) survive a round trip through this
	// parser without being silently dropped.
	Unrecognized map[string]string
}

// entry is one parsed "key = value" line, in file order.
type entry struct {
	key, value string
}

// parseEntries tokenizes a key/value config file: blank lines and
// lines starting with "#" are skipped, leading/trailing whitespace
// around keys and values is trimmed, and the first "=" on a line
// separates key from value.
func parseEntries(r *bufio.Scanner) []entry {
	var entries []entry
	for r.Scan() {
		line := strings.TrimSpace(r.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		entries = append(entries, entry{key: key, value: value})
	}
	return entries
}

func isTruthy(s string) bool {
	return s == "yes" || s == "1"
}

func isValidIPAddress(s string) bool {
	return net.ParseIP(s) != nil
}

// LoadConfig reads the key/value text config at path and returns the
// resulting Config. Recognized keys overwrite earlier occurrences of
// the same key; malformed numeric/IP values are reported via Logf and
// otherwise ignored, matching the source parser's tolerant behavior —
// a single bad line in a field config must never abort startup.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := &Config{Unrecognized: make(map[string]string)}
	entries := parseEntries(bufio.NewScanner(f))
	applyEntries(cfg, entries)
	return cfg, nil
}

func applyEntries(cfg *Config, entries []entry) {
	for _, e := range entries {
		switch e.key {
		case "base.type":
			switch e.value {
			case "A":
				cfg.BaseType = BaseA
			case "B":
				cfg.BaseType = BaseB
			case "Timer":
				cfg.BaseType = BaseTimer
			case "Anemometer":
				cfg.BaseType = BaseAnemometer
			default:
				cfg.BaseType = BaseUnknown
			}
		case "base.remote.control":
			cfg.IsRemoteControl = isTruthy(e.value)
		case "base.hwswitch":
			cfg.IsHardwareSwitch = isTruthy(e.value)
		case "base.trigger.reset":
			// Recognized but unused: the original parser reads this
			// key and discards it. Kept for config-file compatibility.
		case "base.udp.remote.host":
			if isValidIPAddress(e.value) {
				cfg.UDPRemoteHost = e.value
			} else {
				monitoring.Logf("config: invalid %s=%s", e.key, e.value)
			}
		case "base.udp.remote.port":
			if port, err := parsePort(e.value); err == nil {
				cfg.UDPRemotePort = port
			} else {
				monitoring.Logf("config: invalid %s=%s", e.key, e.value)
			}
		case "base.rtp.remote.host":
			if isValidIPAddress(e.value) {
				cfg.RTPRemoteHost = e.value
			} else {
				monitoring.Logf("config: invalid %s=%s", e.key, e.value)
			}
		case "base.rtp.remote.port":
			if port, err := parsePort(e.value); err == nil {
				cfg.RTPRemotePort = port
			} else {
				monitoring.Logf("config: invalid %s=%s", e.key, e.value)
			}
		case "video.output.screen":
			cfg.VideoOutputScreen = isTruthy(e.value)
		case "video.output.file":
			cfg.VideoOutputFile = isTruthy(e.value)
		case "video.output.rtp":
			cfg.VideoOutputRTP = isTruthy(e.value)
		case "video.output.result":
			cfg.VideoOutputResult = isTruthy(e.value)
		default:
			// Camera pass-through and any other key this sensor
			// doesn't interpret itself.
			cfg.Unrecognized[e.key] = e.value
		}
	}
}

func parsePort(s string) (uint16, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("not all digits: %q", s)
		}
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}
