package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system.config")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoadConfigRecognizedKeys(t *testing.T) {
	path := writeConfig(t, `
# base identity
base.type = A
base.remote.control = yes
base.hwswitch = 1
base.udp.remote.host = 192.168.1.50
base.udp.remote.port = 7000
base.rtp.remote.host = 192.168.1.51
base.rtp.remote.port = 5600
video.output.screen = yes
video.output.file = 0
video.output.rtp = 1
video.output.result = no
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.BaseType != BaseA {
		t.Errorf("BaseType = %v, want BaseA", cfg.BaseType)
	}
	if !cfg.IsRemoteControl {
		t.Error("IsRemoteControl = false, want true")
	}
	if !cfg.IsHardwareSwitch {
		t.Error("IsHardwareSwitch = false, want true")
	}
	if cfg.UDPRemoteHost != "192.168.1.50" {
		t.Errorf("UDPRemoteHost = %q, want 192.168.1.50", cfg.UDPRemoteHost)
	}
	if cfg.UDPRemotePort != 7000 {
		t.Errorf("UDPRemotePort = %d, want 7000", cfg.UDPRemotePort)
	}
	if cfg.RTPRemoteHost != "192.168.1.51" {
		t.Errorf("RTPRemoteHost = %q, want 192.168.1.51", cfg.RTPRemoteHost)
	}
	if cfg.RTPRemotePort != 5600 {
		t.Errorf("RTPRemotePort = %d, want 5600", cfg.RTPRemotePort)
	}
	if !cfg.VideoOutputScreen || cfg.VideoOutputFile || !cfg.VideoOutputRTP || cfg.VideoOutputResult {
		t.Errorf("video output toggles incorrect: %+v", cfg)
	}
}

func TestLoadConfigBaseTypeValues(t *testing.T) {
	tests := []struct {
		value string
		want  BaseType
	}{
		{"A", BaseA},
		{"B", BaseB},
		{"Timer", BaseTimer},
		{"Anemometer", BaseAnemometer},
		{"garbage", BaseUnknown},
	}
	for _, tt := range tests {
		path := writeConfig(t, "base.type = "+tt.value+"\n")
		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if cfg.BaseType != tt.want {
			t.Errorf("base.type=%q => %v, want %v", tt.value, cfg.BaseType, tt.want)
		}
	}
}

func TestLoadConfigIgnoresCommentsAndBlankLines(t *testing.T) {
	path := writeConfig(t, `
# this is a comment

base.type = B

# another comment
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseType != BaseB {
		t.Errorf("BaseType = %v, want BaseB", cfg.BaseType)
	}
}

func TestLoadConfigDeadTriggerResetKeyIsIgnoredNotDropped(t *testing.T) {
	path := writeConfig(t, "base.trigger.reset = yes\nbase.type = A\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if _, ok := cfg.Unrecognized["base.trigger.reset"]; ok {
		t.Error("base.trigger.reset must be recognized (and discarded), not bucketed as unrecognized")
	}
	if cfg.BaseType != BaseA {
		t.Errorf("BaseType = %v, want BaseA", cfg.BaseType)
	}
}

func TestLoadConfigPreservesUnrecognizedCameraKeys(t *testing.T) {
	path := writeConfig(t, "camera.exposure = auto\ncamera.gain = 12\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Unrecognized["camera.exposure"] != "auto" {
		t.Errorf("camera.exposure = %q, want auto", cfg.Unrecognized["camera.exposure"])
	}
	if cfg.Unrecognized["camera.gain"] != "12" {
		t.Errorf("camera.gain = %q, want 12", cfg.Unrecognized["camera.gain"])
	}
}

func TestLoadConfigInvalidIPAndPortAreIgnoredNotFatal(t *testing.T) {
	path := writeConfig(t, `
base.udp.remote.host = not-an-ip
base.udp.remote.port = not-a-port
base.type = A
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig must tolerate malformed values: %v", err)
	}
	if cfg.UDPRemoteHost != "" {
		t.Errorf("UDPRemoteHost = %q, want empty (invalid IP rejected)", cfg.UDPRemoteHost)
	}
	if cfg.UDPRemotePort != 0 {
		t.Errorf("UDPRemotePort = %d, want 0 (invalid port rejected)", cfg.UDPRemotePort)
	}
	if cfg.BaseType != BaseA {
		t.Error("a malformed line must not prevent later valid lines from applying")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/system.config")
	if err == nil {
		t.Error("expected error for missing config file, got nil")
	}
}

func TestBaseTypeString(t *testing.T) {
	tests := map[BaseType]string{
		BaseA:          "A",
		BaseB:          "B",
		BaseTimer:      "Timer",
		BaseAnemometer: "Anemometer",
		BaseUnknown:    "Unknown",
	}
	for bt, want := range tests {
		if got := bt.String(); got != want {
			t.Errorf("BaseType(%d).String() = %q, want %q", bt, got, want)
		}
	}
}
