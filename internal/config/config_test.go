// ABOUTME: Tests for configuration loading
// ABOUTME: Tests defaults, YAML overrides and validation errors
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fourtrack.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
audio:
  block_size: 1024
  saturate: true
remote:
  enabled: true
  name: Studio
clips:
  upload_url: http://localhost:3000/upload
`)

	config, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if config.Audio.BlockSize != 1024 {
		t.Errorf("expected block size 1024, got %d", config.Audio.BlockSize)
	}
	if !config.Audio.Saturate {
		t.Error("expected saturate enabled")
	}
	if config.Audio.RingBlocks != 64 {
		t.Errorf("expected default ring blocks 64, got %d", config.Audio.RingBlocks)
	}
	if !config.Remote.Enabled || config.Remote.Name != "Studio" || config.Remote.Port != 8928 {
		t.Errorf("unexpected remote config: %+v", config.Remote)
	}
	if config.Clips.Dir != "clips" {
		t.Errorf("expected default clips dir, got %q", config.Clips.Dir)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "audio: [", "failed to parse"},
		{"block size", "audio:\n  block_size: 10\n", "block_size"},
		{"ring blocks", "audio:\n  ring_blocks: 1\n", "ring_blocks"},
		{"zero mix gain", "audio:\n  mix_gain: 0\n", "mix_gain"},
		{"zero monitor gain", "audio:\n  monitor_gain: 0\n", "monitor_gain"},
		{"loud mix gain", "audio:\n  mix_gain: 5\n", "mix_gain"},
		{"remote port", "remote:\n  enabled: true\n  port: 70000\n", "port"},
		{"upload scheme", "clips:\n  upload_url: ftp://example.com\n", "upload_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
