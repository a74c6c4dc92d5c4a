// ABOUTME: YAML configuration for the fourtrack recorder
// ABOUTME: Provides defaults, file loading and validation
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete recorder configuration
type Config struct {
	Audio   AudioConfig   `yaml:"audio"`
	Remote  RemoteConfig  `yaml:"remote"`
	Clips   ClipsConfig   `yaml:"clips"`
	Logging LoggingConfig `yaml:"logging"`
}

// AudioConfig contains engine and device parameters
type AudioConfig struct {
	BlockSize   int     `yaml:"block_size"`  // frames per capture block
	RingBlocks  int     `yaml:"ring_blocks"` // capture queue depth
	MixGain     float32 `yaml:"mix_gain"`
	MonitorGain float32 `yaml:"monitor_gain"`
	Monitor     bool    `yaml:"monitor"` // hear the live input on the output
	Saturate    bool    `yaml:"saturate"`
}

// RemoteConfig contains remote control server configuration
type RemoteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Name    string `yaml:"name"`
	MDNS    bool   `yaml:"mdns"`
}

// ClipsConfig contains clip storage and upload configuration
type ClipsConfig struct {
	Dir           string `yaml:"dir"`            // empty disables saving
	UploadURL     string `yaml:"upload_url"`     // empty disables uploading
	UploadTimeout int    `yaml:"upload_timeout"` // seconds
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	File   string `yaml:"file"`
	Stream bool   `yaml:"stream"` // also log to stdout when the TUI is off
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			BlockSize:   2048,
			RingBlocks:  64,
			MixGain:     1,
			MonitorGain: 1,
			Monitor:     true,
		},
		Remote: RemoteConfig{
			Enabled: false,
			Port:    8928,
			MDNS:    true,
		},
		Clips: ClipsConfig{
			Dir:           "clips",
			UploadTimeout: 30,
		},
		Logging: LoggingConfig{
			File:   "fourtrack.log",
			Stream: true,
		},
	}
}

// Load reads a configuration file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate checks every section
func (c *Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Remote.Validate(); err != nil {
		return fmt.Errorf("remote config: %w", err)
	}

	if err := c.Clips.Validate(); err != nil {
		return fmt.Errorf("clips config: %w", err)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.BlockSize < 64 || a.BlockSize > 16384 {
		return fmt.Errorf("block_size must be between 64 and 16384 frames, got %d", a.BlockSize)
	}

	if a.RingBlocks < 2 {
		return fmt.Errorf("ring_blocks must be at least 2, got %d", a.RingBlocks)
	}

	// The engine reads a zero gain as unity
	if a.MixGain <= 0 || a.MixGain > 4 {
		return fmt.Errorf("mix_gain must be above 0 and at most 4, got %f", a.MixGain)
	}

	// Use monitor: false to silence the live input
	if a.MonitorGain <= 0 || a.MonitorGain > 4 {
		return fmt.Errorf("monitor_gain must be above 0 and at most 4, got %f", a.MonitorGain)
	}

	return nil
}

// Validate validates remote configuration
func (r *RemoteConfig) Validate() error {
	if r.Enabled && (r.Port < 1 || r.Port > 65535) {
		return fmt.Errorf("port must be between 1 and 65535, got %d", r.Port)
	}

	return nil
}

// Validate validates clips configuration
func (c *ClipsConfig) Validate() error {
	if c.UploadURL != "" {
		u, err := url.Parse(c.UploadURL)
		if err != nil {
			return fmt.Errorf("invalid upload_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("upload_url must be http or https, got %q", u.Scheme)
		}
	}

	if c.UploadTimeout < 1 {
		return fmt.Errorf("upload_timeout must be at least 1 second, got %d", c.UploadTimeout)
	}

	return nil
}

// GetUploadTimeout returns the upload timeout as a time.Duration
func (c *ClipsConfig) GetUploadTimeout() time.Duration {
	return time.Duration(c.UploadTimeout) * time.Second
}
