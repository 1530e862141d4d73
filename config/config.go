// Package config handles application configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	appName        = "worklens"
	configFileName = "config.json"
)

// Config represents the application configuration. Zero values are
// replaced with defaults on Load, so a partial config file is valid.
type Config struct {
	// Audio capture
	SampleRate    uint32 `json:"sample_rate"`
	Channels      uint32 `json:"channels"`
	WindowSeconds int    `json:"window_seconds"`

	// Speech gating. SilenceRMS is on the raw 16-bit PCM scale;
	// LevelDivisor normalizes RMS into a 0..1 meter value. Both came
	// from the reference implementation without a documented
	// derivation, which is why they are configuration rather than
	// constants.
	SilenceRMS   float64 `json:"silence_rms"`
	LevelDivisor float64 `json:"level_divisor"`

	// Transcription
	UploadFormat string `json:"upload_format"` // "wav" or "flac"
	Language     string `json:"language"`

	// Workflow synthesis
	Models             []string `json:"models"` // most to least capable
	SingleTimeoutSec   int      `json:"single_timeout_sec"`
	CombinedTimeoutSec int      `json:"combined_timeout_sec"`

	// Screen recording
	RecordFPS int `json:"record_fps"`

	// Storage and serving
	DataDir  string `json:"data_dir"`
	HTTPAddr string `json:"http_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SampleRate:         16000,
		Channels:           1,
		WindowSeconds:      10,
		SilenceRMS:         20,
		LevelDivisor:       500,
		UploadFormat:       "wav",
		Language:           "en",
		Models:             []string{"gpt-4o", "gpt-4-turbo", "gpt-4", "gpt-3.5-turbo"},
		SingleTimeoutSec:   30,
		CombinedTimeoutSec: 60,
		RecordFPS:          3,
		DataDir:            "data",
		HTTPAddr:           "127.0.0.1:8750",
	}
}

// Load reads the config file, filling in defaults for missing fields.
// A missing file is not an error; defaults are returned.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.fillDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the config file, creating the
// directory if needed.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// WindowDuration returns the audio window length.
func (c *Config) WindowDuration() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

// SingleTimeout returns the per-attempt timeout for single-source
// workflow generation.
func (c *Config) SingleTimeout() time.Duration {
	return time.Duration(c.SingleTimeoutSec) * time.Second
}

// CombinedTimeout returns the per-attempt timeout for combined
// workflow generation.
func (c *Config) CombinedTimeout() time.Duration {
	return time.Duration(c.CombinedTimeoutSec) * time.Second
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.SampleRate == 0 {
		c.SampleRate = def.SampleRate
	}
	if c.Channels == 0 {
		c.Channels = def.Channels
	}
	if c.WindowSeconds == 0 {
		c.WindowSeconds = def.WindowSeconds
	}
	if c.SilenceRMS == 0 {
		c.SilenceRMS = def.SilenceRMS
	}
	if c.LevelDivisor == 0 {
		c.LevelDivisor = def.LevelDivisor
	}
	if c.UploadFormat == "" {
		c.UploadFormat = def.UploadFormat
	}
	if len(c.Models) == 0 {
		c.Models = def.Models
	}
	if c.SingleTimeoutSec == 0 {
		c.SingleTimeoutSec = def.SingleTimeoutSec
	}
	if c.CombinedTimeoutSec == 0 {
		c.CombinedTimeoutSec = def.CombinedTimeoutSec
	}
	if c.RecordFPS == 0 {
		c.RecordFPS = def.RecordFPS
	}
	if c.DataDir == "" {
		c.DataDir = def.DataDir
	}
	if c.HTTPAddr == "" {
		c.HTTPAddr = def.HTTPAddr
	}
}

func (c *Config) validate() error {
	switch c.UploadFormat {
	case "wav", "flac":
	default:
		return fmt.Errorf("unknown upload format %q (use wav or flac)", c.UploadFormat)
	}
	if c.Channels != 1 {
		return fmt.Errorf("only mono capture is supported, got %d channels", c.Channels)
	}
	if c.WindowSeconds < 1 {
		return fmt.Errorf("window_seconds must be at least 1, got %d", c.WindowSeconds)
	}
	return nil
}

func configPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config dir: %w", err)
	}
	return filepath.Join(base, appName, configFileName), nil
}
