// Package config loads forward settings from a YAML file and the
// environment. Precedence, lowest first: defaults, file, environment.
// Command-line flags are applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/forward/internal/backend"
	"github.com/born-ml/forward/internal/logger"
)

// Environment variables read by FromEnv.
const (
	EnvDevice    = "FORWARD_DEVICE"
	EnvDeviceID  = "FORWARD_DEVICE_ID"
	EnvLogLevel  = "FORWARD_LOG_LEVEL"
	EnvLogFormat = "FORWARD_LOG_FORMAT"
)

// Config holds the runtime settings shared by every command.
type Config struct {
	Device    string `yaml:"device"`
	DeviceID  int    `yaml:"device_id"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Device:    backend.Auto,
		LogLevel:  "info",
		LogFormat: logger.FormatPretty,
	}
}

// Path returns the config file location, $XDG_CONFIG_HOME/forward/config.yaml
// or its platform equivalent. It is empty when no config dir is known.
func Path() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "forward", "config.yaml")
}

// Load reads defaults, then the file at path (a missing file is not an
// error), then the environment. The result is not validated; callers apply
// their own overrides and then call Validate.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("open config: %w", err)
		default:
			defer f.Close()
			if err := cfg.Decode(f); err != nil {
				return cfg, fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	if err := cfg.FromEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode overlays the YAML document in r onto c. Keys absent from the
// document keep their current values.
func (c *Config) Decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config: %w", err)
	}
	return nil
}

// FromEnv overlays the FORWARD_* variables found by lookup onto c.
func (c *Config) FromEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvDevice); ok && v != "" {
		c.Device = v
	}
	if v, ok := lookup(EnvDeviceID); ok && v != "" {
		id, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s=%q: %w", EnvDeviceID, v, err)
		}
		c.DeviceID = id
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		c.LogFormat = v
	}
	return nil
}

// Validate rejects unknown devices, log levels and log formats and
// normalizes the device name.
func (c *Config) Validate() error {
	device, err := backend.Normalize(c.Device)
	if err != nil {
		return err
	}
	c.Device = device
	if c.DeviceID < 0 {
		return fmt.Errorf("device_id %d is negative", c.DeviceID)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logger.NewFormat(io.Discard, c.LogFormat, 0); err != nil {
		return err
	}
	return nil
}

// Logger builds the logger described by c, writing to w.
func (c Config) Logger(w io.Writer) (logger.Logger, error) {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	return logger.NewFormat(w, c.LogFormat, level)
}
