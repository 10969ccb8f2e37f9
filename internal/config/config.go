package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that decodes from TOML strings like "20s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for toml decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the bridge configuration, read from a TOML file.
type Config struct {
	Device  Device  `toml:"device"`
	Bridge  Bridge  `toml:"bridge"`
	MQTT    MQTT    `toml:"mqtt"`
	Archive Archive `toml:"archive"`
	Metrics Metrics `toml:"metrics"`
	Log     Log     `toml:"log"`
}

// Device describes how to reach the router's SMS HTTP API.
type Device struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	Timeout  Duration `toml:"timeout"`
}

// Bridge holds poll and retention settings.
type Bridge struct {
	PollInterval Duration `toml:"poll_interval"`
	// DeleteAfter is the maximum message age before the bridge deletes the
	// message from the device. Zero (absent) disables deletion.
	DeleteAfter Duration `toml:"delete_after"`
	TopicPrefix string   `toml:"topic_prefix"`
	// StateDir holds the instance lock (and the log file and archive unless
	// configured elsewhere).
	StateDir string `toml:"state_dir"`
	// SeenLimit bounds the in-memory set of already-surfaced message
	// identities. Zero keeps it unbounded.
	SeenLimit int `toml:"seen_limit"`
}

// MQTT holds broker connection settings.
type MQTT struct {
	Broker   string `toml:"broker"`
	ClientID string `toml:"client_id"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Archive enables the local SQLite archive of received messages.
type Archive struct {
	Path string `toml:"path"`
}

// Metrics enables the Prometheus /metrics listener.
type Metrics struct {
	Listen string `toml:"listen"`
}

// Log configures the optional JSON log file (stderr logging is always on).
type Log struct {
	File string `toml:"file"`
}

// Load reads and validates the config file at path, applying defaults for
// everything the file leaves out.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Device.Host == "" {
		c.Device.Host = "192.168.1.1"
	}
	if c.Device.Port == 0 {
		c.Device.Port = 80
	}
	if c.Device.Timeout == 0 {
		c.Device.Timeout = Duration(10 * time.Second)
	}
	if c.Bridge.PollInterval == 0 {
		c.Bridge.PollInterval = Duration(20 * time.Second)
	}
	if c.Bridge.TopicPrefix == "" {
		c.Bridge.TopicPrefix = "rutos_sms"
	}
	if c.Bridge.StateDir == "" {
		home, _ := os.UserHomeDir()
		c.Bridge.StateDir = filepath.Join(home, ".rutos-sms")
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = "tcp://localhost:1883"
	}
}

func (c *Config) validate() error {
	if c.Device.Username == "" {
		return fmt.Errorf("device.username is required")
	}
	if c.Device.Password == "" {
		return fmt.Errorf("device.password is required")
	}
	if c.Bridge.PollInterval.Std() < time.Second {
		return fmt.Errorf("bridge.poll_interval must be at least 1s")
	}
	if c.Bridge.DeleteAfter < 0 {
		return fmt.Errorf("bridge.delete_after must not be negative")
	}
	return nil
}
