// ABOUTME: Relay configuration loaded from YAML, environment and flags
// ABOUTME: Provides defaults and per-section validation
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Resonate-Protocol/pcm-relay/pkg/audio"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is used when neither the config file nor PORT set one
	DefaultPort = 10000

	// PortEnv names the environment variable that selects the listening port
	PortEnv = "PORT"

	// Slow listener policies
	PolicyDrop  = "drop"
	PolicyClose = "close"
)

// Config represents the complete relay configuration
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Audio     audio.Format    `yaml:"audio"`
	Relay     RelayConfig     `yaml:"relay"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ListenConfig contains the HTTP/websocket listener address
type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RelayConfig contains rolling window and fan-out settings
type RelayConfig struct {
	WindowSeconds  int    `yaml:"window_seconds"`
	SlowListener   string `yaml:"slow_listener"`  // drop or close
	ListenerQueue  int    `yaml:"listener_queue"` // chunks
	WriteTimeoutMs int    `yaml:"write_timeout_ms"`
	PingIntervalMs int    `yaml:"ping_interval_ms"`
}

// SnapshotConfig contains where the latest window is persisted
type SnapshotConfig struct {
	Path string `yaml:"path"`
}

// DiscoveryConfig contains mDNS advertisement settings
type DiscoveryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Name    string `yaml:"name"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Debug bool   `yaml:"debug"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	cfg := &Config{Discovery: DiscoveryConfig{Enabled: true}}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads a YAML file, fills unset fields with defaults and applies the
// PORT environment override. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{Discovery: DiscoveryConfig{Enabled: true}}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyDefaults fills every zero field with its default
func (c *Config) ApplyDefaults() {
	if c.Listen.Port == 0 {
		c.Listen.Port = DefaultPort
	}

	if c.Audio.Codec == "" {
		c.Audio.Codec = audio.CodecPCM
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.Channels == 0 {
		c.Audio.Channels = 1
	}
	if c.Audio.BitDepth == 0 {
		c.Audio.BitDepth = 16
	}

	if c.Relay.WindowSeconds == 0 {
		c.Relay.WindowSeconds = 60
	}
	if c.Relay.SlowListener == "" {
		c.Relay.SlowListener = PolicyClose
	}
	if c.Relay.ListenerQueue == 0 {
		c.Relay.ListenerQueue = 64
	}
	if c.Relay.WriteTimeoutMs == 0 {
		c.Relay.WriteTimeoutMs = 10000
	}
	if c.Relay.PingIntervalMs == 0 {
		c.Relay.PingIntervalMs = 30000
	}

	if c.Snapshot.Path == "" {
		c.Snapshot.Path = "latest.wav"
	}

	if c.Discovery.Name == "" {
		hostname, err := os.Hostname()
		if err != nil || hostname == "" {
			hostname = "pcm-relay"
		}
		c.Discovery.Name = hostname
	}
}

// ApplyEnv applies environment overrides. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(PortEnv); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", PortEnv, v, err)
		}
		c.Listen.Port = port
	}
	return nil
}

// Addr returns the host:port the server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Listen.Host, c.Listen.Port)
}

// Window returns the rolling window length
func (r RelayConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// WriteTimeout returns the per-message websocket write deadline
func (r RelayConfig) WriteTimeout() time.Duration {
	return time.Duration(r.WriteTimeoutMs) * time.Millisecond
}

// PingInterval returns how often listeners are pinged
func (r RelayConfig) PingInterval() time.Duration {
	return time.Duration(r.PingIntervalMs) * time.Millisecond
}

// Validate performs validation of every section
func (c *Config) Validate() error {
	if err := c.Listen.Validate(); err != nil {
		return fmt.Errorf("listen config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Relay.Validate(); err != nil {
		return fmt.Errorf("relay config: %w", err)
	}

	if err := c.Snapshot.Validate(); err != nil {
		return fmt.Errorf("snapshot config: %w", err)
	}

	if c.Discovery.Enabled && c.Discovery.Name == "" {
		return fmt.Errorf("discovery config: name cannot be empty when discovery is enabled")
	}

	return nil
}

// Validate validates listener configuration
func (l *ListenConfig) Validate() error {
	if l.Port < 1 || l.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", l.Port)
	}
	return nil
}

// Validate validates relay configuration
func (r *RelayConfig) Validate() error {
	if r.WindowSeconds < 1 {
		return fmt.Errorf("window_seconds must be at least 1, got %d", r.WindowSeconds)
	}

	if r.SlowListener != PolicyDrop && r.SlowListener != PolicyClose {
		return fmt.Errorf("slow_listener must be %q or %q, got %q", PolicyDrop, PolicyClose, r.SlowListener)
	}

	if r.ListenerQueue < 1 {
		return fmt.Errorf("listener_queue must be at least 1, got %d", r.ListenerQueue)
	}

	if r.WriteTimeoutMs < 1 {
		return fmt.Errorf("write_timeout_ms must be positive, got %d", r.WriteTimeoutMs)
	}

	if r.PingIntervalMs < 1 {
		return fmt.Errorf("ping_interval_ms must be positive, got %d", r.PingIntervalMs)
	}

	return nil
}

// Validate validates snapshot configuration
func (s *SnapshotConfig) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	return nil
}
