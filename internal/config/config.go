package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Stream  StreamConfig  `yaml:"stream"`
	HTTP    HTTPConfig    `yaml:"http"`
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig contains TCP listener configuration
type ServerConfig struct {
	Port         int    `yaml:"port"`
	BindAddress  string `yaml:"bind_address"`
	Backlog      int    `yaml:"backlog"`
	ReuseAddress bool   `yaml:"reuse_address"`
}

// StreamConfig contains the payload framing and pacing parameters
type StreamConfig struct {
	HeaderSize    int     `yaml:"header_size"`     // bytes skipped at file start
	ChunkSize     int     `yaml:"chunk_size"`      // bytes
	PacingDelayMs float64 `yaml:"pacing_delay_ms"` // milliseconds
}

// HTTPConfig contains monitoring API configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// ClientConfig contains receiver configuration
type ClientConfig struct {
	Address        string `yaml:"address"`
	ReadSize       int    `yaml:"read_size"`        // bytes
	RingBufferSize int    `yaml:"ring_buffer_size"` // bytes
	SampleRate     int    `yaml:"sample_rate"`
	Channels       int    `yaml:"channels"`
	BitDepth       int    `yaml:"bit_depth"`
	DialTimeout    int    `yaml:"dial_timeout"` // seconds
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			BindAddress:  "0.0.0.0",
			Backlog:      1,
			ReuseAddress: true,
		},
		Stream: StreamConfig{
			HeaderSize:    44,
			ChunkSize:     4096,
			PacingDelayMs: 2,
		},
		HTTP: HTTPConfig{
			Port:    9090,
			Address: "127.0.0.1",
			Enabled: false,
		},
		Client: ClientConfig{
			Address:        "127.0.0.1:8080",
			ReadSize:       4096,
			RingBufferSize: 1024 * 1024,
			SampleRate:     44100,
			Channels:       2,
			BitDepth:       16,
			DialTimeout:    5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the configuration file on top of the defaults.
// An empty path returns the validated defaults.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs validation of every configuration section
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("stream config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Client.Validate(); err != nil {
		return fmt.Errorf("client config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if ip := net.ParseIP(s.BindAddress); ip == nil || ip.To4() == nil {
		return fmt.Errorf("bind_address must be an IPv4 address, got '%s'", s.BindAddress)
	}

	if s.Backlog < 1 {
		return fmt.Errorf("backlog must be at least 1, got %d", s.Backlog)
	}

	return nil
}

// Validate validates stream configuration
func (s *StreamConfig) Validate() error {
	if s.HeaderSize < 0 {
		return fmt.Errorf("header_size cannot be negative, got %d", s.HeaderSize)
	}

	if s.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1 byte, got %d", s.ChunkSize)
	}

	if s.PacingDelayMs < 0 {
		return fmt.Errorf("pacing_delay_ms cannot be negative, got %f", s.PacingDelayMs)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates client configuration
func (c *ClientConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address cannot be empty")
	}

	if _, _, err := net.SplitHostPort(c.Address); err != nil {
		return fmt.Errorf("address must be host:port, got '%s'", c.Address)
	}

	if c.ReadSize < 1 {
		return fmt.Errorf("read_size must be at least 1 byte, got %d", c.ReadSize)
	}

	if c.RingBufferSize < c.ReadSize {
		return fmt.Errorf("ring_buffer_size (%d) must be at least read_size (%d)",
			c.RingBufferSize, c.ReadSize)
	}

	if c.SampleRate < 1 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}

	if c.Channels < 1 || c.Channels > 8 {
		return fmt.Errorf("channels must be between 1 and 8, got %d", c.Channels)
	}

	if c.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", c.BitDepth)
	}

	if c.DialTimeout < 1 {
		return fmt.Errorf("dial_timeout must be at least 1 second, got %d", c.DialTimeout)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Output is stdout, stderr or a file path; all are accepted.
	return nil
}

// Address returns the listen address in host:port form
func (s *ServerConfig) Address() string {
	return net.JoinHostPort(s.BindAddress, fmt.Sprintf("%d", s.Port))
}

// GetPacingDelay returns the inter-chunk pause as a time.Duration
func (s *StreamConfig) GetPacingDelay() time.Duration {
	return time.Duration(s.PacingDelayMs * float64(time.Millisecond))
}

// GetDialTimeoutDuration returns the dial timeout as a time.Duration
func (c *ClientConfig) GetDialTimeoutDuration() time.Duration {
	return time.Duration(c.DialTimeout) * time.Second
}

// ListenAddress returns the monitoring API address in host:port form
func (h *HTTPConfig) ListenAddress() string {
	return net.JoinHostPort(h.Address, fmt.Sprintf("%d", h.Port))
}
