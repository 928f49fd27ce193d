package relay

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds relay tuning knobs.
type Config struct {
	SendBuffer          int   `yaml:"send_buffer"`
	MaxMessageBytes     int64 `yaml:"max_message_bytes"`
	PingSeconds         int   `yaml:"ping_seconds"`
	PongTimeoutSeconds  int   `yaml:"pong_timeout_seconds"`
	WriteTimeoutSeconds int   `yaml:"write_timeout_seconds"`
}

// LoadConfig loads relay tuning from yaml or env.
func LoadConfig() (Config, error) {
	cfg := Config{
		SendBuffer:          64,
		MaxMessageBytes:     64 * 1024,
		PingSeconds:         30,
		PongTimeoutSeconds:  60,
		WriteTimeoutSeconds: 10,
	}

	if path := os.Getenv("RELAY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if value := getenvInt("RELAY_SEND_BUFFER"); value > 0 {
		cfg.SendBuffer = value
	}
	if value := getenvInt("RELAY_MAX_MESSAGE_BYTES"); value > 0 {
		cfg.MaxMessageBytes = int64(value)
	}
	if value := getenvInt("RELAY_PING_SECONDS"); value > 0 {
		cfg.PingSeconds = value
	}

	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 64
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = 64 * 1024
	}
	if cfg.PingSeconds <= 0 {
		cfg.PingSeconds = 30
	}
	if cfg.PongTimeoutSeconds <= cfg.PingSeconds {
		cfg.PongTimeoutSeconds = cfg.PingSeconds * 2
	}
	if cfg.WriteTimeoutSeconds <= 0 {
		cfg.WriteTimeoutSeconds = 10
	}
	return cfg, nil
}

// PingInterval is the keepalive ping cadence.
func (c Config) PingInterval() time.Duration {
	return time.Duration(c.PingSeconds) * time.Second
}

// PongWait is how long to wait for a pong before dropping the connection.
func (c Config) PongWait() time.Duration {
	return time.Duration(c.PongTimeoutSeconds) * time.Second
}

// WriteWait is the per-frame write deadline.
func (c Config) WriteWait() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

func getenvInt(key string) int {
	value := os.Getenv(key)
	if value == "" {
		return 0
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return parsed
}
