package config

import "time"

// Config is the root configuration for meshterm.
type Config struct {
	Terminal TerminalSection `koanf:"terminal"`
	Mesh     MeshSection     `koanf:"mesh"`
	Log      LogSection      `koanf:"log"`
	Metrics  MetricsSection  `koanf:"metrics"`
}

// TerminalSection configures the command session.
type TerminalSection struct {
	// Prefix is the single character that marks a line as a command.
	Prefix string `koanf:"prefix"`

	Echo       bool   `koanf:"echo"`
	Prompt     bool   `koanf:"prompt"`
	PromptText string `koanf:"prompt_text"`
	Banner     bool   `koanf:"banner"`

	// DefaultTTL is the initial hop limit for sends.
	DefaultTTL int `koanf:"default_ttl"`

	// MaxLineLength bounds one input line in bytes.
	MaxLineLength int `koanf:"max_line_length"`

	HelpOnError bool `koanf:"help_on_error"`

	AckTimeout  time.Duration `koanf:"ack_timeout"`
	PingTimeout time.Duration `koanf:"ping_timeout"`

	// PollInterval is the control loop tick.
	PollInterval time.Duration `koanf:"poll_interval"`
}

// MeshSection configures the mesh node.
type MeshSection struct {
	// NodeID is the member name in the gossip cluster.
	// If empty, the host name is used.
	NodeID string `koanf:"node_id"`

	BindAddr      string `koanf:"bind_addr"`
	BindPort      int    `koanf:"bind_port"`
	AdvertiseAddr string `koanf:"advertise_addr"`
	AdvertisePort int    `koanf:"advertise_port"`

	// Seeds are gossip addresses (host:port) of nodes to join.
	Seeds []string `koanf:"seeds"`

	// Profile is lan, wan or local.
	Profile string `koanf:"profile"`

	Role  string `koanf:"role"`
	Debug string `koanf:"debug"`

	// SecretKey is a base64 AES key (16, 24 or 32 bytes) encrypting gossip traffic.
	SecretKey string `koanf:"secret_key"`

	// SendRate limits operator sends per second; 0 disables the limit.
	SendRate  float64 `koanf:"send_rate"`
	SendBurst int     `koanf:"send_burst"`

	SeenCacheSize int `koanf:"seen_cache_size"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	// File receives log output; empty means stderr.
	File string `koanf:"file"`
}

// MetricsSection configures the admin HTTP endpoint.
type MetricsSection struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}
