package config

import "time"

// Default configuration values.
const (
	DefaultPrefix        = "/"
	DefaultPromptText    = "> "
	DefaultTTL           = 4
	DefaultMaxLineLength = 256
	DefaultAckTimeout    = 2 * time.Second
	DefaultPingTimeout   = 2 * time.Second
	DefaultPollInterval  = 10 * time.Millisecond

	DefaultBindAddr  = "0.0.0.0"
	DefaultBindPort  = 7946
	DefaultProfile   = "lan"
	DefaultRole      = "node"
	DefaultDebug     = "off"
	DefaultSendRate  = 20
	DefaultSendBurst = 10
	DefaultSeenCache = 4096

	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"

	DefaultMetricsAddr = "127.0.0.1:9464"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Terminal: TerminalSection{
			Prefix:        DefaultPrefix,
			Echo:          true,
			Prompt:        true,
			PromptText:    DefaultPromptText,
			Banner:        true,
			DefaultTTL:    DefaultTTL,
			MaxLineLength: DefaultMaxLineLength,
			HelpOnError:   true,
			AckTimeout:    DefaultAckTimeout,
			PingTimeout:   DefaultPingTimeout,
			PollInterval:  DefaultPollInterval,
		},
		Mesh: MeshSection{
			BindAddr:      DefaultBindAddr,
			BindPort:      DefaultBindPort,
			Profile:       DefaultProfile,
			Role:          DefaultRole,
			Debug:         DefaultDebug,
			SendRate:      DefaultSendRate,
			SendBurst:     DefaultSendBurst,
			SeenCacheSize: DefaultSeenCache,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsSection{
			Enabled: false,
			Addr:    DefaultMetricsAddr,
		},
	}
}
