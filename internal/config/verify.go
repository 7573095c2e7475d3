package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode"

	"github.com/yndnr/meshterm/internal/core/domain"
)

// Verify validates the configuration.
func Verify(cfg *Config) error {
	if err := verifyTerminal(&cfg.Terminal); err != nil {
		return err
	}
	if err := verifyMesh(&cfg.Mesh); err != nil {
		return err
	}
	if err := verifyLog(&cfg.Log); err != nil {
		return err
	}
	return verifyMetrics(&cfg.Metrics)
}

func verifyTerminal(cfg *TerminalSection) error {
	if len(cfg.Prefix) != 1 {
		return fmt.Errorf("terminal.prefix must be exactly one character, got %q", cfg.Prefix)
	}
	p := rune(cfg.Prefix[0])
	if p > unicode.MaxASCII || unicode.IsSpace(p) || unicode.IsControl(p) {
		return fmt.Errorf("terminal.prefix must be a printable ASCII character, got %q", cfg.Prefix)
	}
	if err := domain.ValidateTTL(cfg.DefaultTTL); err != nil {
		return fmt.Errorf("terminal.default_ttl: %w", err)
	}
	if cfg.MaxLineLength < 1 {
		return errors.New("terminal.max_line_length must be at least 1")
	}
	if cfg.AckTimeout <= 0 {
		return errors.New("terminal.ack_timeout must be positive")
	}
	if cfg.PingTimeout <= 0 {
		return errors.New("terminal.ping_timeout must be positive")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("terminal.poll_interval must be positive")
	}
	return nil
}

func verifyMesh(cfg *MeshSection) error {
	if cfg.BindPort < 0 || cfg.BindPort > 65535 {
		return fmt.Errorf("mesh.bind_port out of range: %d", cfg.BindPort)
	}
	if cfg.AdvertisePort < 0 || cfg.AdvertisePort > 65535 {
		return fmt.Errorf("mesh.advertise_port out of range: %d", cfg.AdvertisePort)
	}
	if cfg.BindAddr != "" && net.ParseIP(cfg.BindAddr) == nil {
		return fmt.Errorf("mesh.bind_addr is not an IP address: %q", cfg.BindAddr)
	}
	for _, seed := range cfg.Seeds {
		if _, _, err := net.SplitHostPort(seed); err != nil {
			return fmt.Errorf("mesh.seeds: %q: %w", seed, err)
		}
	}

	switch cfg.Profile {
	case "lan", "wan", "local":
	default:
		return fmt.Errorf("mesh.profile must be lan, wan or local, got %q", cfg.Profile)
	}

	if _, err := domain.ParseRole(cfg.Role); err != nil {
		return fmt.Errorf("mesh.role: %w", err)
	}
	if _, err := domain.ParseDebugMode(cfg.Debug); err != nil {
		return fmt.Errorf("mesh.debug: %w", err)
	}
	if _, err := SecretKeyBytes(cfg.SecretKey); err != nil {
		return err
	}

	if cfg.SendRate < 0 {
		return errors.New("mesh.send_rate must not be negative")
	}
	if cfg.SendRate > 0 && cfg.SendBurst < 1 {
		return errors.New("mesh.send_burst must be at least 1 when send_rate is set")
	}
	if cfg.SeenCacheSize < 1 {
		return errors.New("mesh.seen_cache_size must be at least 1")
	}
	return nil
}

// SecretKeyBytes decodes mesh.secret_key. An empty key disables encryption.
func SecretKeyBytes(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("mesh.secret_key is not valid base64: %w", err)
	}
	switch len(key) {
	case 16, 24, 32:
		return key, nil
	default:
		return nil, fmt.Errorf("mesh.secret_key must decode to 16, 24 or 32 bytes, got %d", len(key))
	}
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format must be json or text, got %q", cfg.Format)
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if !cfg.Enabled {
		return nil
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("metrics.addr: %w", err)
	}
	return nil
}
