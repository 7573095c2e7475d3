package config

import "strings"

// Sanitize returns a copy of the config with the gossip key masked, for logging.
func Sanitize(cfg *Config) *Config {
	sanitized := *cfg
	sanitized.Mesh.Seeds = append([]string(nil), cfg.Mesh.Seeds...)

	if sanitized.Mesh.SecretKey != "" {
		sanitized.Mesh.SecretKey = maskSecret(sanitized.Mesh.SecretKey)
	}

	return &sanitized
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
