// Package config defines the meshterm configuration.
//
//   - spec.go: Config struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation of loaded values
//   - sanitize.go: Log sanitization (hide the gossip key)
//
// Configuration is loaded via internal/infra/confloader from a YAML file,
// MESHTERM_* environment variables and command-line flags.
package config
