// Package confloader loads configuration with koanf and watches the
// configuration file for changes.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (MESHTERM_SECTION__KEY)
//  3. The YAML configuration file
//  4. Values already present in the target struct (defaults)
package confloader
