// Package output provides output formatting for meshterm.
//
// This package renders the terminal's help, neighbor and status listings:
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned text tables built from tables, structs or slices
//   - encode.go: JSON and YAML encoders for /status json|yaml
package output
