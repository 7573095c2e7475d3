// Package buildinfo exposes build information for meshterm.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/meshterm/internal/infra/buildinfo.Version=v1.0.0"
//
// GoVersion and, when ldflags were not used, Commit are read from the
// module build information embedded by the Go toolchain.
package buildinfo
