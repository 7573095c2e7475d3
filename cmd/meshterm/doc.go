// Package main provides the entry point for meshterm.
//
// meshterm is an interactive console for a mesh network node. It reads
// operator input from stdin (or a serial line attached to stdin), runs
// the /-prefixed built-in commands against a gossip-backed mesh node, and
// prints messages received from the mesh.
//
// Usage:
//
//	meshterm --node-id alpha --port 7946
//	meshterm --node-id beta --port 7947 --seed 127.0.0.1:7946
//	meshterm --config /etc/meshterm/meshterm.yaml
package main
