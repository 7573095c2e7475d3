// Package domain defines the value types shared by the mesh terminal.
//
// Domain types are pure values without any IO dependencies:
//
//   - MAC: 6-byte mesh node address, parsed from and printed as text
//   - Role: the node role advertised to the mesh
//   - DebugMode: the verbosity requested from the mesh service
//   - TTL: hop-count bounds and parsing for outgoing messages
//   - Errors: coded domain errors reported as terminal diagnostics
package domain
