package domain

import "strings"

// Role is the function a node advertises to the rest of the mesh.
type Role string

const (
	// RoleNode is a leaf node that originates and receives traffic.
	RoleNode Role = "node"
	// RoleRouter relays traffic for other nodes.
	RoleRouter Role = "router"
	// RoleGateway bridges the mesh to an external network.
	RoleGateway Role = "gateway"
)

// Roles lists the recognized roles in display order.
var Roles = []Role{RoleNode, RoleRouter, RoleGateway}

// ParseRole resolves a role token case-insensitively.
func ParseRole(s string) (Role, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	for _, r := range Roles {
		if string(r) == token {
			return r, nil
		}
	}
	if token == "" {
		return "", ErrMissingArgument.WithDetails("role")
	}
	return "", ErrUnknownRole.WithDetails(s)
}

// DebugMode is the verbosity requested from the mesh service.
type DebugMode string

const (
	// DebugOff logs informational events only.
	DebugOff DebugMode = "off"
	// DebugOn logs debug events of the node.
	DebugOn DebugMode = "on"
	// DebugVerbose additionally logs gossip transport internals.
	DebugVerbose DebugMode = "verbose"
)

// DebugModes lists the recognized debug modes in display order.
var DebugModes = []DebugMode{DebugOff, DebugOn, DebugVerbose}

// ParseDebugMode resolves a debug mode token case-insensitively.
// "0"/"1" and "false"/"true" are accepted as aliases for off/on.
func ParseDebugMode(s string) (DebugMode, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	switch token {
	case "0", "false":
		return DebugOff, nil
	case "1", "true":
		return DebugOn, nil
	case "":
		return "", ErrMissingArgument.WithDetails("debug mode")
	}
	for _, m := range DebugModes {
		if string(m) == token {
			return m, nil
		}
	}
	return "", ErrUnknownDebugMode.WithDetails(s)
}
