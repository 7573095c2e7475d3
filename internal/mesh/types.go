package mesh

import (
	"time"

	"github.com/yndnr/meshterm/internal/core/domain"
)

// Neighbor is a directly reachable mesh node.
type Neighbor struct {
	Addr     domain.MAC  `json:"addr" yaml:"addr"`
	NodeID   string      `json:"node_id" yaml:"node_id"`
	Role     domain.Role `json:"role" yaml:"role"`
	Endpoint string      `json:"endpoint" yaml:"endpoint"`
	State    string      `json:"state" yaml:"state"`
}

// PingReply is one answer to a mesh ping.
type PingReply struct {
	Addr   domain.MAC    `json:"addr" yaml:"addr"`
	NodeID string        `json:"node_id" yaml:"node_id"`
	RTT    time.Duration `json:"rtt" yaml:"rtt"`
}

// Status is a point-in-time snapshot of the local node.
type Status struct {
	NodeID string           `json:"node_id" yaml:"node_id"`
	Addr   domain.MAC       `json:"addr" yaml:"addr"`
	Role   domain.Role      `json:"role" yaml:"role"`
	Debug  domain.DebugMode `json:"debug" yaml:"debug"`
	// TransportLogs is true while memberlist logs are forwarded (debug verbose).
	TransportLogs bool          `json:"transport_logs" yaml:"transport_logs"`
	Neighbors     int           `json:"neighbors" yaml:"neighbors"`
	Sent          uint64        `json:"sent" yaml:"sent"`
	Received      uint64        `json:"received" yaml:"received"`
	Relayed       uint64        `json:"relayed" yaml:"relayed"`
	Uptime        time.Duration `json:"uptime" yaml:"uptime"`
}
