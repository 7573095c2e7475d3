package mesh

import (
	"github.com/spaolacci/murmur3"

	"github.com/yndnr/meshterm/internal/core/domain"
)

// AddressFor derives the mesh address of a node from its node ID.
//
// The address is the low 48 bits of the node ID's MurmurHash3 with the
// locally administered bit set and the group bit cleared, so it never
// collides with the broadcast address.
func AddressFor(nodeID string) domain.MAC {
	h := murmur3.Sum64([]byte(nodeID))

	var m domain.MAC
	for i := domain.MACLen - 1; i >= 0; i-- {
		m[i] = byte(h)
		h >>= 8
	}
	m[0] = m[0]&^0x01 | 0x02
	return m
}
