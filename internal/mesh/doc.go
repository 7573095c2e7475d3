// Package mesh implements the mesh service driven by the terminal.
//
// A Node joins a gossip cluster (hashicorp/memberlist) and treats every live
// member as a direct neighbor. Each node owns a 6-byte address derived from
// its node ID. Data messages are JSON envelopes carried as memberlist user
// messages; broadcasts and messages to non-neighbors are flooded with a hop
// limit, and relays suppress duplicates by message ID.
package mesh
