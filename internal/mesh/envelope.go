package mesh

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/meshterm/internal/core/domain"
)

// Kind identifies the purpose of an envelope.
type Kind string

const (
	// KindData is a best-effort payload.
	KindData Kind = "data"
	// KindDataAckReq is a payload whose destination must answer with KindAck.
	KindDataAckReq Kind = "data_ack_req"
	// KindAck acknowledges the envelope named by Ref.
	KindAck Kind = "ack"
)

func (k Kind) valid() bool {
	switch k {
	case KindData, KindDataAckReq, KindAck:
		return true
	}
	return false
}

// Envelope is the wire format of every mesh message.
type Envelope struct {
	ID      string     `json:"id"`
	Kind    Kind       `json:"kind"`
	Src     domain.MAC `json:"src"`
	Dst     domain.MAC `json:"dst"`
	TTL     uint8      `json:"ttl"`
	Ref     string     `json:"ref,omitempty"`
	Payload []byte     `json:"payload,omitempty"`
}

// Message is a payload delivered to the local node.
type Message struct {
	ID       string
	Src      domain.MAC
	Dst      domain.MAC
	Payload  []byte
	Reliable bool
	// TTL is the hop budget left when the message arrived.
	TTL uint8
}

// Broadcast reports whether the message was addressed to every node.
func (m Message) Broadcast() bool {
	return m.Dst.IsBroadcast()
}

func encodeEnvelope(env *Envelope) ([]byte, error) {
	return json.Marshal(env)
}

func decodeEnvelope(buf []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.ID == "" {
		return nil, fmt.Errorf("decode envelope: missing id")
	}
	if !env.Kind.valid() {
		return nil, fmt.Errorf("decode envelope: unknown kind %q", env.Kind)
	}
	if env.Kind == KindAck && env.Ref == "" {
		return nil, fmt.Errorf("decode envelope: ack without ref")
	}
	return &env, nil
}

// idSource generates monotonic ULID message IDs.
type idSource struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newIDSource() *idSource {
	return &idSource{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (s *idSource) next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), s.entropy)
	if err != nil {
		return "", fmt.Errorf("generate message id: %w", err)
	}
	return id.String(), nil
}
