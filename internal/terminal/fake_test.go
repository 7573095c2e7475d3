package terminal

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/yndnr/meshterm/internal/core/domain"
	"github.com/yndnr/meshterm/internal/mesh"
)

// fakeStream is an in-memory Stream. Bytes queued with push become
// available to the next Process call.
type fakeStream struct {
	in  []byte
	out bytes.Buffer
}

func (s *fakeStream) push(data string) {
	s.in = append(s.in, data...)
}

func (s *fakeStream) Available() int {
	return len(s.in)
}

func (s *fakeStream) ReadByte() (byte, error) {
	if len(s.in) == 0 {
		return 0, io.EOF
	}
	b := s.in[0]
	s.in = s.in[1:]
	return b, nil
}

func (s *fakeStream) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

type sendCall struct {
	dst      domain.MAC
	payload  string
	ttl      uint8
	reliable bool
}

// recordingMesh records every call made by the terminal.
type recordingMesh struct {
	sends       []sendCall
	roles       []domain.Role
	debugModes  []domain.DebugMode
	discoveries int
	pings       int

	neighbors   []mesh.Neighbor
	pingReplies []mesh.PingReply
	status      mesh.Status

	sendErr     error
	reliableErr error
	roleErr     error
	pingErr     error
}

func (m *recordingMesh) StartDiscovery(context.Context) error {
	m.discoveries++
	return nil
}

func (m *recordingMesh) Neighbors() []mesh.Neighbor {
	return m.neighbors
}

func (m *recordingMesh) Send(dst domain.MAC, payload []byte, ttl uint8) error {
	m.sends = append(m.sends, sendCall{dst: dst, payload: string(payload), ttl: ttl})
	return m.sendErr
}

func (m *recordingMesh) SendReliable(_ context.Context, dst domain.MAC, payload []byte, ttl uint8) error {
	m.sends = append(m.sends, sendCall{dst: dst, payload: string(payload), ttl: ttl, reliable: true})
	return m.reliableErr
}

func (m *recordingMesh) SetRole(role domain.Role) error {
	if m.roleErr != nil {
		return m.roleErr
	}
	m.roles = append(m.roles, role)
	return nil
}

func (m *recordingMesh) SetDebug(mode domain.DebugMode) error {
	m.debugModes = append(m.debugModes, mode)
	m.status.Debug = mode
	return nil
}

func (m *recordingMesh) Ping(context.Context) ([]mesh.PingReply, error) {
	m.pings++
	return m.pingReplies, m.pingErr
}

func (m *recordingMesh) Status() mesh.Status {
	return m.status
}

// newTestTerminal returns a terminal with echo and prompt disabled so that
// the stream output holds diagnostics only.
func newTestTerminal(t *testing.T, mutate ...func(*Options)) (*Terminal, *recordingMesh, *fakeStream) {
	t.Helper()

	m := &recordingMesh{status: mesh.Status{NodeID: "node-a", Role: domain.RoleNode, Debug: domain.DebugOff}}
	s := &fakeStream{}
	opts := DefaultOptions()
	opts.Echo = false
	opts.Prompt = false
	for _, fn := range mutate {
		fn(&opts)
	}

	term, err := New(m, s, opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return term, m, s
}

// run queues input and drains it with a single Process call.
func run(t *testing.T, term *Terminal, s *fakeStream, input string) string {
	t.Helper()
	s.out.Reset()
	s.push(input)
	if err := term.Process(context.Background()); err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	return s.out.String()
}
