package terminal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/meshterm/internal/core/domain"
	"github.com/yndnr/meshterm/internal/mesh"
	"github.com/yndnr/meshterm/internal/telemetry/metric"
)

func TestNew(t *testing.T) {
	t.Run("requires mesh and stream", func(t *testing.T) {
		if _, err := New(nil, &fakeStream{}, DefaultOptions()); err == nil {
			t.Error("New(nil mesh) should fail")
		}
		if _, err := New(&recordingMesh{}, nil, DefaultOptions()); err == nil {
			t.Error("New(nil stream) should fail")
		}
	})

	t.Run("zero options fall back to defaults", func(t *testing.T) {
		term, err := New(&recordingMesh{}, &fakeStream{}, Options{})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		opts := term.Options()
		if opts.Prefix != DefaultPrefix {
			t.Errorf("Prefix = %q, want %q", opts.Prefix, DefaultPrefix)
		}
		if opts.DefaultTTL != domain.TTLDefault {
			t.Errorf("DefaultTTL = %d, want %d", opts.DefaultTTL, domain.TTLDefault)
		}
		if opts.MaxLineLength != DefaultMaxLineLength {
			t.Errorf("MaxLineLength = %d, want %d", opts.MaxLineLength, DefaultMaxLineLength)
		}
		if opts.PromptText != DefaultPromptText {
			t.Errorf("PromptText = %q, want %q", opts.PromptText, DefaultPromptText)
		}
	})

	t.Run("rejects invalid options", func(t *testing.T) {
		bad := []Options{
			{Prefix: ' '},
			{Prefix: '\t'},
			{DefaultTTL: domain.TTLMax + 1},
		}
		for _, opts := range bad {
			if _, err := New(&recordingMesh{}, &fakeStream{}, opts); err == nil {
				t.Errorf("New(%+v) should fail", opts)
			}
		}
	})
}

func TestProcess_TTLOnlyAfterTerminator(t *testing.T) {
	term, m, s := newTestTerminal(t)

	input := "/ttl 5\n"
	for i := 0; i < len(input); i++ {
		s.push(input[i : i+1])
		if err := term.Process(context.Background()); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if i < len(input)-1 && term.DefaultTTL() != domain.TTLDefault {
			t.Fatalf("TTL changed after partial input %q", input[:i+1])
		}
	}

	if term.DefaultTTL() != 5 {
		t.Errorf("DefaultTTL() = %d, want 5", term.DefaultTTL())
	}
	if got := strings.Count(s.out.String(), "Default TTL set to 5"); got != 1 {
		t.Errorf("TTL set reported %d times, want 1", got)
	}
	if len(m.sends) != 0 || m.discoveries != 0 || m.pings != 0 {
		t.Error("ttl should not call the mesh service")
	}
}

func TestTTLCommand(t *testing.T) {
	tests := []struct {
		arg     string
		want    uint8
		wantErr string
	}{
		{"1", 1, ""},
		{"10", 10, ""},
		{"7", 7, ""},
		{"0", domain.TTLDefault, "TTL out of range"},
		{"11", domain.TTLDefault, "TTL out of range"},
		{"-3", domain.TTLDefault, "TTL out of range"},
		{"abc", domain.TTLDefault, "invalid TTL"},
		{"5x", domain.TTLDefault, "invalid TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			term, _, s := newTestTerminal(t)
			out := run(t, term, s, "/ttl "+tt.arg+"\n")

			if term.DefaultTTL() != tt.want {
				t.Errorf("DefaultTTL() = %d, want %d", term.DefaultTTL(), tt.want)
			}
			if tt.wantErr != "" && !strings.Contains(out, "Error: "+tt.wantErr) {
				t.Errorf("output = %q, want error %q", out, tt.wantErr)
			}
			if tt.wantErr == "" && strings.Contains(out, "Error") {
				t.Errorf("unexpected error output %q", out)
			}
		})
	}

	t.Run("no argument shows current value", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		out := run(t, term, s, "/ttl\n")
		if out != "Default TTL: 4\r\n" {
			t.Errorf("output = %q", out)
		}
	})
}

func TestUnicast(t *testing.T) {
	t.Run("sends to parsed address with default ttl", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		run(t, term, s, "/unicast AA:BB:CC:DD:EE:FF hello\n")

		if len(m.sends) != 1 {
			t.Fatalf("sends = %d, want 1", len(m.sends))
		}
		want := sendCall{
			dst:     domain.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
			payload: "hello",
			ttl:     domain.TTLDefault,
		}
		if m.sends[0] != want {
			t.Errorf("send = %+v, want %+v", m.sends[0], want)
		}
	})

	t.Run("message keeps inner whitespace", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		run(t, term, s, "/unicast aa-bb-cc-dd-ee-ff   hello  mesh world\n")
		if len(m.sends) != 1 || m.sends[0].payload != "hello  mesh world" {
			t.Errorf("sends = %+v", m.sends)
		}
	})

	t.Run("uses updated ttl", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		run(t, term, s, "/ttl 9\n/unicast 01:02:03:04:05:06 x\n")
		if len(m.sends) != 1 || m.sends[0].ttl != 9 {
			t.Errorf("sends = %+v", m.sends)
		}
	})

	rejects := []struct {
		name  string
		input string
		want  string
	}{
		{"non-hex group", "/unicast ZZ:11:22:33:44:55 hi\n", "Error: invalid MAC address: ZZ:11:22:33:44:55"},
		{"short address", "/unicast AA:BB:CC hi\n", "Error: invalid MAC address"},
		{"missing message", "/unicast AA:BB:CC:DD:EE:FF\n", "Error: missing required argument: message"},
		{"missing everything", "/unicast\n", "Error: missing required argument: mac"},
	}
	for _, tt := range rejects {
		t.Run(tt.name, func(t *testing.T) {
			term, m, s := newTestTerminal(t)
			out := run(t, term, s, tt.input)
			if len(m.sends) != 0 {
				t.Errorf("send called %d times, want 0", len(m.sends))
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}

	t.Run("reports send failure", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		m.sendErr = errors.New("radio down")
		out := run(t, term, s, "/unicast AA:BB:CC:DD:EE:FF hi\n")
		if !strings.Contains(out, "Error: send failed: radio down") {
			t.Errorf("output = %q", out)
		}
	})
}

func TestBroadcast(t *testing.T) {
	term, m, s := newTestTerminal(t)

	out := run(t, term, s, "/broadcast\n")
	if len(m.sends) != 0 {
		t.Fatal("empty broadcast should not send")
	}
	if !strings.Contains(out, "missing required argument") {
		t.Errorf("output = %q", out)
	}

	run(t, term, s, "/broadcast hello all\n")
	if len(m.sends) != 1 {
		t.Fatalf("sends = %d, want 1", len(m.sends))
	}
	if m.sends[0].dst != domain.BroadcastMAC || m.sends[0].payload != "hello all" || m.sends[0].ttl != domain.TTLDefault {
		t.Errorf("send = %+v", m.sends[0])
	}
}

func TestReliable(t *testing.T) {
	t.Run("delivered", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		out := run(t, term, s, "/reliable 0A:0B:0C:0D:0E:0F ping\n")
		if len(m.sends) != 1 || !m.sends[0].reliable {
			t.Fatalf("sends = %+v", m.sends)
		}
		if !strings.Contains(out, "Delivered to 0A:0B:0C:0D:0E:0F") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("timeout", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		m.reliableErr = context.DeadlineExceeded
		out := run(t, term, s, "/reliable 0A:0B:0C:0D:0E:0F ping\n")
		if !strings.Contains(out, "Error: delivery not acknowledged") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("mesh domain error passes through", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		m.reliableErr = domain.ErrNoRoute
		out := run(t, term, s, "/reliable 0A:0B:0C:0D:0E:0F ping\n")
		if !strings.Contains(out, "Error: no route to destination") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("invalid mac", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		run(t, term, s, "/reliable 0A:0B:0C:0D:0E ping\n")
		if len(m.sends) != 0 {
			t.Error("invalid address should not send")
		}
	})
}

func TestRoleAndDebug(t *testing.T) {
	term, m, s := newTestTerminal(t)

	run(t, term, s, "/role ROUTER\n")
	if len(m.roles) != 1 || m.roles[0] != domain.RoleRouter {
		t.Errorf("roles = %v", m.roles)
	}

	out := run(t, term, s, "/role toaster\n")
	if len(m.roles) != 1 {
		t.Error("unknown role should not reach mesh")
	}
	if !strings.Contains(out, "Error: unknown role: toaster") {
		t.Errorf("output = %q", out)
	}

	run(t, term, s, "/debug verbose\n/debug 0\n")
	if len(m.debugModes) != 2 || m.debugModes[0] != domain.DebugVerbose || m.debugModes[1] != domain.DebugOff {
		t.Errorf("debug modes = %v", m.debugModes)
	}

	out = run(t, term, s, "/debug loud\n")
	if len(m.debugModes) != 2 {
		t.Error("unknown debug mode should not reach mesh")
	}
	if !strings.Contains(out, "Error: unknown debug mode") {
		t.Errorf("output = %q", out)
	}

	if out := run(t, term, s, "/debug\n"); out != "Debug: off\r\n" {
		t.Errorf("output = %q", out)
	}
}

func TestDiscoveryNeighborsPing(t *testing.T) {
	term, m, s := newTestTerminal(t)

	if out := run(t, term, s, "/discover\n"); out != "Discovery started\r\n" || m.discoveries != 1 {
		t.Errorf("output = %q, discoveries = %d", out, m.discoveries)
	}

	if out := run(t, term, s, "/neighbors\n"); out != "No neighbors\r\n" {
		t.Errorf("output = %q", out)
	}

	m.neighbors = []mesh.Neighbor{{
		Addr:   domain.MAC{0x02, 0, 0, 0, 0, 0x01},
		NodeID: "node-b",
		Role:   domain.RoleGateway,
		State:  "alive",
	}}
	out := run(t, term, s, "/LIST\n")
	for _, want := range []string{"Neighbors (1):", "ADDR", "02:00:00:00:00:01", "node-b", "gateway"} {
		if !strings.Contains(out, want) {
			t.Errorf("neighbors output missing %q: %q", want, out)
		}
	}

	out = run(t, term, s, "/ping\n")
	if m.pings != 1 || !strings.Contains(out, "Error: no response") {
		t.Errorf("pings = %d, output = %q", m.pings, out)
	}

	m.pingReplies = []mesh.PingReply{{Addr: domain.MAC{0x02, 0, 0, 0, 0, 0x01}, NodeID: "node-b"}}
	out = run(t, term, s, "/ping\n")
	if !strings.Contains(out, "Ping: 1 replies") || !strings.Contains(out, "node-b") {
		t.Errorf("output = %q", out)
	}
}

func TestClassify(t *testing.T) {
	for _, tt := range []struct {
		echo, prompt bool
	}{
		{false, false},
		{true, false},
		{false, true},
		{true, true},
	} {
		name := fmt.Sprintf("free text invokes nothing echo=%v prompt=%v", tt.echo, tt.prompt)
		t.Run(name, func(t *testing.T) {
			term, m, s := newTestTerminal(t)
			term.EnableEcho(tt.echo)
			term.EnablePrompt(tt.prompt)
			out := run(t, term, s, "hello there\n\n   \nttl 3\n")
			if !tt.echo && !tt.prompt && out != "" {
				t.Errorf("output = %q, want none", out)
			}
			if strings.Contains(out, "Unknown command") || strings.Contains(out, "Error:") {
				t.Errorf("output = %q, free text reached a handler", out)
			}
			if len(m.sends) != 0 || term.DefaultTTL() != domain.TTLDefault {
				t.Error("free text should not run commands")
			}
		})
	}

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		run(t, term, s, "   /ttl 3   \n")
		if term.DefaultTTL() != 3 {
			t.Errorf("DefaultTTL() = %d, want 3", term.DefaultTTL())
		}
	})

	t.Run("names are case-insensitive", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		run(t, term, s, "/TtL 2\n")
		if term.DefaultTTL() != 2 {
			t.Errorf("DefaultTTL() = %d, want 2", term.DefaultTTL())
		}
	})

	t.Run("unknown command", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		out := run(t, term, s, "/nope arg\n")
		want := "Unknown command: /nope\r\nType /help for available commands\r\n"
		if out != want {
			t.Errorf("output = %q, want %q", out, want)
		}

		term.helpOnError = false
		if out := run(t, term, s, "/nope\n"); out != "Unknown command: /nope\r\n" {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("custom prefix", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		if err := term.SetCommandPrefix('!'); err != nil {
			t.Fatalf("SetCommandPrefix() error = %v", err)
		}
		run(t, term, s, "/ttl 2\n!ttl 6\n")
		if term.DefaultTTL() != 6 {
			t.Errorf("DefaultTTL() = %d, want 6", term.DefaultTTL())
		}
		for _, p := range []byte{0, ' ', '\n', 0x7f, 0x80} {
			if err := term.SetCommandPrefix(p); err == nil {
				t.Errorf("SetCommandPrefix(%q) should fail", p)
			}
		}
	})
}

func TestLineAccumulator(t *testing.T) {
	t.Run("CRLF yields one line", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		run(t, term, s, "/ping\r\n/ping\r/ping\n")
		if m.pings != 3 {
			t.Errorf("pings = %d, want 3", m.pings)
		}
	})

	t.Run("CRLF split across Process calls", func(t *testing.T) {
		term, m, s := newTestTerminal(t)
		run(t, term, s, "/ping\r")
		run(t, term, s, "\n/ping\n")
		if m.pings != 2 {
			t.Errorf("pings = %d, want 2", m.pings)
		}
	})

	t.Run("backspace edits the buffer", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		run(t, term, s, "/ttk\bl 6\x7f8\n")
		if term.DefaultTTL() != 8 {
			t.Errorf("DefaultTTL() = %d, want 8", term.DefaultTTL())
		}
	})

	t.Run("backspace on empty buffer", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		run(t, term, s, "\b\b/ttl 2\n")
		if term.DefaultTTL() != 2 {
			t.Errorf("DefaultTTL() = %d, want 2", term.DefaultTTL())
		}
	})

	t.Run("overlong line is discarded", func(t *testing.T) {
		term, m, s := newTestTerminal(t, func(o *Options) { o.MaxLineLength = 8 })
		out := run(t, term, s, "/ttl 5 xxxxxxxxxxxx\n")
		if term.DefaultTTL() != domain.TTLDefault {
			t.Error("overlong line should not be dispatched")
		}
		if out != "Line too long (max 8 bytes), discarded\r\n" {
			t.Errorf("output = %q", out)
		}

		run(t, term, s, "/ttl 5\n")
		if term.DefaultTTL() != 5 {
			t.Errorf("DefaultTTL() = %d after recovery, want 5", term.DefaultTTL())
		}
		if len(m.sends) != 0 {
			t.Error("unexpected sends")
		}
	})

	t.Run("line at the limit is kept", func(t *testing.T) {
		term, _, s := newTestTerminal(t, func(o *Options) { o.MaxLineLength = 6 })
		run(t, term, s, "/ttl 3\n")
		if term.DefaultTTL() != 3 {
			t.Errorf("DefaultTTL() = %d, want 3", term.DefaultTTL())
		}
	})
}

func TestEchoAndPrompt(t *testing.T) {
	term, _, s := newTestTerminal(t, func(o *Options) {
		o.Echo = true
		o.Prompt = true
	})

	if out := run(t, term, s, "ab\n"); out != "ab\r\n> " {
		t.Errorf("output = %q", out)
	}
	if out := run(t, term, s, "a\x7f"); out != "a\b \b" {
		t.Errorf("output = %q", out)
	}
	if out := run(t, term, s, "\n"); out != "\r\n> " {
		t.Errorf("empty line output = %q", out)
	}

	term.SetPrompt("node$ ")
	term.EnableEcho(false)
	if out := run(t, term, s, "x\n"); out != "node$ " {
		t.Errorf("output = %q", out)
	}

	term.EnablePrompt(false)
	if out := run(t, term, s, "x\n"); out != "" {
		t.Errorf("output = %q", out)
	}
}

func TestHelp(t *testing.T) {
	term, _, s := newTestTerminal(t)
	noop := func(context.Context, string) error { return nil }
	if err := term.AddCommandFunc("zeta", "last letter", noop); err != nil {
		t.Fatal(err)
	}
	if err := term.AddCommandFunc("alpha", "first letter", noop); err != nil {
		t.Fatal(err)
	}

	out := run(t, term, s, "/help\n")
	for _, want := range []string{
		"Built-in commands:",
		"/unicast <mac> <message>",
		"(alias /list)",
		"(alias /discover)",
		"Custom commands:",
		"last letter",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("help output missing %q", want)
		}
	}

	if strings.Index(out, "/help") > strings.Index(out, "/ping") {
		t.Error("built-ins should be listed in fixed order")
	}
	if strings.Index(out, "/zeta") > strings.Index(out, "/alpha") {
		t.Error("custom commands should be listed in insertion order")
	}
	if strings.Index(out, "/ping") > strings.Index(out, "/zeta") {
		t.Error("built-ins should precede custom commands")
	}
}

func TestStatus(t *testing.T) {
	term, m, s := newTestTerminal(t)
	m.status.Addr = domain.MAC{0x02, 0x11, 0x22, 0x33, 0x44, 0x55}

	out := run(t, term, s, "/status\n")
	for _, want := range []string{"Terminal:", "default_ttl", "Mesh:", "node-a", "02:11:22:33:44:55"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q: %q", want, out)
		}
	}

	out = run(t, term, s, "/status json\n")
	var got struct {
		Terminal struct {
			Prefix     string `json:"prefix"`
			DefaultTTL int    `json:"default_ttl"`
		} `json:"terminal"`
		Mesh struct {
			NodeID string `json:"node_id"`
			Addr   string `json:"addr"`
		} `json:"mesh"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("status json: %v: %q", err, out)
	}
	if got.Terminal.Prefix != "/" || got.Terminal.DefaultTTL != 4 || got.Mesh.NodeID != "node-a" || got.Mesh.Addr != "02:11:22:33:44:55" {
		t.Errorf("status = %+v", got)
	}

	out = run(t, term, s, "/status xml\n")
	if !strings.Contains(out, `Unknown format "xml"`) || !strings.Contains(out, "Terminal:") {
		t.Errorf("output = %q", out)
	}
}

func TestCustomCommands(t *testing.T) {
	t.Run("dispatch passes rest of line", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		var got []string
		err := term.AddCommand("led", "toggle led", HandlerFunc(func(_ context.Context, args string) error {
			got = append(got, args)
			return nil
		}))
		if err != nil {
			t.Fatalf("AddCommand() error = %v", err)
		}

		run(t, term, s, "/led on  now\n/LED\n")
		if len(got) != 2 || got[0] != "on  now" || got[1] != "" {
			t.Errorf("args = %q", got)
		}
	})

	t.Run("handler error and panic are reported", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		_ = term.AddCommandFunc("fail", "", func(context.Context, string) error { return errors.New("boom") })
		_ = term.AddCommandFunc("crash", "", func(context.Context, string) error { panic("bad") })

		if out := run(t, term, s, "/fail\n"); out != "Error: boom\r\n" {
			t.Errorf("output = %q", out)
		}
		out := run(t, term, s, "/crash\n/ttl 3\n")
		if !strings.Contains(out, "Error: command crash panicked: bad") {
			t.Errorf("output = %q", out)
		}
		if term.DefaultTTL() != 3 {
			t.Error("terminal should keep processing after a panic")
		}
	})

	t.Run("registration policy", func(t *testing.T) {
		term, _, _ := newTestTerminal(t)
		noop := HandlerFunc(func(context.Context, string) error { return nil })
		if err := term.AddCommand("reboot", "", noop); err != nil {
			t.Fatalf("AddCommand() error = %v", err)
		}

		tests := []struct {
			name    string
			handler Handler
			want    *domain.DomainError
		}{
			{"", noop, domain.ErrInvalidCommandName},
			{"two words", noop, domain.ErrInvalidCommandName},
			{"/slash", noop, domain.ErrInvalidCommandName},
			{"nohandler", nil, domain.ErrNilHandler},
			{"help", noop, domain.ErrShadowsBuiltin},
			{"TTL", noop, domain.ErrShadowsBuiltin},
			{"list", noop, domain.ErrShadowsBuiltin},
			{"Reboot", noop, domain.ErrDuplicateCommand},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if err := term.AddCommand(tt.name, "", tt.handler); !errors.Is(err, tt.want) {
					t.Errorf("AddCommand(%q) error = %v, want %v", tt.name, err, tt.want)
				}
			})
		}
		if len(term.Commands()) != 1 {
			t.Errorf("Commands() = %d entries, want 1", len(term.Commands()))
		}
	})

	t.Run("nil func", func(t *testing.T) {
		term, _, _ := newTestTerminal(t)
		if err := term.AddCommandFunc("x", "", nil); !errors.Is(err, domain.ErrNilHandler) {
			t.Errorf("AddCommandFunc(nil) error = %v", err)
		}
	})

	t.Run("remove and clear", func(t *testing.T) {
		term, _, s := newTestTerminal(t)
		calls := 0
		h := HandlerFunc(func(context.Context, string) error { calls++; return nil })
		_ = term.AddCommand("one", "", h)
		_ = term.AddCommand("two", "", h)
		_ = term.AddCommand("three", "", h)

		if n := term.RemoveCommand("TWO"); n != 1 {
			t.Errorf("RemoveCommand() = %d, want 1", n)
		}
		if n := term.RemoveCommand("missing"); n != 0 {
			t.Errorf("RemoveCommand(missing) = %d, want 0", n)
		}

		cmds := term.Commands()
		if len(cmds) != 2 || cmds[0].Name != "one" || cmds[1].Name != "three" {
			t.Errorf("Commands() = %+v", cmds)
		}

		out := run(t, term, s, "/two\n/three\n")
		if calls != 1 || !strings.Contains(out, "Unknown command: /two") {
			t.Errorf("calls = %d, output = %q", calls, out)
		}

		term.ClearCustomCommands()
		if len(term.Commands()) != 0 {
			t.Error("ClearCustomCommands() left entries")
		}
		run(t, term, s, "/one\n")
		if calls != 1 {
			t.Error("cleared command still dispatched")
		}
	})

	t.Run("commands returns a copy", func(t *testing.T) {
		term, _, _ := newTestTerminal(t)
		_ = term.AddCommandFunc("one", "", func(context.Context, string) error { return nil })
		cmds := term.Commands()
		cmds[0].Name = "changed"
		if term.Commands()[0].Name != "one" {
			t.Error("Commands() exposed internal slice")
		}
	})
}

func TestProcess_Reentrancy(t *testing.T) {
	term, _, s := newTestTerminal(t)

	var inner error
	_ = term.AddCommandFunc("pump", "", func(ctx context.Context, _ string) error {
		inner = term.Process(ctx)
		return nil
	})

	out := run(t, term, s, "/pump\n/ttl 7\n")
	if !errors.Is(inner, ErrBusy) {
		t.Errorf("nested Process() error = %v, want ErrBusy", inner)
	}
	if !strings.Contains(out, "busy: command in progress") {
		t.Errorf("output = %q", out)
	}
	if term.DefaultTTL() != 7 {
		t.Errorf("queued input lost: DefaultTTL() = %d, want 7", term.DefaultTTL())
	}
}

func TestProcess_ContextCanceled(t *testing.T) {
	term, _, s := newTestTerminal(t)
	s.push("/ttl 3\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := term.Process(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Process() error = %v, want context.Canceled", err)
	}
	if s.Available() != len("/ttl 3\n") {
		t.Error("canceled Process should not consume input")
	}
}

func TestMetrics(t *testing.T) {
	reg := metric.NewRegistry()
	term, _, s := newTestTerminal(t, func(o *Options) { o.Metrics = reg })
	_ = term.AddCommandFunc("noop", "", func(context.Context, string) error { return nil })

	run(t, term, s, "/ttl 3\n/ttl 99\n/nope\nhello\n\n/noop\n")

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"ttl ok", testutil.ToFloat64(reg.CommandsTotal.WithLabelValues("ttl", metric.ResultOK)), 1},
		{"ttl error", testutil.ToFloat64(reg.CommandsTotal.WithLabelValues("ttl", metric.ResultError)), 1},
		{"unknown", testutil.ToFloat64(reg.CommandsTotal.WithLabelValues("_unknown", metric.ResultUnknown)), 1},
		{"custom ok", testutil.ToFloat64(reg.CommandsTotal.WithLabelValues("noop", metric.ResultOK)), 1},
		{"command lines", testutil.ToFloat64(reg.LinesTotal.WithLabelValues(metric.LineCommand)), 4},
		{"text lines", testutil.ToFloat64(reg.LinesTotal.WithLabelValues(metric.LineText)), 1},
		{"empty lines", testutil.ToFloat64(reg.LinesTotal.WithLabelValues(metric.LineEmpty)), 1},
		{"custom gauge", testutil.ToFloat64(reg.CustomCommands), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}
