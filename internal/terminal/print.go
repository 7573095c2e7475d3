package terminal

import (
	"context"
	"fmt"
	"time"

	"github.com/yndnr/meshterm/internal/cli/output"
	"github.com/yndnr/meshterm/internal/mesh"
)

// crlfWriter expands bare "\n" to "\r\n" for raw-mode consoles.
type crlfWriter struct {
	w      Stream
	lastCR bool
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	out := make([]byte, 0, len(p)+8)
	for _, b := range p {
		if b == '\n' && !c.lastCR {
			out = append(out, '\r')
		}
		out = append(out, b)
		c.lastCR = b == '\r'
	}
	if _, err := c.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (t *Terminal) write(p []byte) {
	if _, err := t.out.Write(p); err != nil {
		t.logger.Debug("write stream failed", "error", err)
	}
}

func (t *Terminal) printf(format string, args ...any) {
	t.write([]byte(fmt.Sprintf(format, args...)))
}

func (t *Terminal) println(s string) {
	t.write([]byte(s + "\n"))
}

// Println writes a line to the terminal stream. Embedding applications use
// it from custom handlers and for asynchronous notices such as received
// messages.
func (t *Terminal) Println(s string) {
	t.println(s)
}

// Printf writes formatted text to the terminal stream.
func (t *Terminal) Printf(format string, args ...any) {
	t.printf(format, args...)
}

func (t *Terminal) cmdHelp(_ context.Context, _ string) error {
	table := &output.Table{}
	for _, b := range builtinList {
		usage := string(t.prefix) + b.name
		if b.usage != "" {
			usage += " " + b.usage
		}
		desc := b.desc
		for _, a := range b.aliases {
			desc += fmt.Sprintf(" (alias %c%s)", t.prefix, a)
		}
		table.AddRow(usage, desc)
	}

	t.println("Built-in commands:")
	if err := table.RenderWithOptions(t.out, true); err != nil {
		return err
	}

	if len(t.custom) == 0 {
		return nil
	}
	table = &output.Table{}
	for _, c := range t.custom {
		table.AddRow(string(t.prefix)+c.Name, c.Description)
	}
	t.println("Custom commands:")
	return table.RenderWithOptions(t.out, true)
}

// sessionStatus is the terminal half of the status snapshot.
type sessionStatus struct {
	Prefix         string `json:"prefix" yaml:"prefix"`
	Echo           bool   `json:"echo" yaml:"echo"`
	Prompt         bool   `json:"prompt" yaml:"prompt"`
	PromptText     string `json:"prompt_text" yaml:"prompt_text"`
	DefaultTTL     uint8  `json:"default_ttl" yaml:"default_ttl"`
	MaxLineLength  int    `json:"max_line_length" yaml:"max_line_length"`
	CustomCommands int    `json:"custom_commands" yaml:"custom_commands"`
}

type statusSnapshot struct {
	Terminal sessionStatus `json:"terminal" yaml:"terminal"`
	Mesh     mesh.Status   `json:"mesh" yaml:"mesh"`
}

func (t *Terminal) snapshot() statusSnapshot {
	st := t.mesh.Status()
	st.Uptime = st.Uptime.Truncate(time.Second)
	return statusSnapshot{
		Terminal: sessionStatus{
			Prefix:         string(t.prefix),
			Echo:           t.echo,
			Prompt:         t.promptEnabled,
			PromptText:     t.prompt,
			DefaultTTL:     t.defaultTTL,
			MaxLineLength:  t.maxLine,
			CustomCommands: len(t.custom),
		},
		Mesh: st,
	}
}

func (t *Terminal) cmdStatus(_ context.Context, args string) error {
	format, ok := output.ParseFormat(args)
	if !ok {
		t.printf("Unknown format %q, using table\n", args)
	}

	snap := t.snapshot()
	if format != output.FormatTable {
		return output.NewFormatter(format).Format(t.out, snap)
	}

	f := &output.TableFormatter{}
	t.println("Terminal:")
	if err := f.Format(t.out, snap.Terminal); err != nil {
		return err
	}
	t.println("Mesh:")
	return f.Format(t.out, snap.Mesh)
}
