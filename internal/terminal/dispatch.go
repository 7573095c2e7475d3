package terminal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/yndnr/meshterm/internal/core/domain"
	"github.com/yndnr/meshterm/internal/telemetry/metric"
)

// builtin is a fixed command compiled into the terminal.
type builtin struct {
	name    string
	aliases []string
	usage   string
	desc    string
	run     func(t *Terminal, ctx context.Context, args string) error
}

var (
	builtinList  []*builtin
	builtinIndex map[string]*builtin
)

// The table is built in init because help refers back to it.
func init() {
	builtinList = []*builtin{
		{name: "help", desc: "Show this help", run: (*Terminal).cmdHelp},
		{name: "status", usage: "[table|json|yaml]", desc: "Show terminal and node status", run: (*Terminal).cmdStatus},
		{name: "discovery", aliases: []string{"discover"}, desc: "Start neighbor discovery", run: (*Terminal).cmdDiscovery},
		{name: "neighbors", aliases: []string{"list"}, desc: "List known neighbors", run: (*Terminal).cmdNeighbors},
		{name: "broadcast", usage: "<message>", desc: "Send a message to all nodes", run: (*Terminal).cmdBroadcast},
		{name: "unicast", usage: "<mac> <message>", desc: "Send a message to one node", run: (*Terminal).cmdUnicast},
		{name: "reliable", usage: "<mac> <message>", desc: "Send and wait for delivery acknowledgment", run: (*Terminal).cmdReliable},
		{name: "role", usage: "<" + joinRoles() + ">", desc: "Set the node role", run: (*Terminal).cmdRole},
		{name: "ttl", usage: fmt.Sprintf("<%d-%d>", domain.TTLMin, domain.TTLMax), desc: "Set the default message TTL", run: (*Terminal).cmdTTL},
		{name: "debug", usage: "<" + joinDebugModes() + ">", desc: "Set mesh debug output", run: (*Terminal).cmdDebug},
		{name: "ping", desc: "Ping all reachable nodes", run: (*Terminal).cmdPing},
	}

	builtinIndex = make(map[string]*builtin, len(builtinList)*2)
	for _, b := range builtinList {
		builtinIndex[b.name] = b
		for _, a := range b.aliases {
			builtinIndex[a] = b
		}
	}
}

// lookupBuiltin resolves a command name or alias case-insensitively.
func lookupBuiltin(name string) (*builtin, bool) {
	b, ok := builtinIndex[strings.ToLower(name)]
	return b, ok
}

// IsBuiltin reports whether name (or an alias) is a built-in command.
func IsBuiltin(name string) bool {
	_, ok := lookupBuiltin(name)
	return ok
}

// splitCommand splits command text at the first whitespace run.
func splitCommand(cmd string) (name, rest string) {
	i := strings.IndexFunc(cmd, unicode.IsSpace)
	if i < 0 {
		return cmd, ""
	}
	return cmd[:i], strings.TrimLeftFunc(cmd[i:], unicode.IsSpace)
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

// dispatch resolves a command against the built-ins first, then the
// custom registry in insertion order, and runs it.
func (t *Terminal) dispatch(ctx context.Context, cmd string) {
	name, args := splitCommand(cmd)

	t.processing = true
	defer func() { t.processing = false }()

	if b, ok := lookupBuiltin(name); ok {
		t.finish(b.name, b.run(t, ctx, args))
		return
	}

	if c, ok := t.lookupCustom(name); ok {
		t.finish(c.Name, t.runCustom(ctx, c, args))
		return
	}

	t.metrics.RecordCommand(name, metric.ResultUnknown)
	t.logger.Debug("unknown command", "command", name)
	t.printf("Unknown command: %c%s\n", t.prefix, name)
	if t.helpOnError {
		t.printf("Type %chelp for available commands\n", t.prefix)
	}
}

// runCustom invokes a custom handler, converting a panic into an error.
func (t *Terminal) runCustom(ctx context.Context, c Command, args string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("custom command panicked", "command", c.Name, "panic", r)
			err = fmt.Errorf("command %s panicked: %v", c.Name, r)
		}
	}()
	return c.Handler.HandleCommand(ctx, args)
}

// finish records the outcome of a dispatched command and prints any error.
func (t *Terminal) finish(name string, err error) {
	if err == nil {
		t.metrics.RecordCommand(name, metric.ResultOK)
		t.logger.Debug("command completed", "command", name)
		return
	}
	t.metrics.RecordCommand(name, metric.ResultError)
	t.logger.Debug("command failed", "command", name, "error", err)
	t.printf("Error: %s\n", describe(err))
}

// describe renders an error for the operator without the internal code.
func describe(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) {
		if de.Details != "" {
			return de.Message + ": " + de.Details
		}
		return de.Message
	}
	return err.Error()
}

func joinRoles() string {
	names := make([]string, len(domain.Roles))
	for i, r := range domain.Roles {
		names[i] = string(r)
	}
	return strings.Join(names, "|")
}

func joinDebugModes() string {
	names := make([]string, len(domain.DebugModes))
	for i, m := range domain.DebugModes {
		names[i] = string(m)
	}
	return strings.Join(names, "|")
}
