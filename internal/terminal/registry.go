package terminal

import (
	"context"
	"strings"
	"unicode"

	"github.com/yndnr/meshterm/internal/core/domain"
)

// Handler runs a custom command. args is the text after the command name,
// with leading whitespace removed.
type Handler interface {
	HandleCommand(ctx context.Context, args string) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, args string) error

// HandleCommand calls f(ctx, args).
func (f HandlerFunc) HandleCommand(ctx context.Context, args string) error {
	return f(ctx, args)
}

// Command is a registered custom command.
type Command struct {
	Name        string
	Description string
	Handler     Handler
}

// AddCommand appends a custom command to the registry.
//
// Names are matched case-insensitively. A name that is empty, contains
// whitespace, starts with the command prefix, equals a built-in command or
// alias, or duplicates an existing custom command is rejected.
func (t *Terminal) AddCommand(name, description string, h Handler) error {
	switch {
	case name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0:
		return domain.ErrInvalidCommandName.WithDetails(name)
	case name[0] == t.prefix:
		return domain.ErrInvalidCommandName.WithDetails("name must not include the prefix")
	case h == nil:
		return domain.ErrNilHandler.WithDetails(name)
	case IsBuiltin(name):
		return domain.ErrShadowsBuiltin.WithDetails(name)
	}
	if _, ok := t.lookupCustom(name); ok {
		return domain.ErrDuplicateCommand.WithDetails(name)
	}

	t.custom = append(t.custom, Command{Name: name, Description: description, Handler: h})
	t.metrics.SetCustomCommands(len(t.custom))
	t.logger.Debug("custom command added", "command", name)
	return nil
}

// AddCommandFunc registers a plain function as a custom command.
func (t *Terminal) AddCommandFunc(name, description string, fn func(ctx context.Context, args string) error) error {
	if fn == nil {
		return domain.ErrNilHandler.WithDetails(name)
	}
	return t.AddCommand(name, description, HandlerFunc(fn))
}

// RemoveCommand removes every custom command matching name
// case-insensitively and returns how many were removed.
// Removing an unknown name is a no-op.
func (t *Terminal) RemoveCommand(name string) int {
	kept := t.custom[:0]
	removed := 0
	for _, c := range t.custom {
		if strings.EqualFold(c.Name, name) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	// release dropped handlers
	for i := len(kept); i < len(t.custom); i++ {
		t.custom[i] = Command{}
	}
	t.custom = kept

	if removed > 0 {
		t.metrics.SetCustomCommands(len(t.custom))
		t.logger.Debug("custom command removed", "command", name)
	}
	return removed
}

// ClearCustomCommands empties the custom command registry.
func (t *Terminal) ClearCustomCommands() {
	t.custom = nil
	t.metrics.SetCustomCommands(0)
}

// Commands returns a copy of the custom commands in insertion order.
func (t *Terminal) Commands() []Command {
	out := make([]Command, len(t.custom))
	copy(out, t.custom)
	return out
}

// lookupCustom returns the first custom command matching name.
func (t *Terminal) lookupCustom(name string) (Command, bool) {
	for _, c := range t.custom {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Command{}, false
}
