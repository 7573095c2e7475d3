package main

import (
	"context"
	"strings"

	"github.com/yndnr/meshterm/internal/core/domain"
	"github.com/yndnr/meshterm/internal/infra/buildinfo"
	"github.com/yndnr/meshterm/internal/terminal"
)

// addrSource reports the local mesh address.
type addrSource interface {
	Addr() domain.MAC
}

// quitter requests process shutdown.
type quitter interface {
	Trigger()
}

// registerCommands installs the application's custom commands.
func registerCommands(term *terminal.Terminal, q quitter, node addrSource) error {
	commands := []struct {
		name        string
		description string
		fn          func(ctx context.Context, args string) error
	}{
		{"echo", "print the arguments back", func(_ context.Context, args string) error {
			term.Println(args)
			return nil
		}},
		{"prompt", "set the prompt text", func(_ context.Context, args string) error {
			text := strings.TrimSpace(args)
			if text == "" {
				return domain.ErrMissingArgument.WithDetails("text (usage: prompt <text>)")
			}
			term.SetPrompt(text + " ")
			return nil
		}},
		{"whoami", "show the local mesh address", func(_ context.Context, _ string) error {
			term.Printf("%s\n", node.Addr())
			return nil
		}},
		{"version", "show build information", func(_ context.Context, _ string) error {
			term.Println(buildinfo.String())
			return nil
		}},
		{"quit", "leave the mesh and exit", func(_ context.Context, _ string) error {
			term.Println("Bye")
			q.Trigger()
			return nil
		}},
	}

	for _, c := range commands {
		if err := term.AddCommandFunc(c.name, c.description, c.fn); err != nil {
			return err
		}
	}
	return nil
}
