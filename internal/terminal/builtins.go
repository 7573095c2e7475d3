package terminal

import (
	"context"
	"errors"
	"fmt"

	"github.com/yndnr/meshterm/internal/cli/output"
	"github.com/yndnr/meshterm/internal/core/domain"
)

func (t *Terminal) cmdDiscovery(ctx context.Context, _ string) error {
	if err := t.mesh.StartDiscovery(ctx); err != nil {
		// discovery is fire-and-forget for the operator
		t.logger.Warn("start discovery failed", "error", err)
	}
	t.println("Discovery started")
	return nil
}

func (t *Terminal) cmdNeighbors(_ context.Context, _ string) error {
	neighbors := t.mesh.Neighbors()
	if len(neighbors) == 0 {
		t.println("No neighbors")
		return nil
	}
	t.printf("Neighbors (%d):\n", len(neighbors))
	return (&output.TableFormatter{}).Format(t.out, neighbors)
}

func (t *Terminal) cmdBroadcast(_ context.Context, args string) error {
	if args == "" {
		return t.usageError("broadcast", "message")
	}
	if err := t.mesh.Send(domain.BroadcastMAC, []byte(args), t.defaultTTL); err != nil {
		return meshError(domain.ErrSendFailed, err)
	}
	t.printf("Broadcast sent (%d bytes, ttl %d)\n", len(args), t.defaultTTL)
	return nil
}

func (t *Terminal) cmdUnicast(_ context.Context, args string) error {
	dst, msg, err := t.parseAddressed("unicast", args)
	if err != nil {
		return err
	}
	if err := t.mesh.Send(dst, []byte(msg), t.defaultTTL); err != nil {
		return meshError(domain.ErrSendFailed, err)
	}
	t.printf("Sent to %s (%d bytes, ttl %d)\n", dst, len(msg), t.defaultTTL)
	return nil
}

func (t *Terminal) cmdReliable(ctx context.Context, args string) error {
	dst, msg, err := t.parseAddressed("reliable", args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, t.ackTimeout)
	defer cancel()

	if err := t.mesh.SendReliable(ctx, dst, []byte(msg), t.defaultTTL); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return domain.ErrAckTimeout.WithDetails(dst.String()).WithCause(err)
		}
		return meshError(domain.ErrSendFailed, err)
	}
	t.printf("Delivered to %s\n", dst)
	return nil
}

// parseAddressed splits "<mac> <message>" and validates both parts.
func (t *Terminal) parseAddressed(cmd, args string) (domain.MAC, string, error) {
	addr, msg := splitCommand(args)
	if addr == "" {
		return domain.MAC{}, "", t.usageError(cmd, "mac")
	}
	dst, err := domain.ParseMAC(addr)
	if err != nil {
		return domain.MAC{}, "", err
	}
	if msg == "" {
		return domain.MAC{}, "", t.usageError(cmd, "message")
	}
	return dst, msg, nil
}

func (t *Terminal) cmdRole(_ context.Context, args string) error {
	role, err := domain.ParseRole(args)
	if err != nil {
		return err
	}
	if err := t.mesh.SetRole(role); err != nil {
		return err
	}
	t.printf("Role set to %s\n", role)
	return nil
}

func (t *Terminal) cmdTTL(_ context.Context, args string) error {
	if args == "" {
		t.printf("Default TTL: %d\n", t.defaultTTL)
		return nil
	}
	ttl, err := domain.ParseTTL(args)
	if err != nil {
		return err
	}
	t.defaultTTL = ttl
	t.logger.Debug("default ttl changed", "ttl", ttl)
	t.printf("Default TTL set to %d\n", ttl)
	return nil
}

func (t *Terminal) cmdDebug(_ context.Context, args string) error {
	if args == "" {
		t.printf("Debug: %s\n", t.mesh.Status().Debug)
		return nil
	}
	mode, err := domain.ParseDebugMode(args)
	if err != nil {
		return err
	}
	if err := t.mesh.SetDebug(mode); err != nil {
		return err
	}
	t.printf("Debug %s\n", mode)
	return nil
}

func (t *Terminal) cmdPing(ctx context.Context, _ string) error {
	ctx, cancel := context.WithTimeout(ctx, t.pingTimeout)
	defer cancel()

	replies, err := t.mesh.Ping(ctx)
	if err != nil {
		return meshError(domain.ErrNoResponse, err)
	}
	if len(replies) == 0 {
		return domain.ErrNoResponse
	}

	table := &output.Table{}
	for _, r := range replies {
		table.AddRow(r.Addr.String(), r.NodeID, r.RTT.String())
	}
	t.printf("Ping: %d replies\n", len(replies))
	return table.RenderWithOptions(t.out, true)
}

func (t *Terminal) usageError(cmd, missing string) error {
	b, _ := lookupBuiltin(cmd)
	return domain.ErrMissingArgument.WithDetails(fmt.Sprintf("%s (usage: %c%s %s)", missing, t.prefix, b.name, b.usage))
}

// meshError keeps domain errors from the mesh service as they are and
// wraps anything else in base.
func meshError(base *domain.DomainError, err error) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return base.WithDetails(err.Error()).WithCause(err)
}
