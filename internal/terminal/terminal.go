package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode"

	"github.com/yndnr/meshterm/internal/core/domain"
	"github.com/yndnr/meshterm/internal/mesh"
	"github.com/yndnr/meshterm/internal/telemetry/logger"
	"github.com/yndnr/meshterm/internal/telemetry/metric"
)

// Stream is the byte-stream capability the terminal reads from and writes to.
// Available must not block.
type Stream interface {
	Available() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// Mesh is the mesh-service capability the built-in commands drive.
type Mesh interface {
	StartDiscovery(ctx context.Context) error
	Neighbors() []mesh.Neighbor
	Send(dst domain.MAC, payload []byte, ttl uint8) error
	SendReliable(ctx context.Context, dst domain.MAC, payload []byte, ttl uint8) error
	SetRole(role domain.Role) error
	SetDebug(mode domain.DebugMode) error
	Ping(ctx context.Context) ([]mesh.PingReply, error)
	Status() mesh.Status
}

// ErrBusy is returned by Process when it is re-entered from a command handler.
var ErrBusy = errors.New("terminal: command in progress")

const (
	backspace = 0x08
	del       = 0x7f
)

// Options configures a Terminal at construction.
type Options struct {
	// Prefix marks a line as a command (default '/').
	Prefix byte
	// Echo writes typed bytes back to the stream.
	Echo bool
	// Prompt enables printing PromptText after each line.
	Prompt bool
	// PromptText is the prompt string (default "> ").
	PromptText string
	// DefaultTTL is the hop limit for sends (default domain.TTLDefault).
	DefaultTTL uint8
	// MaxLineLength bounds the input buffer; longer lines are discarded.
	MaxLineLength int
	// HelpOnError suggests the help command after an unknown command.
	HelpOnError bool
	// AckTimeout bounds the wait for a reliable-send acknowledgment.
	AckTimeout time.Duration
	// PingTimeout bounds the wait for ping replies.
	PingTimeout time.Duration

	Logger  *slog.Logger
	Metrics *metric.Registry
}

// Defaults for Options.
const (
	DefaultPrefix        = '/'
	DefaultPromptText    = "> "
	DefaultMaxLineLength = 256
	DefaultAckTimeout    = 2 * time.Second
	DefaultPingTimeout   = 2 * time.Second
)

// DefaultOptions returns the options of a freshly flashed node console.
func DefaultOptions() Options {
	return Options{
		Prefix:        DefaultPrefix,
		Echo:          true,
		Prompt:        true,
		PromptText:    DefaultPromptText,
		DefaultTTL:    domain.TTLDefault,
		MaxLineLength: DefaultMaxLineLength,
		HelpOnError:   true,
		AckTimeout:    DefaultAckTimeout,
		PingTimeout:   DefaultPingTimeout,
	}
}

// Terminal is one command session bound to a mesh service and a stream.
type Terminal struct {
	mesh    Mesh
	stream  Stream
	out     io.Writer
	logger  *slog.Logger
	metrics *metric.Registry

	prefix        byte
	echo          bool
	promptEnabled bool
	prompt        string
	defaultTTL    uint8
	maxLine       int
	helpOnError   bool
	ackTimeout    time.Duration
	pingTimeout   time.Duration

	buf        []byte
	discarding bool
	lastCR     bool
	processing bool

	custom []Command
}

// New creates a terminal. Zero-valued numeric and string options fall back
// to their defaults; out-of-range values are rejected.
func New(m Mesh, s Stream, opts Options) (*Terminal, error) {
	if m == nil {
		return nil, errors.New("terminal: mesh is required")
	}
	if s == nil {
		return nil, errors.New("terminal: stream is required")
	}

	if opts.Prefix == 0 {
		opts.Prefix = DefaultPrefix
	}
	if err := validatePrefix(opts.Prefix); err != nil {
		return nil, err
	}
	if opts.DefaultTTL == 0 {
		opts.DefaultTTL = domain.TTLDefault
	}
	if err := domain.ValidateTTL(int(opts.DefaultTTL)); err != nil {
		return nil, fmt.Errorf("terminal: default ttl: %w", err)
	}
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = DefaultMaxLineLength
	}
	if opts.PromptText == "" {
		opts.PromptText = DefaultPromptText
	}
	if opts.AckTimeout <= 0 {
		opts.AckTimeout = DefaultAckTimeout
	}
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = DefaultPingTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}

	t := &Terminal{
		mesh:          m,
		stream:        s,
		out:           &crlfWriter{w: s},
		logger:        opts.Logger.With("component", "terminal"),
		metrics:       opts.Metrics,
		prefix:        opts.Prefix,
		echo:          opts.Echo,
		promptEnabled: opts.Prompt,
		prompt:        opts.PromptText,
		defaultTTL:    opts.DefaultTTL,
		maxLine:       opts.MaxLineLength,
		helpOnError:   opts.HelpOnError,
		ackTimeout:    opts.AckTimeout,
		pingTimeout:   opts.PingTimeout,
		buf:           make([]byte, 0, opts.MaxLineLength),
	}
	t.metrics.SetCustomCommands(0)
	return t, nil
}

// Options returns the current session configuration.
func (t *Terminal) Options() Options {
	return Options{
		Prefix:        t.prefix,
		Echo:          t.echo,
		Prompt:        t.promptEnabled,
		PromptText:    t.prompt,
		DefaultTTL:    t.defaultTTL,
		MaxLineLength: t.maxLine,
		HelpOnError:   t.helpOnError,
		AckTimeout:    t.ackTimeout,
		PingTimeout:   t.pingTimeout,
		Logger:        t.logger,
		Metrics:       t.metrics,
	}
}

func validatePrefix(p byte) error {
	if p == 0 || p >= unicode.MaxASCII || unicode.IsSpace(rune(p)) || unicode.IsControl(rune(p)) {
		return fmt.Errorf("terminal: invalid command prefix %q", p)
	}
	return nil
}

// SetCommandPrefix changes the character that marks a line as a command.
func (t *Terminal) SetCommandPrefix(p byte) error {
	if err := validatePrefix(p); err != nil {
		return err
	}
	t.prefix = p
	return nil
}

// EnableEcho turns echo of typed bytes on or off.
func (t *Terminal) EnableEcho(enable bool) {
	t.echo = enable
}

// EnablePrompt turns the prompt on or off.
func (t *Terminal) EnablePrompt(enable bool) {
	t.promptEnabled = enable
}

// SetPrompt replaces the prompt text.
func (t *Terminal) SetPrompt(prompt string) {
	t.prompt = prompt
}

// DefaultTTL returns the hop limit applied to sends.
func (t *Terminal) DefaultTTL() uint8 {
	return t.defaultTTL
}

// PrintBanner writes the greeting and the first prompt.
func (t *Terminal) PrintBanner() {
	t.printf("Mesh terminal ready. Type %chelp for commands.\n", t.prefix)
	t.showPrompt()
}

// Process drains every byte currently available on the stream.
// It returns ErrBusy without consuming input when called from inside a
// command handler.
func (t *Terminal) Process(ctx context.Context) error {
	if t.processing {
		t.println("busy: command in progress")
		t.metrics.RecordCommand("_process", metric.ResultBusy)
		t.logger.Warn("process re-entered during command dispatch")
		return ErrBusy
	}

	for t.stream.Available() > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		b, err := t.stream.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		t.feed(ctx, b)
	}
	return nil
}

// feed runs one byte through the line accumulator.
func (t *Terminal) feed(ctx context.Context, b byte) {
	switch {
	case b == '\n' && t.lastCR:
		// second half of CRLF
		t.lastCR = false
		return
	case b == '\r' || b == '\n':
		t.lastCR = b == '\r'
		t.endLine(ctx)
		return
	}
	t.lastCR = false

	if b == backspace || b == del {
		if !t.discarding && len(t.buf) > 0 {
			t.buf = t.buf[:len(t.buf)-1]
			if t.echo {
				t.write([]byte{backspace, ' ', backspace})
			}
		}
		return
	}

	if t.discarding {
		return
	}
	if len(t.buf) >= t.maxLine {
		t.discarding = true
		t.logger.Debug("input line exceeds limit, discarding", "max", t.maxLine)
		return
	}

	t.buf = append(t.buf, b)
	if t.echo {
		t.write([]byte{b})
	}
}

// endLine hands the buffered line to the classifier and resets the buffer.
func (t *Terminal) endLine(ctx context.Context) {
	line := string(t.buf)
	t.buf = t.buf[:0]

	if t.echo {
		t.write([]byte("\r\n"))
	}

	if t.discarding {
		t.discarding = false
		t.metrics.RecordLine(metric.LineOverflow)
		t.printf("Line too long (max %d bytes), discarded\n", t.maxLine)
		t.showPrompt()
		return
	}

	t.classify(ctx, line)
	t.showPrompt()
}

// classify routes a completed line: empty, free text, or command.
func (t *Terminal) classify(ctx context.Context, line string) {
	line = trimSpace(line)
	switch {
	case line == "":
		t.metrics.RecordLine(metric.LineEmpty)
	case line[0] != t.prefix:
		t.metrics.RecordLine(metric.LineText)
		t.logger.Debug("free text ignored", "length", len(line))
	default:
		t.metrics.RecordLine(metric.LineCommand)
		t.dispatch(ctx, line[1:])
	}
}

func (t *Terminal) showPrompt() {
	if t.promptEnabled {
		t.write([]byte(t.prompt))
	}
}
