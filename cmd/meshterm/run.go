package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/yndnr/meshterm/internal/config"
	"github.com/yndnr/meshterm/internal/core/domain"
	"github.com/yndnr/meshterm/internal/infra/buildinfo"
	"github.com/yndnr/meshterm/internal/infra/confloader"
	"github.com/yndnr/meshterm/internal/infra/shutdown"
	"github.com/yndnr/meshterm/internal/mesh"
	"github.com/yndnr/meshterm/internal/server/adminserver"
	"github.com/yndnr/meshterm/internal/stream"
	"github.com/yndnr/meshterm/internal/telemetry/logger"
	"github.com/yndnr/meshterm/internal/telemetry/metric"
	"github.com/yndnr/meshterm/internal/terminal"
)

const (
	shutdownTimeout = 5 * time.Second
	inboxSize       = 64
)

func run(c *cli.Context) error {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithOverrides(flagOverrides(c)),
	)

	cfg, err := loadConfig(loader)
	if err != nil {
		return err
	}
	if cfg.Mesh.NodeID == "" {
		host, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("node id: %w", err)
		}
		cfg.Mesh.NodeID = host
	}

	logOut, closeLog, err := openLogOutput(cfg.Log.File)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer closeLog()

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: logOut,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slog.SetDefault(log)

	log.Info("starting meshterm",
		"version", buildinfo.Version,
		"commit", buildinfo.Get().Commit,
		"config", loader.FilePath())
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	metrics := metric.NewRegistry()

	node, err := newNode(cfg, log, metrics)
	if err != nil {
		return fmt.Errorf("start mesh node: %w", err)
	}

	sh := shutdown.NewHandler(shutdownTimeout)
	sh.OnShutdown(func(ctx context.Context) error {
		log.Info("leaving mesh")
		return node.Shutdown()
	})

	if cfg.Metrics.Enabled {
		admin := adminserver.New(cfg.Metrics.Addr, adminserver.NewRouter(&adminserver.RouterConfig{
			Source:  node,
			Metrics: metrics.Handler(),
			Logger:  log,
		}), log)
		if err := admin.Start(); err != nil {
			node.Shutdown()
			return fmt.Errorf("start admin server: %w", err)
		}
		sh.OnShutdown(admin.Shutdown)
	}

	restore := makeRaw(os.Stdin, log)
	defer restore()

	pump := stream.New(newInterruptReader(os.Stdin, sh.Trigger), os.Stdout, 0)
	defer pump.Close()

	session, err := terminal.New(node, pump, terminalOptions(cfg, log, metrics))
	if err != nil {
		sh.Run()
		return fmt.Errorf("init terminal: %w", err)
	}

	inbox := make(chan mesh.Message, inboxSize)
	node.OnMessage(func(msg mesh.Message) {
		select {
		case inbox <- msg:
		default:
			log.Warn("inbox full, dropping message", "id", msg.ID, "src", msg.Src.String())
		}
	})

	if err := registerCommands(session, sh, node); err != nil {
		sh.Run()
		return fmt.Errorf("register commands: %w", err)
	}

	reloads := make(chan struct{}, 1)
	if path := loader.FilePath(); path != "" {
		watcher, err := watchConfig(path, log, reloads)
		if err != nil {
			log.Warn("config watch disabled", "error", err)
		} else {
			sh.OnShutdown(func(context.Context) error { return watcher.Stop() })
		}
	}

	if len(cfg.Mesh.Seeds) > 0 {
		if n, err := node.Join(cfg.Mesh.Seeds...); err != nil {
			log.Warn("initial join failed", "seeds", cfg.Mesh.Seeds, "error", err)
		} else {
			log.Info("joined mesh", "contacted", n)
		}
	}

	if cfg.Terminal.Banner {
		session.Println(buildinfo.Banner(cfg.Mesh.NodeID))
	}
	session.PrintBanner()

	ctx := sh.Context(c.Context)
	loopErr := controlLoop(ctx, loopDeps{
		term:    session,
		pump:    pump,
		inbox:   inbox,
		reloads: reloads,
		poll:    cfg.Terminal.PollInterval,
		reload: func() {
			applyReload(loader, session, log)
		},
		log: log,
	})

	if err := sh.Run(); err != nil {
		log.Error("shutdown error", "error", err)
		return err
	}
	log.Info("meshterm stopped")
	return loopErr
}

func loadConfig(loader *confloader.Loader) (*config.Config, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func openLogOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stderr, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func newNode(cfg *config.Config, log *slog.Logger, metrics *metric.Registry) (*mesh.Node, error) {
	role, err := domain.ParseRole(cfg.Mesh.Role)
	if err != nil {
		return nil, err
	}
	debug, err := domain.ParseDebugMode(cfg.Mesh.Debug)
	if err != nil {
		return nil, err
	}
	key, err := config.SecretKeyBytes(cfg.Mesh.SecretKey)
	if err != nil {
		return nil, err
	}

	return mesh.New(mesh.Config{
		NodeID:        cfg.Mesh.NodeID,
		BindAddr:      cfg.Mesh.BindAddr,
		BindPort:      cfg.Mesh.BindPort,
		AdvertiseAddr: cfg.Mesh.AdvertiseAddr,
		AdvertisePort: cfg.Mesh.AdvertisePort,
		Seeds:         cfg.Mesh.Seeds,
		Profile:       cfg.Mesh.Profile,
		SecretKey:     key,
		Role:          role,
		Debug:         debug,
		SendRate:      cfg.Mesh.SendRate,
		SendBurst:     cfg.Mesh.SendBurst,
		SeenCacheSize: cfg.Mesh.SeenCacheSize,
		Logger:        log,
		Metrics:       metrics,
	})
}

func terminalOptions(cfg *config.Config, log *slog.Logger, metrics *metric.Registry) terminal.Options {
	return terminal.Options{
		Prefix:        cfg.Terminal.Prefix[0],
		Echo:          cfg.Terminal.Echo,
		Prompt:        cfg.Terminal.Prompt,
		PromptText:    cfg.Terminal.PromptText,
		DefaultTTL:    uint8(cfg.Terminal.DefaultTTL),
		MaxLineLength: cfg.Terminal.MaxLineLength,
		HelpOnError:   cfg.Terminal.HelpOnError,
		AckTimeout:    cfg.Terminal.AckTimeout,
		PingTimeout:   cfg.Terminal.PingTimeout,
		Logger:        log,
		Metrics:       metrics,
	}
}

// makeRaw switches an interactive stdin to raw mode so bytes arrive as typed.
func makeRaw(f *os.File, log *slog.Logger) func() {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		log.Warn("raw mode unavailable", "error", err)
		return func() {}
	}
	return func() {
		if err := term.Restore(fd, state); err != nil {
			log.Warn("restore terminal", "error", err)
		}
	}
}

func watchConfig(path string, log *slog.Logger, reloads chan<- struct{}) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		watcher.Stop()
		return nil, err
	}
	watcher.OnChange(func(string) {
		select {
		case reloads <- struct{}{}:
		default:
		}
	})
	watcher.StartAsync()
	return watcher, nil
}

// applyReload re-reads the configuration and applies the settings that can
// change on a running session. Mesh settings need a restart.
func applyReload(loader *confloader.Loader, session *terminal.Terminal, log *slog.Logger) {
	cfg, err := loadConfig(loader)
	if err != nil {
		log.Warn("config reload rejected", "error", err)
		return
	}

	if err := session.SetCommandPrefix(cfg.Terminal.Prefix[0]); err != nil {
		log.Warn("config reload: prefix", "error", err)
	}
	session.EnableEcho(cfg.Terminal.Echo)
	session.EnablePrompt(cfg.Terminal.Prompt)
	session.SetPrompt(cfg.Terminal.PromptText)
	logger.SetLevel(cfg.Log.Level)

	log.Info("configuration reloaded",
		"prefix", cfg.Terminal.Prefix,
		"echo", cfg.Terminal.Echo,
		"prompt", cfg.Terminal.Prompt,
		"log_level", cfg.Log.Level)
}

type loopDeps struct {
	term    *terminal.Terminal
	pump    *stream.Pump
	inbox   <-chan mesh.Message
	reloads <-chan struct{}
	poll    time.Duration
	reload  func()
	log     *slog.Logger
}

// controlLoop owns the terminal: every call into it happens on this goroutine.
func controlLoop(ctx context.Context, d loopDeps) error {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-d.inbox:
			printMessage(d.term, msg)
		case <-d.reloads:
			d.reload()
		case <-d.pump.Ready():
			process(ctx, d)
		case <-ticker.C:
			process(ctx, d)
		case <-d.pump.Done():
			process(ctx, d)
			if err := d.pump.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("read input: %w", err)
			}
			d.log.Info("input closed")
			return nil
		}
	}
}

func process(ctx context.Context, d loopDeps) {
	if err := d.term.Process(ctx); err != nil && ctx.Err() == nil {
		d.log.Debug("process", "error", err)
	}
}

func printMessage(session *terminal.Terminal, msg mesh.Message) {
	scope := "direct"
	if msg.Broadcast() {
		scope = "broadcast"
	}
	session.Printf("\n[%s %s] %s\n", msg.Src, scope, msg.Payload)
}
