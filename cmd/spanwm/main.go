package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/1broseidon/spanwm/internal/config"
	"github.com/1broseidon/spanwm/internal/daemon"
	"github.com/1broseidon/spanwm/internal/ipc"
	"github.com/1broseidon/spanwm/internal/logging"
	"github.com/1broseidon/spanwm/internal/monitor"
	"github.com/1broseidon/spanwm/internal/runtimepath"
	"github.com/1broseidon/spanwm/internal/touch"
	"github.com/1broseidon/spanwm/internal/wm"
	"github.com/1broseidon/spanwm/internal/x11"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "monitors":
		os.Exit(runMonitors(os.Args[2:]))
	case "windows":
		os.Exit(runWindows(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "touch":
		os.Exit(runTouch(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: spanwm <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  run                 Start the window manager (foreground)")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  monitors            List active monitors")
	fmt.Fprintln(w, "  windows             List focus history, above set and fullscreen windows")
	fmt.Fprintln(w, "  reload              Re-read configuration in the running daemon")
	fmt.Fprintln(w, "  touch refresh       Re-apply touchscreen transforms")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'spanwm <command> --help' for command-specific options.")
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

func runDaemon(args []string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	path := fs.String("path", "", "Config file path (default: ~/.config/spanwm/config.yaml)")
	displayFlag := fs.String("display", "", "X display to manage (overrides config and $DISPLAY)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: spanwm run [--path PATH] [--display :N]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Manage the X display in the foreground. SIGHUP reloads configuration.")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "run takes no arguments")
		fs.Usage()
		return 2
	}

	cfg, err := loadConfig(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid logging.level: %v\n", err)
		return 1
	}
	logger, err := logging.New(
		logging.WithConsole(os.Stderr),
		logging.WithFile(cfg.Logging.File),
		logging.WithLevel(level),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}
	defer logger.Close()
	log := logger.Logger

	display := cfg.Display
	if *displayFlag != "" {
		display = *displayFlag
	}

	conn, err := x11.Connect(display, log)
	if err != nil {
		switch {
		case errors.Is(err, x11.ErrAnotherWM):
			log.Error().Msg("another window manager is already running")
		case errors.Is(err, x11.ErrNoRandR):
			log.Error().Err(err).Msg("the X server does not support RandR")
		default:
			log.Error().Err(err).Str("display", display).Msg("failed to connect to display")
		}
		return 1
	}
	defer conn.Close()

	if err := conn.Advertise(); err != nil {
		log.Error().Err(err).Msg("failed to publish window manager hints")
		return 1
	}

	topo := monitor.New(x11.NewRandR(conn), cfg.Limits.MaxMonitors, log)
	syncer := touch.NewSyncer(&touch.XInput{Path: cfg.Touch.XInputPath, Display: display}, log)
	mgr := wm.New(wm.Options{
		Display:    conn,
		Topology:   topo,
		Touch:      syncer,
		Logger:     log,
		MaxWindows: cfg.Limits.MaxWindows,
		Settings:   daemon.Settings(cfg),
	})

	d := daemon.New(mgr, log)
	d.AddEssential(&x11.EventSource{Conn: conn, Out: d.Events()})
	// Unblocks the event reader once the loop is done with the display.
	d.AfterLoop(conn.Close)

	if cfg.Touch.Enabled {
		watcher := touch.NewWatcher(cfg.Touch.DeviceDir, log)
		d.Add(watcher)
		d.Add(&daemon.DeviceForwarder{Signals: watcher.C(), Out: d.Events()})
	}

	reloader := &daemon.Reloader{Path: *path, Logger: logger, Manager: mgr}
	d.Add(&daemon.HangupReloader{Reloader: reloader, Log: log})

	if cfg.IPC.Enabled {
		socket, err := runtimepath.SocketPath()
		if err != nil {
			log.Error().Err(err).Msg("failed to resolve IPC socket path")
			return 1
		}
		d.Add(ipc.NewServer(socket, mgr, reloader.Reload, log))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("display", display).Str("wm", x11.WMName).Msg("spanwm starting")
	if err := d.Run(ctx); err != nil {
		log.Error().Err(err).Msg("spanwm stopped")
		return 1
	}
	log.Info().Msg("spanwm stopped")
	return 0
}
