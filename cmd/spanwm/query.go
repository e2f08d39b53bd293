package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"github.com/1broseidon/spanwm/internal/ipc"
)

// wantJSON reports whether output should be JSON: either requested, or
// stdout is not a terminal.
func wantJSON(flagged bool) bool {
	return flagged || !term.IsTerminal(int(os.Stdout.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseQueryFlags handles the shared --json flag for read-only commands.
func parseQueryFlags(name, usage string, args []string) (jsonOut bool, code int, ok bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON even when stdout is a terminal")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: spanwm %s [--json]\n", name)
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, usage)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return false, 0, false
		}
		return false, 2, false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return false, 2, false
	}
	return wantJSON(*asJSON), 0, true
}

func runStatus(args []string) int {
	jsonOut, code, ok := parseQueryFlags("status", "Show daemon status via IPC.", args)
	if !ok {
		return code
	}
	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if jsonOut {
		return exitOn(writeJSON(os.Stdout, status))
	}
	printStatus(os.Stdout, status)
	return 0
}

func runMonitors(args []string) int {
	jsonOut, code, ok := parseQueryFlags("monitors", "List active monitors in index order.", args)
	if !ok {
		return code
	}
	data, err := ipc.NewClient().GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if jsonOut {
		return exitOn(writeJSON(os.Stdout, data))
	}
	return exitOn(printMonitors(os.Stdout, data))
}

func runWindows(args []string) int {
	jsonOut, code, ok := parseQueryFlags("windows", "List the focus history, always-on-top set and fullscreen windows.", args)
	if !ok {
		return code
	}
	data, err := ipc.NewClient().GetWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if jsonOut {
		return exitOn(writeJSON(os.Stdout, data))
	}
	return exitOn(printWindows(os.Stdout, data))
}

func runReload(args []string) int {
	if len(args) > 0 && (args[0] == "help" || args[0] == "-h" || args[0] == "--help") {
		fmt.Fprintln(os.Stdout, "Usage: spanwm reload")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Ask the running daemon to re-read its configuration.")
		return 0
	}
	if err := ipc.NewClient().Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("reloaded")
	return 0
}

func runTouch(args []string) int {
	if len(args) != 1 || args[0] != "refresh" {
		fmt.Fprintln(os.Stderr, "Usage: spanwm touch refresh")
		return 2
	}
	res, err := ipc.NewClient().RefreshTouch()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("rotation: %d\n", res.Rotation)
	fmt.Printf("devices:  %d (updated %d, failed %d)\n", res.Devices, res.Updated, res.Failed)
	return 0
}

func exitOn(err error) int {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printStatus(w io.Writer, s *ipc.StatusData) {
	fmt.Fprintf(w, "daemon_running: %v\n", s.DaemonRunning)
	fmt.Fprintf(w, "uptime:         %s\n", time.Duration(s.UptimeSeconds)*time.Second)
	fmt.Fprintf(w, "screen:         %dx%d on %d monitor(s)\n", s.ScreenWidth, s.ScreenHeight, s.Monitors)
	fmt.Fprintf(w, "active_window:  %s\n", orDash(s.ActiveWindow))
	fmt.Fprintf(w, "windows:        %d (above %d, fullscreen %d)\n", s.Windows, s.Above, s.Fullscreen)
	fmt.Fprintf(w, "events:         %d (failed %d)\n", s.Events, s.Failures)
	fmt.Fprintf(w, "wallpaper:      %s\n", orDash(s.Wallpaper))
	fmt.Fprintf(w, "touch:          %v\n", s.TouchEnabled)
	if s.LastTouch != nil {
		fmt.Fprintf(w, "last_touch:     rotation %d, %d/%d devices updated\n",
			s.LastTouch.Rotation, s.LastTouch.Updated, s.LastTouch.Devices)
	}
}

func printMonitors(w io.Writer, data *ipc.MonitorsData) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tGEOMETRY\tROTATION")
	for _, m := range data.Monitors {
		fmt.Fprintf(tw, "%d\t%s\t%dx%d+%d+%d\t%d\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y, m.Rotation)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "screen: %dx%d\n", data.ScreenWidth, data.ScreenHeight)
	return err
}

func printWindows(w io.Writer, data *ipc.WindowsData) error {
	fmt.Fprintf(w, "active: %s\n", orDash(data.Active))
	fmt.Fprintf(w, "focus:  %s\n", orDash(strings.Join(data.Focus, " ")))
	fmt.Fprintf(w, "above:  %s\n", orDash(strings.Join(data.Above, " ")))
	if len(data.Fullscreen) == 0 {
		_, err := fmt.Fprintln(w, "fullscreen: -")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tMODE\tSPAN\tORIGINAL")
	for _, f := range data.Fullscreen {
		span := "-"
		if len(f.Span) == 4 {
			span = fmt.Sprintf("%v (%s)", f.Span, strings.Join(f.Outputs, ","))
		}
		o := f.Original
		fmt.Fprintf(tw, "%s\t%s\t%s\t%dx%d+%d+%d\n", f.Window, f.Mode, span, o.Width, o.Height, o.X, o.Y)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
