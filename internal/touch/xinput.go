package touch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

// MatrixProperty is the libinput/evdev property holding the transform.
const MatrixProperty = "Coordinate Transformation Matrix"

// Device is one XInput device.
type Device struct {
	ID   int
	Name string
	// Role is the hierarchy role, e.g. "slave pointer".
	Role string
	// Touch is set for slave pointers that report a touch class.
	Touch bool
}

// Devices enumerates input devices and pushes transforms to them.
type Devices interface {
	List(ctx context.Context) ([]Device, error)
	SetMatrix(ctx context.Context, id int, m Matrix) error
}

// XInput drives the xinput command line tool.
type XInput struct {
	// Path is the xinput binary; empty means "xinput" on PATH.
	Path string
	// Display overrides DISPLAY for the child process when set.
	Display string
}

var _ Devices = (*XInput)(nil)

func (x *XInput) command(ctx context.Context, args ...string) *exec.Cmd {
	path := x.Path
	if path == "" {
		path = "xinput"
	}
	cmd := exec.CommandContext(ctx, path, args...)
	if x.Display != "" {
		cmd.Env = append(cmd.Environ(), "DISPLAY="+x.Display)
	}
	return cmd
}

// List runs "xinput list --long" and parses the result.
func (x *XInput) List(ctx context.Context) ([]Device, error) {
	var stdout, stderr bytes.Buffer
	cmd := x.command(ctx, "list", "--long")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("xinput list failed: %w (%s)", err, msg)
		}
		return nil, fmt.Errorf("xinput list failed: %w", err)
	}
	return ParseList(stdout.Bytes())
}

// SetMatrix sets the coordinate transformation matrix of device id.
func (x *XInput) SetMatrix(ctx context.Context, id int, m Matrix) error {
	args := append([]string{"set-prop", strconv.Itoa(id), MatrixProperty}, m.Args()...)
	if out, err := x.command(ctx, args...).CombinedOutput(); err != nil {
		return fmt.Errorf("xinput set-prop %d failed: %w (%s)", id, err, strings.TrimSpace(string(out)))
	}
	return nil
}

var deviceLine = regexp.MustCompile(`^[^\pL\pN]*(.*?)\s+id=(\d+)\s+\[(.+?)\s+\(\d+\)\]`)

// ParseList parses the output of "xinput list --long".
func ParseList(out []byte) ([]Device, error) {
	var (
		devices []Device
		cur     *Device
	)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if m := deviceLine.FindStringSubmatch(line); m != nil {
			id, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("parse device id %q: %w", m[2], err)
			}
			devices = append(devices, Device{
				ID:   id,
				Name: strings.TrimSpace(m[1]),
				Role: strings.Join(strings.Fields(m[3]), " "),
			})
			cur = &devices[len(devices)-1]
			continue
		}
		if cur != nil && cur.Role == "slave pointer" && strings.Contains(line, "XITouchClass") {
			cur.Touch = true
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read xinput output: %w", err)
	}
	return devices, nil
}
