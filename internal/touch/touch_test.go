package touch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/1broseidon/spanwm/internal/platform"
)

const listLong = `⎡ Virtual core pointer                    	id=2	[master pointer  (3)]
	Reporting 7 classes:
		Class originated from: 2. Type: XIButtonClass
⎜   ↳ Virtual core XTEST pointer              	id=4	[slave  pointer  (2)]
	Reporting 3 classes:
		Class originated from: 4. Type: XIButtonClass
⎜   ↳ ELAN Touchscreen                        	id=10	[slave  pointer  (2)]
	Reporting 5 classes:
		Class originated from: 10. Type: XIButtonClass
		Class originated from: 10. Type: XITouchClass
		  Touch mode: direct
		  Max number of touches: 10
⎜   ↳ SynPS/2 Synaptics TouchPad              	id=12	[slave  pointer  (2)]
	Reporting 4 classes:
		Class originated from: 12. Type: XIValuatorClass
⎣ Virtual core keyboard                   	id=3	[master keyboard (2)]
	Reporting 1 classes:
		Class originated from: 3. Type: XIKeyClass
    ↳ Wacom Pen and multitouch sensor Finger	id=15	[slave  pointer  (2)]
	Reporting 6 classes:
		Class originated from: 15. Type: XITouchClass
		  Touch mode: direct
`

func TestMatrixFor(t *testing.T) {
	tests := []struct {
		rot  platform.Rotation
		want string
	}{
		{platform.Rotate0, "1 0 0 0 1 0 0 0 1"},
		{platform.Rotate90, "0 -1 1 1 0 0 0 0 1"},
		{platform.Rotate180, "-1 0 1 0 -1 1 0 0 1"},
		{platform.Rotate270, "0 1 0 -1 0 1 0 0 1"},
		{platform.Rotation(45), "1 0 0 0 1 0 0 0 1"},
	}
	for _, tt := range tests {
		if got := strings.Join(MatrixFor(tt.rot).Args(), " "); got != tt.want {
			t.Errorf("MatrixFor(%d) = %q, want %q", tt.rot, got, tt.want)
		}
	}
}

func TestParseList(t *testing.T) {
	devices, err := ParseList([]byte(listLong))
	if err != nil {
		t.Fatalf("ParseList: %v", err)
	}
	if len(devices) != 6 {
		t.Fatalf("devices = %+v", devices)
	}
	var touch []string
	for _, d := range devices {
		if d.Touch {
			touch = append(touch, d.Name)
		}
	}
	if got := strings.Join(touch, ","); got != "ELAN Touchscreen,Wacom Pen and multitouch sensor Finger" {
		t.Fatalf("touch devices = %q", got)
	}
	if devices[0].Role != "master pointer" || devices[2].ID != 10 || devices[2].Role != "slave pointer" {
		t.Fatalf("unexpected parse: %+v", devices[:3])
	}
}

type fakeDevices struct {
	devices []Device
	listErr error
	failOn  map[int]bool
	set     map[int]Matrix
}

func (f *fakeDevices) List(context.Context) ([]Device, error) {
	return f.devices, f.listErr
}

func (f *fakeDevices) SetMatrix(_ context.Context, id int, m Matrix) error {
	if f.failOn[id] {
		return errors.New("device busy")
	}
	if f.set == nil {
		f.set = make(map[int]Matrix)
	}
	f.set[id] = m
	return nil
}

func TestSyncer_BestEffortBroadcast(t *testing.T) {
	devs := &fakeDevices{
		devices: []Device{
			{ID: 4, Name: "XTEST", Role: "slave pointer"},
			{ID: 10, Name: "panel", Role: "slave pointer", Touch: true},
			{ID: 11, Name: "broken", Role: "slave pointer", Touch: true},
			{ID: 15, Name: "pen", Role: "slave pointer", Touch: true},
		},
		failOn: map[int]bool{11: true},
	}
	res, err := NewSyncer(devs, zerolog.Nop()).Sync(context.Background(), platform.Rotate90)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Devices != 3 || res.Updated != 2 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}
	if devs.set[15] != MatrixFor(platform.Rotate90) {
		t.Fatalf("device 15 matrix = %v", devs.set[15])
	}
	if _, ok := devs.set[4]; ok {
		t.Fatal("non-touch device received a transform")
	}
}

func TestSyncer_ListFailure(t *testing.T) {
	devs := &fakeDevices{listErr: errors.New("no display")}
	if _, err := NewSyncer(devs, zerolog.Nop()).Sync(context.Background(), platform.Rotate0); err == nil {
		t.Fatal("expected error")
	}
}

func setupStubXInput(t *testing.T) (path, logPath string) {
	t.Helper()
	dir := t.TempDir()
	path = filepath.Join(dir, "xinput")
	logPath = filepath.Join(dir, "xinput.log")
	listing := filepath.Join(dir, "list.txt")
	if err := os.WriteFile(listing, []byte(listLong), 0o644); err != nil {
		t.Fatalf("write listing: %v", err)
	}
	script := `#!/bin/sh
set -eu
printf '%s\n' "$*" >> "` + logPath + `"
case "${1:-}" in
  list) cat "` + listing + `" ;;
  set-prop)
    if [ "${2:-}" = "15" ]; then
      echo "property not found" 1>&2
      exit 1
    fi
    ;;
esac
`
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path, logPath
}

func TestXInput_SyncWithStub(t *testing.T) {
	path, logPath := setupStubXInput(t)
	x := &XInput{Path: path}

	res, err := NewSyncer(x, zerolog.Nop()).Sync(context.Background(), platform.Rotate180)
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if res.Devices != 2 || res.Updated != 1 || res.Failed != 1 {
		t.Fatalf("result = %+v", res)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := "set-prop 10 Coordinate Transformation Matrix -1 0 1 0 -1 1 0 0 1"
	if !strings.Contains(string(data), want) {
		t.Fatalf("log = %q, want line %q", data, want)
	}
}

func TestXInput_SetMatrixError(t *testing.T) {
	path, _ := setupStubXInput(t)
	x := &XInput{Path: path}
	err := x.SetMatrix(context.Background(), 15, MatrixFor(platform.Rotate0))
	if err == nil || !strings.Contains(err.Error(), "property not found") {
		t.Fatalf("err = %v", err)
	}
}

func TestWatcher_CoalescesDeviceEvents(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher(dir, zerolog.Nop())
	w.settle = 100 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	for _, name := range []string{"event7", "event8", "mouse3"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case <-w.C():
	case <-time.After(2 * time.Second):
		t.Fatal("no hierarchy signal")
	}
	select {
	case <-w.C():
		t.Fatal("burst was not coalesced")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Serve = %v", err)
	}
}
