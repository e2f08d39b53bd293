package touch

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDeviceDir is where evdev nodes appear and disappear.
const DefaultDeviceDir = "/dev/input"

const defaultSettle = 250 * time.Millisecond

// Watcher signals input hierarchy changes by watching the device
// directory. Bursts of create/remove events collapse into one pending
// signal on C.
type Watcher struct {
	dir    string
	settle time.Duration
	log    zerolog.Logger
	c      chan struct{}
}

func NewWatcher(dir string, log zerolog.Logger) *Watcher {
	if dir == "" {
		dir = DefaultDeviceDir
	}
	return &Watcher{
		dir:    dir,
		settle: defaultSettle,
		log:    log.With().Str("component", "touch-watcher").Logger(),
		c:      make(chan struct{}, 1),
	}
}

// C delivers at most one pending hierarchy-changed signal.
func (w *Watcher) C() <-chan struct{} { return w.c }

// Serve watches until ctx is cancelled.
func (w *Watcher) Serve(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.log.Info().Str("dir", w.dir).Msg("watching input devices")

	timer := time.NewTimer(w.settle)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) {
				continue
			}
			w.log.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("input device node changed")
			if !pending {
				pending = true
				timer.Reset(w.settle)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("device watcher error")
		case <-timer.C:
			pending = false
			select {
			case w.c <- struct{}{}:
			default:
			}
		}
	}
}

func (w *Watcher) String() string { return "touch-watcher(" + w.dir + ")" }
