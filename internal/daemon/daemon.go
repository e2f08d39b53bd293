// Package daemon wires the window manager loop to its event sources and
// side services under a supervisor.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/1broseidon/spanwm/internal/wm"
)

// eventBuffer bounds how far event sources may run ahead of the loop.
const eventBuffer = 256

// Loop is the event loop the daemon drives.
type Loop interface {
	Run(ctx context.Context, events <-chan wm.Event) error
}

// Daemon runs one Loop and the services that feed it.
type Daemon struct {
	loop   Loop
	events chan wm.Event
	sup    *suture.Supervisor
	log    zerolog.Logger
	cancel context.CancelCauseFunc
	after  []func()
}

func New(loop Loop, log zerolog.Logger) *Daemon {
	log = log.With().Str("component", "daemon").Logger()
	spec := suture.Spec{
		EventHook:      eventHook(log),
		FailureBackoff: time.Second,
	}
	return &Daemon{
		loop:   loop,
		events: make(chan wm.Event, eventBuffer),
		sup:    suture.New("spanwm", spec),
		log:    log,
	}
}

// Events is where sources deliver translated events.
func (d *Daemon) Events() chan<- wm.Event { return d.events }

// Add supervises svc, restarting it after failures.
func (d *Daemon) Add(svc suture.Service) {
	d.sup.Add(svc)
}

// AddEssential supervises svc and stops the daemon when it returns.
func (d *Daemon) AddEssential(svc suture.Service) {
	d.sup.Add(&essential{Service: svc, d: d})
}

// AfterLoop registers fn to run once the loop has returned and before
// services are waited for. It is used to release resources that keep a
// service blocked.
func (d *Daemon) AfterLoop(fn func()) {
	d.after = append(d.after, fn)
}

// Run drives the loop until ctx is cancelled or an essential service
// exits. A plain cancellation is not an error.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	d.cancel = cancel
	defer cancel(nil)

	supDone := d.sup.ServeBackground(ctx)
	runErr := d.loop.Run(ctx, d.events)
	cause := context.Cause(ctx)
	cancel(nil)
	for _, fn := range d.after {
		fn()
	}

	if err := <-supDone; err != nil && !errors.Is(err, context.Canceled) {
		d.log.Warn().Err(err).Msg("supervisor stopped with error")
	}

	if cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func (d *Daemon) fail(err error) {
	if d.cancel != nil {
		d.cancel(err)
	}
}

type essential struct {
	suture.Service
	d *Daemon
}

func (e *essential) Serve(ctx context.Context) error {
	err := e.Service.Serve(ctx)
	if ctx.Err() == nil {
		if err == nil {
			err = errors.New("exited")
		}
		e.d.fail(fmt.Errorf("%s: %w", e.Service, err))
	}
	return suture.ErrDoNotRestart
}

func (e *essential) String() string { return fmt.Sprint(e.Service) }

func eventHook(log zerolog.Logger) suture.EventHook {
	return func(ev suture.Event) {
		log.Warn().Fields(ev.Map()).Msg(ev.String())
	}
}

// DeviceForwarder turns device-watcher signals into hierarchy events.
type DeviceForwarder struct {
	Signals <-chan struct{}
	Out     chan<- wm.Event
}

func (f *DeviceForwarder) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-f.Signals:
			select {
			case f.Out <- wm.DeviceHierarchyChange{}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (f *DeviceForwarder) String() string { return "device-forwarder" }
