// Package fullscreen keeps per-window fullscreen records and derives the
// rectangles fullscreen windows occupy.
package fullscreen

import (
	"errors"
	"fmt"

	"github.com/1broseidon/spanwm/internal/platform"
)

var (
	// ErrCapacity is returned when a new record would exceed the registry bound.
	ErrCapacity = errors.New("fullscreen: capacity exceeded")
	// ErrSpanActive is returned when a general request hits a spanning window.
	ErrSpanActive = errors.New("fullscreen: monitor span active")
)

// Mode is the fullscreen state of a window.
type Mode int

const (
	None Mode = iota
	General
	MonitorSpan
)

func (m Mode) String() string {
	switch m {
	case General:
		return "general"
	case MonitorSpan:
		return "monitor-span"
	default:
		return "none"
	}
}

// Record is the fullscreen bookkeeping for one window. Span and Outputs are
// only meaningful when Mode is MonitorSpan.
type Record struct {
	Window   platform.WindowID
	Original platform.Rect
	Mode     Mode
	Span     Span
	// Outputs holds the output names the span indices resolved to when the
	// span was requested, in top, bottom, left, right order.
	Outputs [4]string
}

// Placement is a window rectangle the caller should apply.
type Placement struct {
	Window platform.WindowID
	Rect   platform.Rect
	Mode   Mode
	// Renumbered is set when a span index now resolves to a different
	// output than it did at request time.
	Renumbered bool
}

// GeometryFunc fetches a window's current geometry. It is only called when a
// record is created.
type GeometryFunc func() (platform.Rect, error)

// Registry maps windows to their fullscreen records.
type Registry struct {
	records  map[platform.WindowID]*Record
	order    []platform.WindowID
	capacity int
}

// NewRegistry returns an empty registry holding at most capacity records.
// A capacity of zero or less means unbounded.
func NewRegistry(capacity int) *Registry {
	return &Registry{
		records:  make(map[platform.WindowID]*Record),
		capacity: capacity,
	}
}

// Get returns a copy of the record for w.
func (r *Registry) Get(w platform.WindowID) (Record, bool) {
	rec, ok := r.records[w]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Mode returns the mode of w, None when it has no record.
func (r *Registry) Mode(w platform.WindowID) Mode {
	if rec, ok := r.records[w]; ok {
		return rec.Mode
	}
	return None
}

func (r *Registry) Contains(w platform.WindowID) bool {
	_, ok := r.records[w]
	return ok
}

func (r *Registry) Len() int { return len(r.records) }

// Records returns copies of all records in creation order.
func (r *Registry) Records() []Record {
	out := make([]Record, 0, len(r.order))
	for _, w := range r.order {
		out = append(out, *r.records[w])
	}
	return out
}

// RequestGeneral puts w into general fullscreen and returns the rectangle
// covering the whole virtual screen.
func (r *Registry) RequestGeneral(w platform.WindowID, current GeometryFunc, screen Screen) (Placement, error) {
	if rec, ok := r.records[w]; ok && rec.Mode == MonitorSpan {
		return Placement{}, fmt.Errorf("window %s: %w", w, ErrSpanActive)
	}
	rec, err := r.ensure(w, current)
	if err != nil {
		return Placement{}, err
	}
	rec.Mode = General
	rec.Span = Span{}
	rec.Outputs = [4]string{}
	return Placement{Window: w, Rect: generalTarget(screen), Mode: General}, nil
}

// RequestSpan puts w into monitor-span fullscreen. The span is validated
// before any record is touched.
func (r *Registry) RequestSpan(w platform.WindowID, span Span, current GeometryFunc, screen Screen) (Placement, error) {
	target, err := spanTarget(span, screen)
	if err != nil {
		return Placement{}, err
	}
	rec, err := r.ensure(w, current)
	if err != nil {
		return Placement{}, err
	}
	rec.Mode = MonitorSpan
	rec.Span = span
	rec.Outputs = outputNames(span, screen.Monitors)
	return Placement{Window: w, Rect: target, Mode: MonitorSpan}, nil
}

// Clear deletes the record for w and returns it so the caller can restore
// the original geometry.
func (r *Registry) Clear(w platform.WindowID) (Record, bool) {
	rec, ok := r.records[w]
	if !ok {
		return Record{}, false
	}
	delete(r.records, w)
	for i, id := range r.order {
		if id == w {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return *rec, true
}

// Recompute re-derives every record's rectangle against screen. Span records
// whose indices no longer resolve are reported in the returned error and
// left out of the placements.
func (r *Registry) Recompute(screen Screen) ([]Placement, error) {
	var (
		out  []Placement
		errs []error
	)
	for _, w := range r.order {
		rec := r.records[w]
		switch rec.Mode {
		case General:
			out = append(out, Placement{Window: w, Rect: generalTarget(screen), Mode: General})
		case MonitorSpan:
			target, err := spanTarget(rec.Span, screen)
			if err != nil {
				errs = append(errs, fmt.Errorf("window %s: %w", w, err))
				continue
			}
			out = append(out, Placement{
				Window:     w,
				Rect:       target,
				Mode:       MonitorSpan,
				Renumbered: outputNames(rec.Span, screen.Monitors) != rec.Outputs,
			})
		}
	}
	return out, errors.Join(errs...)
}

func (r *Registry) ensure(w platform.WindowID, current GeometryFunc) (*Record, error) {
	if rec, ok := r.records[w]; ok {
		return rec, nil
	}
	if r.capacity > 0 && len(r.records) >= r.capacity {
		return nil, fmt.Errorf("window %s: %w (%d records)", w, ErrCapacity, r.capacity)
	}
	var orig platform.Rect
	if current != nil {
		g, err := current()
		if err != nil {
			return nil, fmt.Errorf("window %s: geometry: %w", w, err)
		}
		orig = g
	}
	rec := &Record{Window: w, Original: orig}
	r.records[w] = rec
	r.order = append(r.order, w)
	return rec, nil
}

func outputNames(span Span, monitors []platform.Monitor) [4]string {
	var names [4]string
	if span.IsWholeScreen() {
		return names
	}
	for i, idx := range span.indices() {
		if idx >= 0 && idx < len(monitors) {
			names[i] = monitors[idx].Name
		}
	}
	return names
}
