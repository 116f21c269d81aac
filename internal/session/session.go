// Package session turns pointer events into stamped, recorded strokes.
//
// A Session is not safe for concurrent use: every event handler runs to
// completion before the next one starts. Front-ends that receive events on
// several goroutines must serialise them (see net.Hub).
package session

import (
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"InkBoard/internal/curve"
	"InkBoard/internal/geom"
	"InkBoard/internal/logging"
	"InkBoard/internal/metrics"
	"InkBoard/internal/raster"
	"InkBoard/internal/state"
	"InkBoard/internal/tool"
)

// State of the pointer gesture tracker.
type State int

const (
	Idle State = iota
	Tracking
)

func (s State) String() string {
	if s == Tracking {
		return "tracking"
	}
	return "idle"
}

// windowSize is the number of raw samples one curve segment is fitted to.
const windowSize = 4

type Options struct {
	// Interpolator defaults to curve.Casteljau with the default depth.
	Interpolator curve.Interpolator
	// Background is what Redraw clears the surface to.
	Background color.NRGBA
	Logger     *slog.Logger
	Metrics    *metrics.Recorder
}

// Session owns one canvas: its compositor, stroke store and the state of
// the gesture in progress.
type Session struct {
	compositor *raster.Compositor
	store      *state.Store
	tools      tool.Provider
	interp     curve.Interpolator
	background color.NRGBA
	logger     *slog.Logger
	metrics    *metrics.Recorder

	state       State
	pointer     int
	window      []geom.Point // most recent first
	gesture     tool.Tool
	granularity tool.Granularity
	active      *state.Stroke
}

func New(c *raster.Compositor, store *state.Store, tools tool.Provider, opts Options) *Session {
	if opts.Interpolator == nil {
		opts.Interpolator = curve.Casteljau{Depth: curve.DefaultDepth}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	return &Session{
		compositor: c,
		store:      store,
		tools:      tools,
		interp:     opts.Interpolator,
		background: opts.Background,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		window:     make([]geom.Point, 0, windowSize),
	}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Store() *state.Store {
	return s.store
}

func (s *Session) Surface() raster.Surface {
	return s.compositor.Surface()
}

// Window returns a copy of the recent-points window, most recent first.
func (s *Session) Window() []geom.Point {
	return append([]geom.Point(nil), s.window...)
}

// PointerDown starts a gesture. The current tool and erase granularity are
// captured here and hold until the gesture ends. A down while another
// gesture is being tracked is ignored.
func (s *Session) PointerDown(pointer int, p geom.Point) {
	s.begin(pointer, p, s.tools.CurrentTool(), s.tools.EraseGranularity())
}

// PointerDownWith is PointerDown with an explicit tool and granularity in
// place of the provider's. An invalid tool refuses the gesture and is
// returned as an error.
func (s *Session) PointerDownWith(pointer int, p geom.Point, t tool.Tool, g tool.Granularity) error {
	return s.begin(pointer, p, t, g)
}

func (s *Session) begin(pointer int, p geom.Point, t tool.Tool, g tool.Granularity) error {
	s.metrics.PointerEvent(string(EventDown))
	if s.state == Tracking {
		s.logger.Debug("[session] ignoring down from second pointer", "pointer", pointer, "active", s.pointer)
		s.metrics.IgnoredEvent()
		return nil
	}
	if err := t.Validate(); err != nil {
		s.logger.Warn("[session] refusing gesture with invalid tool", "err", err)
		s.metrics.IgnoredEvent()
		return err
	}

	s.state = Tracking
	s.pointer = pointer
	s.gesture = t
	s.granularity = g
	s.window = append(s.window[:0], p)
	s.active = nil
	if t.Kind == tool.Brush {
		s.active = &state.Stroke{Tool: t, Points: make([]geom.Point, 0, 64)}
	}
	s.logger.Debug("[session] gesture started", "pointer", pointer, "tool", t.Kind, "granularity", g)
	s.apply(p)
	return nil
}

// PointerMove feeds raw samples, in arrival order, into the curve window.
// Once four samples are buffered every new one produces a smoothed segment.
func (s *Session) PointerMove(pointer int, points ...geom.Point) {
	s.metrics.PointerEvent(string(EventMove))
	if !s.owns(pointer) {
		return
	}
	for _, p := range points {
		s.push(p)
		if len(s.window) < windowSize {
			continue
		}
		w := s.window
		for _, q := range s.interp.Interpolate(w[3], w[2], w[1], w[0]) {
			s.apply(q)
		}
		s.window = s.window[:windowSize-1]
	}
}

// PointerUp ends the gesture and commits the brush stroke, even a single
// tap point.
func (s *Session) PointerUp(pointer int) {
	s.end(EventUp, pointer)
}

// PointerOut behaves like PointerUp.
func (s *Session) PointerOut(pointer int) {
	s.end(EventOut, pointer)
}

// PointerCancel behaves like PointerUp. The partial stroke is committed
// because its pixels are already on the surface.
func (s *Session) PointerCancel(pointer int) {
	s.end(EventCancel, pointer)
}

func (s *Session) end(kind EventKind, pointer int) {
	s.metrics.PointerEvent(string(kind))
	if !s.owns(pointer) {
		return
	}
	s.window = s.window[:0]
	s.state = Idle
	if s.active != nil {
		st := s.store.Commit(*s.active)
		s.metrics.StrokeCommitted()
		s.logger.Debug("[session] stroke committed", "id", st.ID, "points", len(st.Points), "via", kind)
	}
	s.active = nil
}

func (s *Session) owns(pointer int) bool {
	if s.state == Tracking && pointer == s.pointer {
		return true
	}
	s.metrics.IgnoredEvent()
	return false
}

// push front-inserts p into the window.
func (s *Session) push(p geom.Point) {
	s.window = append(s.window, geom.Point{})
	copy(s.window[1:], s.window)
	s.window[0] = p
}

// apply handles one point of the current gesture according to its tool.
func (s *Session) apply(p geom.Point) {
	switch {
	case s.gesture.Kind == tool.Brush:
		s.active.Points = append(s.active.Points, p)
		s.compositor.Stamp(p, s.gesture)
	case s.granularity == tool.LineErase:
		s.eraseLine(p)
	default:
		s.compositor.Stamp(p, s.gesture)
	}
}

// eraseLine removes the strokes touching p, covers their points with the
// eraser and repaints surviving strokes inside the covered pixels, so that
// the surface matches the store again when it returns.
func (s *Session) eraseLine(p geom.Point) {
	removed := s.store.EraseLine(p, s.gesture)
	if len(removed) == 0 {
		return
	}
	s.metrics.StrokesErased(len(removed))

	var covered []geom.Point
	for _, st := range removed {
		for _, q := range st.Points {
			s.compositor.Stamp(q, s.gesture)
		}
		covered = append(covered, st.Points...)
	}
	s.logger.Debug("[session] strokes erased", "count", len(removed), "points", len(covered))
	s.repaint(covered, s.gesture.Radius)
}

// repaint re-stamps surviving strokes, in store order, clipped to the
// pixels the eraser covered. Pixels outside the mask keep whatever later
// strokes put there.
func (s *Session) repaint(covered []geom.Point, radius int) {
	mask := raster.DiscMask(covered, radius, s.compositor.Surface().Bounds())
	if mask.Empty() {
		return
	}
	area := state.BoundsOf(covered)
	half := 0.5 * float64(radius)
	for _, st := range s.store.Strokes() {
		reach := half + 0.5*float64(st.Tool.Radius)
		if !st.Bounds().Pad(reach).Overlaps(area) {
			continue
		}
		for _, q := range st.Points {
			for _, c := range covered {
				if geom.Contains(c, reach, q) {
					s.compositor.StampMasked(q, st.Tool, mask)
					break
				}
			}
		}
	}
}

// Clear drops every stored stroke and any gesture in progress, then
// repaints the background.
func (s *Session) Clear() {
	if s.state == Tracking {
		s.logger.Debug("[session] clear discards gesture", "pointer", s.pointer)
	}
	s.state = Idle
	s.window = s.window[:0]
	s.active = nil
	s.store.Clear()
	s.Redraw()
}

// Redraw clears the surface to the background and re-stamps every stored
// stroke. It is used after remote ops change the store.
func (s *Session) Redraw() {
	surface := s.compositor.Surface()
	b := surface.Bounds()
	bg := image.NewNRGBA(b)
	draw.Draw(bg, b, image.NewUniform(s.background), image.Point{}, draw.Src)
	surface.WriteRegion(b.Min.X, b.Min.Y, bg)

	for _, st := range s.store.Strokes() {
		for _, p := range st.Points {
			s.compositor.Stamp(p, st.Tool)
		}
	}
	if s.active != nil {
		for _, p := range s.active.Points {
			s.compositor.Stamp(p, s.active.Tool)
		}
	}
}
