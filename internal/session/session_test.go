package session

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"InkBoard/internal/curve"
	"InkBoard/internal/geom"
	"InkBoard/internal/raster"
	"InkBoard/internal/state"
	"InkBoard/internal/tool"
)

var (
	black = color.NRGBA{A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

type fixture struct {
	session  *Session
	pixmap   *raster.Pixmap
	store    *state.Store
	selector *tool.Selector
}

func newFixture(t *testing.T, w, h int) *fixture {
	t.Helper()
	eraser := tool.Tool{Kind: tool.Eraser, Color: white, Radius: 30}
	sel, err := tool.NewSelector(tool.DefaultBrush(), eraser, tool.LineErase)
	require.NoError(t, err)
	pm := raster.NewPixmap(w, h)
	store := state.NewStore(nil)
	s := New(raster.NewCompositor(pm, nil), store, sel, Options{})
	return &fixture{session: s, pixmap: pm, store: store, selector: sel}
}

func pixelAt(pm *raster.Pixmap, p geom.Point) color.NRGBA {
	return pm.At(int(math.Round(p.X)), int(math.Round(p.Y)))
}

func TestTapDrawsDotAndCommitsOnePoint(t *testing.T) {
	f := newFixture(t, 100, 100)
	f.session.PointerDown(1, geom.Pt(50, 50))
	assert.Equal(t, Tracking, f.session.State())

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			inside := geom.Distance(geom.Pt(50, 50), geom.Pt(float64(x), float64(y))) < 5
			require.Equal(t, inside, f.pixmap.At(x, y) == black, "pixel (%d,%d)", x, y)
		}
	}

	f.session.PointerUp(1)
	assert.Equal(t, Idle, f.session.State())
	strokes := f.store.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, []geom.Point{geom.Pt(50, 50)}, strokes[0].Points)
	assert.Equal(t, tool.DefaultBrush(), strokes[0].Tool)
}

func TestWindowSlidesByOne(t *testing.T) {
	f := newFixture(t, 100, 100)
	s := f.session

	s.PointerDown(1, geom.Pt(0, 0))
	assert.Equal(t, []geom.Point{geom.Pt(0, 0)}, s.Window())

	s.PointerMove(1, geom.Pt(10, 0), geom.Pt(20, 0))
	assert.Equal(t, []geom.Point{geom.Pt(20, 0), geom.Pt(10, 0), geom.Pt(0, 0)}, s.Window())

	s.PointerMove(1, geom.Pt(30, 0))
	assert.Equal(t, []geom.Point{geom.Pt(30, 0), geom.Pt(20, 0), geom.Pt(10, 0)}, s.Window())

	s.PointerMove(1, geom.Pt(40, 0))
	assert.Equal(t, []geom.Point{geom.Pt(40, 0), geom.Pt(30, 0), geom.Pt(20, 0)}, s.Window())

	s.PointerUp(1)
	assert.Empty(t, s.Window())
}

func TestCoalescedMovesProduceContinuousBand(t *testing.T) {
	f := newFixture(t, 100, 20)
	s := f.session

	s.PointerDown(1, geom.Pt(0, 0))
	s.PointerMove(1, geom.Pt(10, 0), geom.Pt(20, 0), geom.Pt(30, 0), geom.Pt(40, 0))
	s.PointerUp(1)

	strokes := f.store.Strokes()
	require.Len(t, strokes, 1)
	pts := strokes[0].Points
	// the tap point plus one 32-point segment per full window
	require.Len(t, pts, 1+2*32)
	assert.Equal(t, geom.Pt(0, 0), pts[0])

	radius := float64(tool.DefaultBrush().Radius)
	for _, seg := range [][]geom.Point{pts[1:33], pts[33:]} {
		for i := 1; i < len(seg); i++ {
			assert.InDelta(t, 0, seg[i].Y, 1e-9)
			assert.Less(t, geom.Distance(seg[i-1], seg[i]), radius)
		}
	}
	assert.InDelta(t, 40, pts[len(pts)-1].X, 1)

	// re-stamping the recorded points yields an unbroken band along y=0
	replay := raster.NewPixmap(100, 20)
	c := raster.NewCompositor(replay, nil)
	for _, p := range pts {
		c.Stamp(p, strokes[0].Tool)
	}
	for x := 0; x <= 40; x++ {
		assert.Equal(t, black, replay.At(x, 0), "gap at x=%d", x)
		assert.Equal(t, black, f.pixmap.At(x, 0), "live surface gap at x=%d", x)
	}
	assert.Equal(t, replay.Snapshot().Pix, f.pixmap.Snapshot().Pix)
}

func TestBatchMatchesSeparateMoves(t *testing.T) {
	moves := []geom.Point{geom.Pt(12, 7), geom.Pt(19, 15), geom.Pt(31, 18), geom.Pt(40, 30), geom.Pt(44, 41)}

	a := newFixture(t, 60, 60)
	a.session.PointerDown(1, geom.Pt(5, 5))
	a.session.PointerMove(1, moves...)
	a.session.PointerUp(1)

	b := newFixture(t, 60, 60)
	b.session.PointerDown(1, geom.Pt(5, 5))
	for _, p := range moves {
		b.session.PointerMove(1, p)
	}
	b.session.PointerUp(1)

	assert.Equal(t, a.store.Strokes()[0].Points, b.store.Strokes()[0].Points)
	assert.Equal(t, a.pixmap.Snapshot().Pix, b.pixmap.Snapshot().Pix)
}

func TestLineEraseRemovesTouchedStroke(t *testing.T) {
	f := newFixture(t, 200, 200)
	s := f.session

	s.PointerDown(1, geom.Pt(40, 100))
	s.PointerMove(1, geom.Pt(60, 100), geom.Pt(80, 100), geom.Pt(100, 100), geom.Pt(120, 100))
	s.PointerUp(1)
	require.Equal(t, 1, f.store.Len())
	drawn := f.store.Strokes()[0]

	f.selector.SelectEraser()
	// 35px from the first point: within eraser radius + brush radius
	s.PointerDown(7, geom.Pt(40, 135))
	s.PointerUp(7)

	assert.Equal(t, 0, f.store.Len())
	for _, p := range drawn.Points {
		assert.Equal(t, white, pixelAt(f.pixmap, p), "point %v not covered", p)
	}
	// the eraser gesture itself is never recorded
	assert.Equal(t, 0, f.store.Len())
}

func TestLineEraseMissesDistantStroke(t *testing.T) {
	f := newFixture(t, 200, 200)
	f.session.PointerDown(1, geom.Pt(40, 100))
	f.session.PointerUp(1)

	f.selector.SelectEraser()
	f.session.PointerDown(1, geom.Pt(40, 140))
	f.session.PointerUp(1)

	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, black, f.pixmap.At(40, 100))
}

func TestLineEraseRepaintsSurvivors(t *testing.T) {
	f := newFixture(t, 120, 100)
	s := f.session

	s.PointerDown(1, geom.Pt(0, 50))
	s.PointerMove(1, geom.Pt(20, 50), geom.Pt(40, 50), geom.Pt(60, 50), geom.Pt(80, 50), geom.Pt(100, 50))
	s.PointerUp(1)
	s.PointerDown(1, geom.Pt(50, 58))
	s.PointerUp(1)
	require.Equal(t, 2, f.store.Len())
	survivor := f.store.Strokes()[1]

	require.NoError(t, f.selector.SetEraser(tool.Tool{Color: white, Radius: 20}))
	f.selector.SelectEraser()
	s.PointerDown(1, geom.Pt(10, 50))
	s.PointerUp(1)

	strokes := f.store.Strokes()
	require.Len(t, strokes, 1)
	assert.Equal(t, survivor.ID, strokes[0].ID)

	assert.Equal(t, white, f.pixmap.At(50, 50))
	assert.Equal(t, white, f.pixmap.At(90, 50))
	assert.Equal(t, black, f.pixmap.At(50, 58))
	assert.Equal(t, black, f.pixmap.At(50, 54))
	assert.Equal(t, white, f.pixmap.At(50, 53))

	// the surface matches a brush-only re-render of the store, plus eraser paint
	replay := raster.NewPixmap(120, 100)
	c := raster.NewCompositor(replay, nil)
	for _, p := range strokes[0].Points {
		c.Stamp(p, strokes[0].Tool)
	}
	for y := 0; y < 100; y++ {
		for x := 0; x < 120; x++ {
			if replay.At(x, y) == black {
				require.Equal(t, black, f.pixmap.At(x, y), "pixel (%d,%d)", x, y)
			}
		}
	}
}

func TestLineEraseKeepsLaterStrokesOnTop(t *testing.T) {
	f := newFixture(t, 100, 100)
	s := f.session
	red := color.NRGBA{R: 255, A: 255}
	tap := func(c color.NRGBA, p geom.Point) {
		t.Helper()
		require.NoError(t, f.selector.SetBrush(tool.Tool{Color: c, Radius: 10}))
		f.selector.SelectBrush()
		s.PointerDown(1, p)
		s.PointerUp(1)
	}
	tap(black, geom.Pt(50, 50))
	tap(red, geom.Pt(56, 50))
	tap(black, geom.Pt(38, 50))
	require.Equal(t, red, f.pixmap.At(53, 50))

	require.NoError(t, f.selector.SetEraser(tool.Tool{Radius: 20}))
	f.selector.SelectEraser()
	f.selector.SetGranularity(tool.LineErase)
	s.PointerDown(1, geom.Pt(10, 50))
	s.PointerUp(1)

	strokes := f.store.Strokes()
	require.Len(t, strokes, 2)
	assert.Equal(t, red, f.pixmap.At(53, 50))

	replay := raster.NewPixmap(100, 100)
	c := raster.NewCompositor(replay, nil)
	for _, st := range strokes {
		for _, p := range st.Points {
			c.Stamp(p, st.Tool)
		}
	}
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			require.Equal(t, replay.At(x, y), f.pixmap.At(x, y), "pixel (%d,%d)", x, y)
		}
	}
}

func TestPointEraseKeepsStrokes(t *testing.T) {
	f := newFixture(t, 100, 100)
	f.session.PointerDown(1, geom.Pt(50, 50))
	f.session.PointerUp(1)

	f.selector.SelectEraser()
	f.selector.SetGranularity(tool.PointErase)
	f.session.PointerDown(1, geom.Pt(50, 50))
	f.session.PointerUp(1)

	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, white, f.pixmap.At(50, 50))
	assert.Equal(t, white, f.pixmap.At(60, 50))
}

func TestToolIsFixedForTheGesture(t *testing.T) {
	f := newFixture(t, 100, 100)
	s := f.session

	s.PointerDown(1, geom.Pt(10, 10))
	f.selector.SelectEraser()
	s.PointerMove(1, geom.Pt(20, 10), geom.Pt(30, 10), geom.Pt(40, 10))
	s.PointerUp(1)

	strokes := f.store.Strokes()
	require.Len(t, strokes, 1)
	assert.Len(t, strokes[0].Points, 33)
	assert.Equal(t, black, f.pixmap.At(30, 10))
}

func TestSecondPointerIsIgnored(t *testing.T) {
	f := newFixture(t, 100, 100)
	s := f.session

	s.PointerDown(1, geom.Pt(10, 10))
	s.PointerDown(2, geom.Pt(80, 80))
	s.PointerMove(2, geom.Pt(81, 80), geom.Pt(82, 80), geom.Pt(83, 80))
	s.PointerUp(2)
	assert.Equal(t, Tracking, s.State())
	assert.Equal(t, []geom.Point{geom.Pt(10, 10)}, s.Window())
	assert.Equal(t, color.NRGBA{}, f.pixmap.At(80, 80))

	s.PointerUp(1)
	assert.Equal(t, Idle, s.State())
	require.Equal(t, 1, f.store.Len())
}

func TestEventsWhileIdleAreIgnored(t *testing.T) {
	f := newFixture(t, 50, 50)
	f.session.PointerMove(1, geom.Pt(1, 1), geom.Pt(2, 2), geom.Pt(3, 3), geom.Pt(4, 4))
	f.session.PointerUp(1)
	f.session.PointerCancel(1)
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, color.NRGBA{}, f.pixmap.At(2, 2))
}

func TestOutAndCancelCommit(t *testing.T) {
	for name, end := range map[string]func(*Session, int){
		"out":    (*Session).PointerOut,
		"cancel": (*Session).PointerCancel,
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, 100, 100)
			f.session.PointerDown(3, geom.Pt(10, 10))
			f.session.PointerMove(3, geom.Pt(20, 20))
			end(f.session, 3)

			assert.Equal(t, Idle, f.session.State())
			assert.Empty(t, f.session.Window())
			require.Equal(t, 1, f.store.Len())
			assert.Equal(t, []geom.Point{geom.Pt(10, 10)}, f.store.Strokes()[0].Points)
		})
	}
}

func TestParametricInterpolator(t *testing.T) {
	f := newFixture(t, 100, 100)
	f.session.interp = curve.Parametric{Step: 0.1}
	f.session.PointerDown(1, geom.Pt(0, 0))
	f.session.PointerMove(1, geom.Pt(10, 0), geom.Pt(20, 0), geom.Pt(30, 0))
	f.session.PointerUp(1)
	assert.Len(t, f.store.Strokes()[0].Points, 1+10)
}

func TestHandle(t *testing.T) {
	f := newFixture(t, 100, 100)
	s := f.session

	require.NoError(t, s.Handle(Event{Kind: EventDown, Pointer: 1, Points: []geom.Point{geom.Pt(0, 0), geom.Pt(10, 0)}}))
	require.NoError(t, s.Handle(Event{Kind: EventMove, Pointer: 1, Points: []geom.Point{geom.Pt(20, 0), geom.Pt(30, 0)}}))
	require.NoError(t, s.Handle(Event{Kind: EventUp, Pointer: 1}))
	require.Equal(t, 1, f.store.Len())
	assert.Len(t, f.store.Strokes()[0].Points, 33)

	assert.ErrorIs(t, s.Handle(Event{Kind: EventDown, Pointer: 1}), ErrMissingPoint)
	assert.ErrorIs(t, s.Handle(Event{Kind: "hover"}), ErrUnknownEvent)
	assert.NoError(t, s.Handle(Event{Kind: EventOut, Pointer: 1}))
	assert.NoError(t, s.Handle(Event{Kind: EventCancel, Pointer: 1}))
}

func TestRedrawAfterRemoteOps(t *testing.T) {
	src := newFixture(t, 80, 80)
	var ops []state.Op
	src.store.OnOp = func(op state.Op) { ops = append(ops, op) }
	src.session.PointerDown(1, geom.Pt(20, 20))
	src.session.PointerMove(1, geom.Pt(30, 25), geom.Pt(40, 35), geom.Pt(50, 40))
	src.session.PointerUp(1)
	require.Len(t, ops, 1)

	dst := newFixture(t, 80, 80)
	require.True(t, dst.store.Apply(ops[0]))
	dst.session.Redraw()
	assert.Equal(t, src.pixmap.Snapshot().Pix, dst.pixmap.Snapshot().Pix)
}

func TestInvalidToolRefusesGesture(t *testing.T) {
	f := newFixture(t, 20, 20)
	s := New(raster.NewCompositor(f.pixmap, nil), f.store, badProvider{}, Options{})
	s.PointerDown(1, geom.Pt(5, 5))
	assert.Equal(t, Idle, s.State())
	s.PointerUp(1)
	assert.Equal(t, 0, f.store.Len())
}

type badProvider struct{}

func (badProvider) CurrentTool() tool.Tool             { return tool.Tool{} }
func (badProvider) EraseGranularity() tool.Granularity { return tool.PointErase }

func TestHandleDownCarriesTool(t *testing.T) {
	f := newFixture(t, 100, 100)
	s := f.session
	require.NoError(t, s.Handle(Event{Kind: EventDown, Pointer: 1, Points: []geom.Point{geom.Pt(50, 50)}}))
	require.NoError(t, s.Handle(Event{Kind: EventUp, Pointer: 1}))
	require.Equal(t, 1, f.store.Len())

	// the selector still says brush; the event asks for a line eraser
	eraser := tool.Tool{Kind: tool.Eraser, Color: white, Radius: 10}
	line := tool.LineErase
	require.NoError(t, s.Handle(Event{Kind: EventDown, Pointer: 1, Points: []geom.Point{geom.Pt(52, 50)}, Tool: &eraser, Granularity: &line}))
	require.NoError(t, s.Handle(Event{Kind: EventUp, Pointer: 1}))
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, white, f.pixmap.At(50, 50))
	assert.Equal(t, tool.Brush, f.selector.CurrentTool().Kind)

	bad := tool.Tool{Kind: tool.Brush}
	err := s.Handle(Event{Kind: EventDown, Pointer: 1, Points: []geom.Point{geom.Pt(5, 5)}, Tool: &bad})
	assert.ErrorIs(t, err, tool.ErrInvalidRadius)
	assert.Equal(t, Idle, s.State())
}

func TestClearDropsStrokesAndGesture(t *testing.T) {
	f := newFixture(t, 60, 60)
	s := f.session
	s.PointerDown(1, geom.Pt(10, 10))
	s.PointerUp(1)
	s.PointerDown(1, geom.Pt(40, 40))

	require.NoError(t, s.Handle(Event{Kind: EventClear}))
	assert.Equal(t, Idle, s.State())
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, color.NRGBA{}, f.pixmap.At(10, 10))
	assert.Equal(t, color.NRGBA{}, f.pixmap.At(40, 40))

	s.PointerUp(1)
	assert.Equal(t, 0, f.store.Len())
}
