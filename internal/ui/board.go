package ui

import (
	"fmt"
	"image"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"InkBoard/internal/geom"
	"InkBoard/internal/raster"
	"InkBoard/internal/session"
	"InkBoard/internal/state"
)

// mousePointer is the pointer id used for the desktop mouse.
const mousePointer = 0

// Input receives the widget's pointer events: a local session.Session, or
// a net.Remote when the window is joined to another board.
type Input interface {
	PointerDown(pointer int, p geom.Point)
	PointerMove(pointer int, pts ...geom.Point)
	PointerUp(pointer int)
	PointerOut(pointer int)
}

var _ Input = (*session.Session)(nil)

// BoardWidget shows a pixmap and feeds mouse input to an Input.
type BoardWidget struct {
	widget.BaseWidget
	input  Input
	pixmap *raster.Pixmap
	store  *state.Store
	mu     sync.Mutex
	status *widget.Label

	// OnClear is called by the toolbar's clear action.
	OnClear func()
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

// NewBoardWidget shows pm, sends input to in and reports the size of store.
func NewBoardWidget(in Input, pm *raster.Pixmap, store *state.Store) *BoardWidget {
	b := &BoardWidget{
		input:  in,
		pixmap: pm,
		store:  store,
		status: widget.NewLabel("Ready"),
	}
	b.ExtendBaseWidget(b)
	return b
}

func (b *BoardWidget) Status() *widget.Label {
	return b.status
}

func (b *BoardWidget) SetStatus(text string) {
	b.status.SetText(text)
}

// toCanvas maps a widget position to pixmap coordinates.
func (b *BoardWidget) toCanvas(pos fyne.Position) geom.Point {
	size := b.Size()
	sx, sy := float64(1), float64(1)
	if size.Width > 0 && size.Height > 0 {
		sx = float64(b.pixmap.Width()) / float64(size.Width)
		sy = float64(b.pixmap.Height()) / float64(size.Height)
	}
	return geom.Pt(float64(pos.X)*sx, float64(pos.Y)*sy)
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.mu.Lock()
	b.input.PointerDown(mousePointer, b.toCanvas(e.Position))
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	b.mu.Lock()
	b.input.PointerUp(mousePointer)
	b.mu.Unlock()
	b.SetStatus(strokeCount(b.store.Len()))
	b.Refresh()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	b.mu.Lock()
	b.input.PointerMove(mousePointer, b.toCanvas(e.Position))
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) MouseOut() {
	b.mu.Lock()
	b.input.PointerOut(mousePointer)
	b.mu.Unlock()
	b.Refresh()
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}
func (b *BoardWidget) DragEnd()                       {}

// Clear runs OnClear and refreshes the view.
func (b *BoardWidget) Clear() {
	if b.OnClear != nil {
		b.mu.Lock()
		b.OnClear()
		b.mu.Unlock()
	}
	b.SetStatus(strokeCount(b.store.Len()))
	b.Refresh()
}

// Snapshot copies the current pixels.
func (b *BoardWidget) Snapshot() image.Image {
	return b.pixmap.Snapshot()
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b}
	r.raster = canvas.NewRaster(func(int, int) image.Image {
		return b.pixmap.Snapshot()
	})
	r.raster.ScaleMode = canvas.ImageScalePixels
	return r
}

type boardWidgetRenderer struct {
	board  *BoardWidget
	raster *canvas.Raster
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.raster}
}

func (r *boardWidgetRenderer) Refresh() {
	r.raster.Refresh()
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
}

func (r *boardWidgetRenderer) MinSize() fyne.Size {
	return fyne.NewSize(300, 300)
}

func (r *boardWidgetRenderer) Destroy() {}

func strokeCount(n int) string {
	if n == 1 {
		return "1 stroke"
	}
	return fmt.Sprintf("%d strokes", n)
}
