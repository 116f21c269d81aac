// Package raster holds the pixel surface and the circular stamp compositor.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"sync"
)

// Surface is an integer-addressed straight-alpha RGBA pixel store.
type Surface interface {
	Bounds() image.Rectangle
	// ReadRegion copies the w×h region at (x, y), clamped to Bounds. The
	// returned buffer's Rect is in surface coordinates and may be smaller
	// than requested, or empty.
	ReadRegion(x, y, w, h int) *image.NRGBA
	// WriteRegion copies buf so that its top-left pixel lands at (x, y).
	// Pixels falling outside Bounds are dropped.
	WriteRegion(x, y int, buf *image.NRGBA)
}

// Pixmap is a Surface backed by an in-memory image. It is safe for
// concurrent use so that a front-end can render it while a session draws.
type Pixmap struct {
	mu  sync.RWMutex
	img *image.NRGBA
}

var _ Surface = (*Pixmap)(nil)

// NewPixmap creates a transparent pixmap with the given dimensions.
func NewPixmap(width, height int) *Pixmap {
	return &Pixmap{img: image.NewNRGBA(image.Rect(0, 0, width, height))}
}

func (p *Pixmap) Bounds() image.Rectangle {
	return p.img.Rect
}

func (p *Pixmap) Width() int {
	return p.img.Rect.Dx()
}

func (p *Pixmap) Height() int {
	return p.img.Rect.Dy()
}

func (p *Pixmap) ReadRegion(x, y, w, h int) *image.NRGBA {
	r := image.Rect(x, y, x+w, y+h).Intersect(p.img.Rect)
	buf := image.NewNRGBA(r)
	if r.Empty() {
		return buf
	}
	p.mu.RLock()
	draw.Draw(buf, r, p.img, r.Min, draw.Src)
	p.mu.RUnlock()
	return buf
}

func (p *Pixmap) WriteRegion(x, y int, buf *image.NRGBA) {
	if buf == nil {
		return
	}
	dst := buf.Rect.Sub(buf.Rect.Min).Add(image.Pt(x, y))
	clipped := dst.Intersect(p.img.Rect)
	if clipped.Empty() {
		return
	}
	sp := buf.Rect.Min.Add(clipped.Min.Sub(dst.Min))
	p.mu.Lock()
	draw.Draw(p.img, clipped, buf, sp, draw.Src)
	p.mu.Unlock()
}

// At returns the pixel at (x, y); out of range pixels are transparent.
func (p *Pixmap) At(x, y int) color.NRGBA {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.img.NRGBAAt(x, y)
}

// Clear fills the entire pixmap with c.
func (p *Pixmap) Clear(c color.NRGBA) {
	p.mu.Lock()
	draw.Draw(p.img, p.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	p.mu.Unlock()
}

// Snapshot returns a copy of the whole pixmap.
func (p *Pixmap) Snapshot() *image.NRGBA {
	return p.ReadRegion(p.img.Rect.Min.X, p.img.Rect.Min.Y, p.img.Rect.Dx(), p.img.Rect.Dy())
}
