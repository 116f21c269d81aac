package raster

import (
	"image"
	"image/color"
	"math"

	"InkBoard/internal/geom"
)

// Mask is a set of pixels inside a fixed rectangle. The session uses one to
// confine a repaint to the pixels a line erase cleared.
type Mask struct {
	img *image.Alpha
}

func NewMask(r image.Rectangle) *Mask {
	return &Mask{img: image.NewAlpha(r)}
}

// DiscMask returns a mask holding the pixels that stamps of the given
// radius at points would paint, clipped to within.
func DiscMask(points []geom.Point, radius int, within image.Rectangle) *Mask {
	var r image.Rectangle
	for _, p := range points {
		if box, ok := stampBox(p, radius); ok {
			r = r.Union(box)
		}
	}
	m := NewMask(r.Intersect(within))
	for _, p := range points {
		m.AddDisc(p, radius)
	}
	return m
}

func (m *Mask) Bounds() image.Rectangle {
	return m.img.Rect
}

// AddDisc sets the pixels a stamp of the given radius at p would paint.
func (m *Mask) AddDisc(p geom.Point, radius int) {
	box, ok := stampBox(p, radius)
	if !ok {
		return
	}
	box = box.Intersect(m.img.Rect)
	half := 0.5 * float64(radius)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if geom.Contains(p, half, geom.Pt(float64(x), float64(y))) {
				m.img.SetAlpha(x, y, color.Alpha{A: math.MaxUint8})
			}
		}
	}
}

func (m *Mask) Has(x, y int) bool {
	return m.img.AlphaAt(x, y).A != 0
}

// Empty reports whether no pixel is set.
func (m *Mask) Empty() bool {
	for _, a := range m.img.Pix {
		if a != 0 {
			return false
		}
	}
	return true
}
