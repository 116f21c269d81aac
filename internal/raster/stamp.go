package raster

import (
	"image"
	"math"

	"InkBoard/internal/geom"
	"InkBoard/internal/metrics"
	"InkBoard/internal/tool"
)

// Compositor paints hard-edged discs onto a Surface.
type Compositor struct {
	surface Surface
	metrics *metrics.Recorder
}

func NewCompositor(s Surface, m *metrics.Recorder) *Compositor {
	return &Compositor{surface: s, metrics: m}
}

func (c *Compositor) Surface() Surface {
	return c.surface
}

// Stamp overwrites every pixel q with distance(p, q) < t.Radius/2 with the
// tool colour. The box read from the surface is anchored at
// round(p) - floor(Radius/2) and has one pixel of slack on the far side so
// that fractional points are fully covered. Parts of the box outside the
// surface are skipped.
func (c *Compositor) Stamp(p geom.Point, t tool.Tool) {
	c.stamp(p, t, nil)
}

// StampMasked is Stamp restricted to the pixels set in m.
func (c *Compositor) StampMasked(p geom.Point, t tool.Tool, m *Mask) {
	if m == nil {
		return
	}
	c.stamp(p, t, m)
}

func (c *Compositor) stamp(p geom.Point, t tool.Tool, m *Mask) {
	box, ok := stampBox(p, t.Radius)
	if !ok {
		return
	}
	if m != nil {
		box = box.Intersect(m.Bounds())
	}
	if box.Empty() {
		return
	}
	buf := c.surface.ReadRegion(box.Min.X, box.Min.Y, box.Dx(), box.Dy())
	r := buf.Rect
	if r.Empty() {
		return
	}

	radius := 0.5 * float64(t.Radius)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if m != nil && !m.Has(x, y) {
				continue
			}
			if geom.Contains(p, radius, geom.Pt(float64(x), float64(y))) {
				buf.SetNRGBA(x, y, t.Color)
			}
		}
	}
	c.surface.WriteRegion(r.Min.X, r.Min.Y, buf)
	c.metrics.Stamp(t.Kind.String())
}

// stampBox returns the pixel box a stamp of the given radius at p may
// touch, or false when nothing can be painted.
func stampBox(p geom.Point, radius int) (image.Rectangle, bool) {
	if radius <= 0 || !inRange(p.X) || !inRange(p.Y) {
		return image.Rectangle{}, false
	}
	x0 := int(math.Round(p.X)) - radius/2
	y0 := int(math.Round(p.Y)) - radius/2
	return image.Rect(x0, y0, x0+radius+1, y0+radius+1), true
}

// maxCoord keeps rounded coordinates well inside int range.
const maxCoord = 1 << 24

func inRange(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= maxCoord
}
