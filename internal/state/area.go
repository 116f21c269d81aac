package state

import "InkBoard/internal/geom"

// Area is an axis-aligned rectangle on the canvas.
type Area struct {
	Min, Max geom.Point
}

// BoundsOf returns the bounding box of points. The zero Area is returned
// for an empty slice.
func BoundsOf(points []geom.Point) Area {
	if len(points) == 0 {
		return Area{}
	}
	a := Area{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		if p.X < a.Min.X {
			a.Min.X = p.X
		}
		if p.X > a.Max.X {
			a.Max.X = p.X
		}
		if p.Y < a.Min.Y {
			a.Min.Y = p.Y
		}
		if p.Y > a.Max.Y {
			a.Max.Y = p.Y
		}
	}
	return a
}

// Pad grows the area by padding on every side.
func (a Area) Pad(padding float64) Area {
	return Area{
		Min: geom.Pt(a.Min.X-padding, a.Min.Y-padding),
		Max: geom.Pt(a.Max.X+padding, a.Max.Y+padding),
	}
}

func (a Area) Contains(p geom.Point) bool {
	return p.X >= a.Min.X && p.X <= a.Max.X &&
		p.Y >= a.Min.Y && p.Y <= a.Max.Y
}

func (a Area) Overlaps(b Area) bool {
	return !(a.Max.X < b.Min.X || b.Max.X < a.Min.X ||
		a.Max.Y < b.Min.Y || b.Max.Y < a.Min.Y)
}
