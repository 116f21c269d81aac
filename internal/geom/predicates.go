package geom

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return a.Distance(b)
}

// Contains reports whether p lies strictly inside the circle at center.
// Points exactly on the boundary are outside.
func Contains(center Point, radius float64, p Point) bool {
	return Distance(center, p) < radius
}

// CirclesIntersect reports whether two circles overlap. Two zero-radius
// circles intersect only when their centers coincide.
func CirclesIntersect(c1 Point, r1 float64, c2 Point, r2 float64) bool {
	if r1+r2 == 0 {
		return c1 == c2
	}
	return Distance(c1, c2) < r1+r2
}
