// Package curve turns a window of four raw pointer samples into a dense
// polyline that follows the cubic Bézier curve they define.
package curve

import (
	"errors"
	"fmt"

	"InkBoard/internal/geom"
)

const (
	// DefaultDepth yields 32 points per window.
	DefaultDepth = 5
	// MaxDepth bounds the output at 65536 points per window.
	MaxDepth = 16
	// DefaultStep is the parameter increment used by Parametric.
	DefaultStep = 0.03
	// MinStep and MaxStep bound the Parametric step: below MinStep the
	// output grows without use, above MaxStep samples drift further apart
	// than a brush radius.
	MinStep = 0.001
	MaxStep = 0.25
)

var (
	// ErrUnknownMethod is returned by New for an unrecognised method name.
	ErrUnknownMethod = errors.New("unknown interpolation method")
	ErrInvalidStep   = errors.New("parametric step out of range")
)

// Interpolator approximates the cubic Bézier curve with control points
// p1..p4, given oldest to newest. The returned points run from the p1 end
// towards the p4 end. Implementations are pure.
type Interpolator interface {
	Interpolate(p1, p2, p3, p4 geom.Point) []geom.Point
}

// New builds an interpolator by name ("casteljau" or "parametric").
func New(method string, depth int, step float64) (Interpolator, error) {
	switch method {
	case "", "casteljau":
		return Casteljau{Depth: depth}, nil
	case "parametric":
		if err := CheckStep(step); err != nil {
			return nil, err
		}
		return Parametric{Step: step}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

// Eval evaluates the cubic Bézier curve at t.
func Eval(p1, p2, p3, p4 geom.Point, t float64) geom.Point {
	mt := 1 - t
	a := mt * mt * mt
	b := 3 * mt * mt * t
	c := 3 * mt * t * t
	d := t * t * t
	return geom.Point{
		X: a*p1.X + b*p2.X + c*p3.X + d*p4.X,
		Y: a*p1.Y + b*p2.Y + c*p3.Y + d*p4.Y,
	}
}

type cubic struct {
	p0, p1, p2, p3 geom.Point
}

// split divides the curve at t=0.5.
func (c cubic) split() (cubic, cubic) {
	p01 := c.p0.Lerp(c.p1, 0.5)
	p12 := c.p1.Lerp(c.p2, 0.5)
	p23 := c.p2.Lerp(c.p3, 0.5)
	p012 := p01.Lerp(p12, 0.5)
	p123 := p12.Lerp(p23, 0.5)
	mid := p012.Lerp(p123, 0.5)
	return cubic{c.p0, p01, p012, mid}, cubic{mid, p123, p23, c.p3}
}

// CheckStep accepts 0 (use DefaultStep) or a step in [MinStep, MaxStep].
func CheckStep(step float64) error {
	if step == 0 || (step >= MinStep && step <= MaxStep) {
		return nil
	}
	return fmt.Errorf("%w: %g not in [%g, %g]", ErrInvalidStep, step, MinStep, MaxStep)
}

// Casteljau subdivides the curve Depth times and emits the start point of
// every leaf, i.e. 2^Depth points at t = k/2^Depth. Depth <= 0 means
// DefaultDepth; depths above MaxDepth are clamped.
type Casteljau struct {
	Depth int
}

func (c Casteljau) depth() int {
	switch {
	case c.Depth <= 0:
		return DefaultDepth
	case c.Depth > MaxDepth:
		return MaxDepth
	}
	return c.Depth
}

// Interpolate implements Interpolator.
func (c Casteljau) Interpolate(p1, p2, p3, p4 geom.Point) []geom.Point {
	type item struct {
		seg   cubic
		level int
	}

	depth := c.depth()
	out := make([]geom.Point, 0, 1<<depth)
	stack := make([]item, 0, depth+1)
	stack = append(stack, item{seg: cubic{p1, p2, p3, p4}})

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if it.level == depth {
			out = append(out, it.seg.p0)
			continue
		}
		left, right := it.seg.split()
		// right first so that left is processed first
		stack = append(stack, item{right, it.level + 1}, item{left, it.level + 1})
	}
	return out
}

// Parametric samples the Bernstein form directly over [0, 1). Step <= 0
// means DefaultStep; other steps are clamped to [MinStep, MaxStep].
type Parametric struct {
	Step float64
}

// Interpolate implements Interpolator.
func (p Parametric) Interpolate(p1, p2, p3, p4 geom.Point) []geom.Point {
	step := p.Step
	switch {
	case step <= 0:
		step = DefaultStep
	case step < MinStep:
		step = MinStep
	case step > MaxStep:
		step = MaxStep
	}
	var out []geom.Point
	for i := 0; ; i++ {
		t := float64(i) * step
		if t >= 1 {
			break
		}
		out = append(out, Eval(p1, p2, p3, p4, t))
	}
	return out
}
