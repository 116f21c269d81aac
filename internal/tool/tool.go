// Package tool describes the paint styles a gesture can use.
package tool

import (
	"errors"
	"fmt"
	"image/color"
	"sync"
)

var (
	ErrInvalidRadius      = errors.New("tool radius must be positive")
	ErrUnknownKind        = errors.New("unknown tool kind")
	ErrUnknownGranularity = errors.New("unknown erase granularity")
)

// Kind tags a Tool as a brush or an eraser.
type Kind int

const (
	Brush Kind = iota
	Eraser
)

func (k Kind) String() string {
	switch k {
	case Brush:
		return "brush"
	case Eraser:
		return "eraser"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if k != Brush && k != Eraser {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "brush":
		*k = Brush
	case "eraser":
		*k = Eraser
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, text)
	}
	return nil
}

// Granularity selects what the eraser removes.
type Granularity int

const (
	// PointErase only blanks pixels; stored strokes are untouched.
	PointErase Granularity = iota
	// LineErase removes every stored stroke the eraser touches.
	LineErase
)

func (g Granularity) String() string {
	if g == LineErase {
		return "line"
	}
	return "point"
}

// ParseGranularity accepts "point" or "line".
func ParseGranularity(s string) (Granularity, error) {
	switch s {
	case "point":
		return PointErase, nil
	case "line":
		return LineErase, nil
	}
	return PointErase, fmt.Errorf("%w: %q", ErrUnknownGranularity, s)
}

func (g Granularity) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

func (g *Granularity) UnmarshalText(text []byte) error {
	v, err := ParseGranularity(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Tool is one paint or erase style. Color is straight (non-premultiplied).
type Tool struct {
	Kind   Kind        `json:"kind"`
	Color  color.NRGBA `json:"color"`
	Radius int         `json:"radius"`
}

// Validate rejects tools that must never reach a stroke.
func (t Tool) Validate() error {
	if t.Kind != Brush && t.Kind != Eraser {
		return fmt.Errorf("%w: %d", ErrUnknownKind, int(t.Kind))
	}
	if t.Radius <= 0 {
		return fmt.Errorf("%s: %w (got %d)", t.Kind, ErrInvalidRadius, t.Radius)
	}
	return nil
}

// DefaultBrush is opaque black with radius 10.
func DefaultBrush() Tool {
	return Tool{Kind: Brush, Color: color.NRGBA{A: 255}, Radius: 10}
}

// DefaultEraser is fully transparent with radius 30, revealing whatever is
// behind the canvas.
func DefaultEraser() Tool {
	return Tool{Kind: Eraser, Color: color.NRGBA{}, Radius: 30}
}

// Provider exposes the tool the user currently has selected.
type Provider interface {
	CurrentTool() Tool
	EraseGranularity() Granularity
}

// Selector is the Provider used by front-ends. It is safe for concurrent use.
type Selector struct {
	mu          sync.RWMutex
	brush       Tool
	eraser      Tool
	active      Kind
	granularity Granularity
}

var _ Provider = (*Selector)(nil)

func NewSelector(brush, eraser Tool, g Granularity) (*Selector, error) {
	s := &Selector{active: Brush, granularity: g}
	if err := s.SetBrush(brush); err != nil {
		return nil, err
	}
	if err := s.SetEraser(eraser); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Selector) CurrentTool() Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == Eraser {
		return s.eraser
	}
	return s.brush
}

func (s *Selector) EraseGranularity() Granularity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.granularity
}

func (s *Selector) Brush() Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.brush
}

func (s *Selector) Eraser() Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eraser
}

func (s *Selector) SelectBrush() {
	s.mu.Lock()
	s.active = Brush
	s.mu.Unlock()
}

func (s *Selector) SelectEraser() {
	s.mu.Lock()
	s.active = Eraser
	s.mu.Unlock()
}

func (s *Selector) SetGranularity(g Granularity) {
	s.mu.Lock()
	s.granularity = g
	s.mu.Unlock()
}

// SetBrush replaces the brush style. The kind is forced to Brush.
func (s *Selector) SetBrush(t Tool) error {
	t.Kind = Brush
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.brush = t
	s.mu.Unlock()
	return nil
}

// SetEraser replaces the eraser style. The kind is forced to Eraser.
func (s *Selector) SetEraser(t Tool) error {
	t.Kind = Eraser
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.eraser = t
	s.mu.Unlock()
	return nil
}
