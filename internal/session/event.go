package session

import (
	"errors"
	"fmt"

	"InkBoard/internal/geom"
	"InkBoard/internal/tool"
)

var (
	ErrUnknownEvent = errors.New("unknown pointer event")
	ErrMissingPoint = errors.New("pointer down without a position")
)

type EventKind string

const (
	EventDown   EventKind = "down"
	EventMove   EventKind = "move"
	EventUp     EventKind = "up"
	EventOut    EventKind = "out"
	EventCancel EventKind = "cancel"
	// EventClear wipes the board; it carries no pointer.
	EventClear EventKind = "clear"
)

// Event is a pointer event as delivered by an input source. Move events
// may carry several coalesced samples.
type Event struct {
	Kind    EventKind    `json:"type"`
	Pointer int          `json:"pointer"`
	Points  []geom.Point `json:"points,omitempty"`

	// Tool and Granularity, when set on a down event, replace the
	// session's tool provider for that gesture.
	Tool        *tool.Tool        `json:"tool,omitempty"`
	Granularity *tool.Granularity `json:"granularity,omitempty"`
}

// Handle dispatches ev to the matching pointer handler.
func (s *Session) Handle(ev Event) error {
	switch ev.Kind {
	case EventDown:
		if len(ev.Points) == 0 {
			return ErrMissingPoint
		}
		t, g := s.tools.CurrentTool(), s.tools.EraseGranularity()
		if ev.Tool != nil {
			t = *ev.Tool
		}
		if ev.Granularity != nil {
			g = *ev.Granularity
		}
		if err := s.PointerDownWith(ev.Pointer, ev.Points[0], t, g); err != nil {
			return err
		}
		if len(ev.Points) > 1 {
			s.PointerMove(ev.Pointer, ev.Points[1:]...)
		}
	case EventMove:
		s.PointerMove(ev.Pointer, ev.Points...)
	case EventUp:
		s.PointerUp(ev.Pointer)
	case EventOut:
		s.PointerOut(ev.Pointer)
	case EventCancel:
		s.PointerCancel(ev.Pointer)
	case EventClear:
		s.Clear()
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Kind)
	}
	return nil
}
