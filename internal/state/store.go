// Package state holds the vector record of committed strokes.
package state

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"InkBoard/internal/geom"
	"InkBoard/internal/logging"
	"InkBoard/internal/tool"
)

// Store is the insertion-ordered collection of committed strokes. It is
// the authoritative record of what a brush-only re-render reproduces.
type Store struct {
	siteID  string
	clock   Clock
	strokes []*Stroke
	mu      sync.RWMutex
	logger  *slog.Logger

	// OnOp is called after every local change, outside the lock. It is
	// not called for ops merged through Apply.
	OnOp func(Op)
}

// NewStore creates an empty store with a fresh site ID. A nil logger
// disables logging.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Store{
		siteID: uuid.NewString(),
		logger: logger,
	}
}

func (s *Store) SiteID() string {
	return s.siteID
}

// Commit appends a copy of st, assigning an ID and timestamp when missing,
// and returns the stored value.
func (s *Store) Commit(st Stroke) Stroke {
	c := cloneStroke(st)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.strokes = append(s.strokes, c)
	out := *cloneStroke(*c)
	s.mu.Unlock()

	s.logger.Debug("[store] stroke committed", "id", out.ID, "points", len(out.Points))
	s.emit(Op{Type: OpInsertStroke, Stroke: cloneStroke(out)})
	return out
}

// Strokes returns copies of all strokes in insertion order.
func (s *Store) Strokes() []Stroke {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Stroke, 0, len(s.strokes))
	for _, st := range s.strokes {
		out = append(out, *cloneStroke(*st))
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.strokes)
}

// Get returns the stroke with the given ID.
func (s *Store) Get(id string) (Stroke, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.strokes {
		if st.ID == id {
			return *cloneStroke(*st), true
		}
	}
	return Stroke{}, false
}

// Clear removes every stroke, emitting one delete op per stroke.
func (s *Store) Clear() {
	s.mu.Lock()
	removed := s.strokes
	s.strokes = nil
	s.mu.Unlock()

	for _, st := range removed {
		s.emit(Op{Type: OpDeleteStroke, Target: st.ID})
	}
}

// EraseLine removes every stroke with at least one point whose circle of
// the stroke's radius intersects the eraser circle at p. The removed
// strokes are returned in their original order; the order of the
// remaining strokes is preserved.
func (s *Store) EraseLine(p geom.Point, eraser tool.Tool) []Stroke {
	s.mu.Lock()
	kept := s.strokes[:0:0]
	var removed []Stroke
	for _, st := range s.strokes {
		if touches(st, p, eraser) {
			removed = append(removed, *st)
			continue
		}
		kept = append(kept, st)
	}
	if len(removed) > 0 {
		s.strokes = kept
	}
	s.mu.Unlock()

	for _, st := range removed {
		s.logger.Debug("[store] stroke erased", "id", st.ID)
		s.emit(Op{Type: OpDeleteStroke, Target: st.ID})
	}
	return removed
}

func touches(st *Stroke, p geom.Point, eraser tool.Tool) bool {
	er := float64(eraser.Radius)
	sr := float64(st.Tool.Radius)
	if !st.bounds.Pad(er + sr).Contains(p) {
		return false
	}
	for _, q := range st.Points {
		if geom.CirclesIntersect(p, er, q, sr) {
			return true
		}
	}
	return false
}

// Apply merges an op received from a peer. It returns true when the store
// changed. Inserting a known ID or deleting an unknown one is a no-op.
func (s *Store) Apply(op Op) bool {
	s.clock.Update(op.Lamport)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch op.Type {
	case OpInsertStroke:
		if op.Stroke == nil {
			return false
		}
		for _, st := range s.strokes {
			if st.ID == op.Stroke.ID {
				s.logger.Debug("[store] stroke already exists, ignoring", "id", st.ID)
				return false
			}
		}
		s.strokes = append(s.strokes, cloneStroke(*op.Stroke))
		s.logger.Debug("[store] remote stroke added", "id", op.Stroke.ID, "site", op.Site)
		return true
	case OpDeleteStroke:
		for i, st := range s.strokes {
			if st.ID == op.Target {
				s.strokes = append(s.strokes[:i:i], s.strokes[i+1:]...)
				s.logger.Debug("[store] remote stroke removed", "id", op.Target, "site", op.Site)
				return true
			}
		}
	}
	return false
}

func (s *Store) emit(op Op) {
	op.Lamport = s.clock.Tick()
	op.Site = s.siteID
	if s.OnOp != nil {
		s.OnOp(op)
	}
}

func cloneStroke(st Stroke) *Stroke {
	c := st
	c.Points = append([]geom.Point(nil), st.Points...)
	c.bounds = BoundsOf(c.Points)
	return &c
}
