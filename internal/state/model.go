package state

import (
	"time"

	"InkBoard/internal/geom"
	"InkBoard/internal/tool"
)

// Stroke is one committed brush gesture.
type Stroke struct {
	ID        string       `json:"id"`
	Points    []geom.Point `json:"points"`
	Tool      tool.Tool    `json:"tool"`
	CreatedAt time.Time    `json:"created_at"`

	bounds Area
}

// Bounds is the axis-aligned box around the stroke's points.
func (s Stroke) Bounds() Area {
	return s.bounds
}

type OpType string

const (
	OpInsertStroke OpType = "insert_stroke"
	OpDeleteStroke OpType = "delete_stroke"
)

// Op is a change to the store, as broadcast to peers.
type Op struct {
	Type    OpType  `json:"type"`
	Stroke  *Stroke `json:"stroke,omitempty"`
	Target  string  `json:"target,omitempty"` // ID of stroke to delete
	Lamport uint64  `json:"lamport"`
	Site    string  `json:"site"`
}
