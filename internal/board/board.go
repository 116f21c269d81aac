// Package board assembles a drawing session from configuration.
package board

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"InkBoard/internal/config"
	"InkBoard/internal/metrics"
	"InkBoard/internal/raster"
	"InkBoard/internal/session"
	"InkBoard/internal/state"
	"InkBoard/internal/tool"
)

// Board bundles one canvas with everything needed to draw on it.
type Board struct {
	Pixmap   *raster.Pixmap
	Store    *state.Store
	Selector *tool.Selector
	Session  *session.Session
}

func New(cfg config.Config, logger *slog.Logger, m *metrics.Recorder) (*Board, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sel, err := cfg.Selector()
	if err != nil {
		return nil, err
	}
	interp, err := cfg.Interpolator()
	if err != nil {
		return nil, err
	}

	pm := raster.NewPixmap(cfg.Canvas.Width, cfg.Canvas.Height)
	pm.Clear(cfg.Background())
	store := state.NewStore(logger)
	s := session.New(raster.NewCompositor(pm, m), store, sel, session.Options{
		Interpolator: interp,
		Background:   cfg.Background(),
		Logger:       logger,
		Metrics:      m,
	})
	return &Board{Pixmap: pm, Store: store, Selector: sel, Session: s}, nil
}

// Script is a recorded list of pointer events, optionally interleaved
// with tool changes.
type Script struct {
	Steps []Step `json:"steps"`
}

// Step is either a pointer event or a tool switch ("brush", "eraser-point",
// "eraser-line"). A down event may also carry its own tool.
type Step struct {
	session.Event
	Select string `json:"select,omitempty"`
}

// Replay decodes a Script from r and applies it to the board.
func (b *Board) Replay(r io.Reader) error {
	var sc Script
	if err := json.NewDecoder(r).Decode(&sc); err != nil {
		return fmt.Errorf("decoding script: %w", err)
	}
	for i, st := range sc.Steps {
		if st.Select != "" {
			if err := b.selectTool(st.Select); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
			continue
		}
		if err := b.Session.Handle(st.Event); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (b *Board) selectTool(name string) error {
	switch name {
	case "brush":
		b.Selector.SelectBrush()
	case "eraser-point":
		b.Selector.SelectEraser()
		b.Selector.SetGranularity(tool.PointErase)
	case "eraser-line":
		b.Selector.SelectEraser()
		b.Selector.SetGranularity(tool.LineErase)
	default:
		return fmt.Errorf("unknown tool %q", name)
	}
	return nil
}
