package net

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"InkBoard/internal/geom"
	"InkBoard/internal/logging"
	"InkBoard/internal/session"
	"InkBoard/internal/state"
	"InkBoard/internal/tool"
)

// Remote is a connection to another board's Hub. Pointer input is sent to
// the host; the host's strokes are mirrored into a local store.
type Remote struct {
	conn   *websocket.Conn
	store  *state.Store
	logger *slog.Logger
	wmu    sync.Mutex

	// OnChange runs after the mirrored store changed.
	OnChange func()
	// Tools, when set, is sent with every down event so the host draws
	// with the local selection.
	Tools tool.Provider
	// Preview, when set, also receives the local pointer events so the
	// gesture shows up before the host commits it.
	Preview *session.Session
}

// Dial connects to the hub at url and mirrors into store.
func Dial(ctx context.Context, url string, store *state.Store, logger *slog.Logger) (*Remote, error) {
	if logger == nil {
		logger = logging.Nop()
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", url, err)
	}
	logger.Info("[remote] connected", "url", url, "local", conn.LocalAddr().String())
	return &Remote{conn: conn, store: store, logger: logger}, nil
}

// Run applies host messages until the connection drops or ctx is done.
func (r *Remote) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { r.conn.Close() })
	defer stop()
	defer r.conn.Close()

	for {
		var msg Message
		if err := r.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading from host: %w", err)
		}
		if r.apply(msg) && r.OnChange != nil {
			r.OnChange()
		}
	}
}

func (r *Remote) apply(msg Message) bool {
	switch msg.Type {
	case MessageSnapshot:
		r.store.Clear()
		for i := range msg.Strokes {
			r.store.Apply(state.Op{Type: state.OpInsertStroke, Stroke: &msg.Strokes[i]})
		}
		return true
	case MessageOp:
		if msg.Op == nil {
			return false
		}
		return r.store.Apply(*msg.Op)
	case MessageError:
		r.logger.Warn("[remote] host rejected event", "err", msg.Error)
	}
	return false
}

func (r *Remote) send(ev session.Event) {
	r.wmu.Lock()
	defer r.wmu.Unlock()
	if err := r.conn.WriteJSON(ev); err != nil {
		r.logger.Warn("[remote] failed to send event", "type", ev.Kind, "err", err)
	}
}

func (r *Remote) PointerDown(pointer int, p geom.Point) {
	ev := session.Event{Kind: session.EventDown, Pointer: pointer, Points: []geom.Point{p}}
	if r.Tools != nil {
		t, g := r.Tools.CurrentTool(), r.Tools.EraseGranularity()
		ev.Tool, ev.Granularity = &t, &g
	}
	if r.Preview != nil {
		r.Preview.PointerDown(pointer, p)
	}
	r.send(ev)
}

func (r *Remote) PointerMove(pointer int, pts ...geom.Point) {
	if r.Preview != nil {
		r.Preview.PointerMove(pointer, pts...)
	}
	r.send(session.Event{Kind: session.EventMove, Pointer: pointer, Points: pts})
}

func (r *Remote) PointerUp(pointer int) {
	if r.Preview != nil {
		r.Preview.PointerUp(pointer)
	}
	r.send(session.Event{Kind: session.EventUp, Pointer: pointer})
}

func (r *Remote) PointerOut(pointer int) {
	if r.Preview != nil {
		r.Preview.PointerOut(pointer)
	}
	r.send(session.Event{Kind: session.EventOut, Pointer: pointer})
}

// Clear asks the host to wipe the board.
func (r *Remote) Clear() {
	r.send(session.Event{Kind: session.EventClear})
}

func (r *Remote) Close() error {
	return r.conn.Close()
}
