package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"

	"InkBoard/internal/raster"
	"InkBoard/internal/session"
	"InkBoard/internal/state"
	"InkBoard/internal/tool"
)

// Window is a desktop window around one board.
type Window struct {
	App    fyne.App
	Window fyne.Window
	Board  *BoardWidget
}

// NewWindow lays out the board and its toolbar. Input goes to in; pm and
// store are what the window shows.
func NewWindow(in Input, pm *raster.Pixmap, store *state.Store, sel *tool.Selector) *Window {
	myApp := app.New()
	myWindow := myApp.NewWindow("InkBoard")
	myWindow.Resize(fyne.NewSize(float32(pm.Width()), float32(pm.Height())))

	board := NewBoardWidget(in, pm, store)
	toolbar := NewToolbar(board, sel, myWindow)

	content := container.NewBorder(toolbar, board.Status(), nil, nil, board)
	myWindow.SetContent(content)
	return &Window{App: myApp, Window: myWindow, Board: board}
}

// RunApp opens a window drawing locally on s and blocks until it is closed.
func RunApp(s *session.Session, pm *raster.Pixmap, sel *tool.Selector) {
	w := NewWindow(s, pm, s.Store(), sel)
	w.Board.OnClear = s.Clear
	w.Window.ShowAndRun()
}
