package ui

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"InkBoard/internal/export"
	"InkBoard/internal/tool"
)

type colorSwatch struct {
	widget.BaseWidget
	Color    color.NRGBA
	OnTapped func(color.NRGBA)
}

func newColorSwatch(c color.NRGBA, tapped func(color.NRGBA)) *colorSwatch {
	s := &colorSwatch{Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Color)
	}
}

// palette offered next to the tools
var palette = []color.NRGBA{
	{A: 255},
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{R: 255, G: 255, A: 255},
}

// NewToolbar binds tool selection, brush style and export to board.
func NewToolbar(board *BoardWidget, sel *tool.Selector, win fyne.Window) fyne.CanvasObject {
	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			sel.SelectBrush()
			board.SetStatus("Brush")
		}),
		widget.NewToolbarAction(theme.ContentRemoveIcon(), func() {
			sel.SelectEraser()
			sel.SetGranularity(tool.PointErase)
			board.SetStatus("Eraser: pixels")
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			sel.SelectEraser()
			sel.SetGranularity(tool.LineErase)
			board.SetStatus("Eraser: strokes")
		}),
		widget.NewToolbarSeparator(),
		widget.NewToolbarAction(theme.ContentClearIcon(), board.Clear),
		widget.NewToolbarAction(theme.DocumentSaveIcon(), func() {
			saveSnapshot(board, win)
		}),
	)

	onColorTapped := func(c color.NRGBA) {
		brush := sel.Brush()
		brush.Color = c
		if err := sel.SetBrush(brush); err != nil {
			board.SetStatus(err.Error())
			return
		}
		sel.SelectBrush()
	}
	colorBox := container.NewHBox()
	for _, c := range palette {
		colorBox.Add(newColorSwatch(c, onColorTapped))
	}

	sizeSlider := widget.NewSlider(1, 50)
	sizeSlider.SetValue(float64(sel.Brush().Radius))
	sizeSlider.OnChanged = func(v float64) {
		brush := sel.Brush()
		brush.Radius = int(v)
		if err := sel.SetBrush(brush); err != nil {
			board.SetStatus(err.Error())
		}
	}
	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), sizeSlider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		colorBox,
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
	)
}

func saveSnapshot(board *BoardWidget, win fyne.Window) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			board.SetStatus("Save failed: " + err.Error())
			return
		}
		if writer == nil {
			return
		}
		defer writer.Close()
		if err := export.WritePNG(writer, board.Snapshot()); err != nil {
			board.SetStatus("Save failed: " + err.Error())
			return
		}
		board.SetStatus(fmt.Sprintf("Saved %s", writer.URI().Name()))
	}, win)
	d.SetFileName(fmt.Sprintf("inkboard-%s.png", time.Now().Format("20060102-150405")))
	d.Show()
}
