// Package export writes raster snapshots of the board.
package export

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/bmp"
)

// WritePNG encodes img as PNG.
func WritePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// WriteBMP encodes img as a 32-bit BMP, keeping the alpha channel.
func WriteBMP(w io.Writer, img image.Image) error {
	return bmp.Encode(w, img)
}

// pxToMM converts at 96 dpi.
const pxToMM = 25.4 / 96

// WritePDF embeds img on a single page sized to the image. The snapshot is
// raster: zooming the PDF shows the same pixels.
func WritePDF(path string, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	b := img.Bounds()
	w, h := float64(b.Dx())*pxToMM, float64(b.Dy())*pxToMM
	orientation := "P"
	if w > h {
		orientation = "L"
	}
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	p.RegisterImageOptionsReader("snapshot", opts, &buf)
	p.ImageOptions("snapshot", 0, 0, w, h, false, opts, 0, "")
	if err := p.Error(); err != nil {
		return fmt.Errorf("building pdf: %w", err)
	}
	return p.OutputFileAndClose(path)
}

// WriteFile picks the encoder from the file extension (.png, .bmp, .pdf).
func WriteFile(path string, img image.Image) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return WritePDF(path, img)
	}

	var encode func(io.Writer, image.Image) error
	switch ext {
	case ".png":
		encode = WritePNG
	case ".bmp":
		encode = WriteBMP
	default:
		return fmt.Errorf("unsupported export format %q", ext)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
