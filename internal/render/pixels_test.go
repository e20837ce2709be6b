package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func makeSolidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestNewPixelBuffer_DropsAlpha(t *testing.T) {
	src := makeSolidNRGBA(4, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	buf := newPixelBuffer(src)

	if buf.Width != 4 || buf.Height != 3 || buf.Stride != 12 {
		t.Fatalf("got %dx%d stride %d, want 4x3 stride 12", buf.Width, buf.Height, buf.Stride)
	}
	if len(buf.Pix) != 36 {
		t.Fatalf("len(Pix) = %d, want 36", len(buf.Pix))
	}
	if r, g, b := buf.RGBAt(3, 2); r != 10 || g != 20 || b != 30 {
		t.Fatalf("RGBAt(3, 2) = (%d, %d, %d), want (10, 20, 30)", r, g, b)
	}
	if r, g, b := buf.RGBAt(4, 0); r != 0 || g != 0 || b != 0 {
		t.Fatalf("RGBAt outside bounds = (%d, %d, %d), want zeros", r, g, b)
	}
}

func TestNewPixelBuffer_GenericImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 2, 2))
	src.SetGray(1, 1, color.Gray{Y: 200})

	buf := newPixelBuffer(src)
	if r, g, b := buf.RGBAt(1, 1); r != 200 || g != 200 || b != 200 {
		t.Fatalf("RGBAt(1, 1) = (%d, %d, %d), want gray 200", r, g, b)
	}
}

func TestInvert_NegatesChannels(t *testing.T) {
	src := makeSolidNRGBA(2, 2, color.NRGBA{R: 0, G: 100, B: 255, A: 255})
	buf := newPixelBuffer(invert(src))

	if r, g, b := buf.RGBAt(0, 0); r != 255 || g != 155 || b != 0 {
		t.Fatalf("inverted = (%d, %d, %d), want (255, 155, 0)", r, g, b)
	}
}

func TestPixelBuffer_EncodePNG(t *testing.T) {
	buf := newPixelBuffer(makeSolidNRGBA(5, 7, color.NRGBA{R: 1, G: 2, B: 3, A: 255}))

	var out bytes.Buffer
	if err := buf.EncodePNG(&out); err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	img, err := png.Decode(&out)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 5 || img.Bounds().Dy() != 7 {
		t.Fatalf("decoded %v, want 5x7", img.Bounds())
	}
	r, g, b, a := img.At(2, 2).RGBA()
	if r>>8 != 1 || g>>8 != 2 || b>>8 != 3 || a>>8 != 255 {
		t.Fatalf("decoded pixel = (%d, %d, %d, %d)", r>>8, g>>8, b>>8, a>>8)
	}
}

func TestPixelBuffer_WritePNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.png")
	buf := newPixelBuffer(makeSolidNRGBA(3, 3, color.NRGBA{A: 255}))

	if err := buf.WritePNG(path); err != nil {
		t.Fatalf("WritePNG() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("image not written: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestFitWidth(t *testing.T) {
	src := makeSolidNRGBA(301, 425, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	tests := []struct {
		name  string
		width int
	}{
		{"unchanged", 301},
		{"crop one pixel", 300},
		{"crop two pixels", 299},
		{"shrink", 150},
		{"grow", 320},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newPixelBuffer(fitWidth(src, tt.width))
			if got.Width != tt.width {
				t.Fatalf("width = %d, want %d", got.Width, tt.width)
			}
			r, g, b := got.RGBAt(got.Width/2, got.Height/2)
			if absDiff(r, 200) > 1 || absDiff(g, 100) > 1 || absDiff(b, 50) > 1 {
				t.Fatalf("center pixel = (%d, %d, %d), want about (200, 100, 50)", r, g, b)
			}
		})
	}

	if cropped := fitWidth(src, 300); cropped.Bounds().Dy() != 425 {
		t.Fatalf("crop changed height to %d", cropped.Bounds().Dy())
	}
	if same := fitWidth(src, 301); same != image.Image(src) {
		t.Fatal("fitWidth should return the raster untouched when the width matches")
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}
