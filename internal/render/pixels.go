package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const bytesPerPixel = 3

// PixelBuffer is an RGB raster with 8 bits per channel and no alpha.
// Row y starts at Pix[y*Stride].
type PixelBuffer struct {
	Width  int
	Height int
	Stride int
	Pix    []uint8
}

// newPixelBuffer flattens src onto RGB. Rasters coming from MuPDF are opaque,
// so alpha is dropped without compositing.
func newPixelBuffer(src image.Image) *PixelBuffer {
	b := src.Bounds()
	buf := &PixelBuffer{
		Width:  b.Dx(),
		Height: b.Dy(),
		Stride: b.Dx() * bytesPerPixel,
	}
	buf.Pix = make([]uint8, buf.Stride*buf.Height)

	switch img := src.(type) {
	case *image.RGBA:
		packRGB(buf, img.Pix, img.Stride)
	case *image.NRGBA:
		packRGB(buf, img.Pix, img.Stride)
	default:
		for y := 0; y < buf.Height; y++ {
			for x := 0; x < buf.Width; x++ {
				r, g, bl, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := y*buf.Stride + x*bytesPerPixel
				buf.Pix[i] = uint8(r >> 8)
				buf.Pix[i+1] = uint8(g >> 8)
				buf.Pix[i+2] = uint8(bl >> 8)
			}
		}
	}
	return buf
}

func packRGB(dst *PixelBuffer, pix []uint8, stride int) {
	for y := 0; y < dst.Height; y++ {
		row := pix[y*stride:]
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < dst.Width; x++ {
			copy(out[x*bytesPerPixel:x*bytesPerPixel+bytesPerPixel], row[x*4:x*4+bytesPerPixel])
		}
	}
}

// ColorModel implements image.Image.
func (p *PixelBuffer) ColorModel() color.Model {
	return color.RGBAModel
}

// Bounds implements image.Image.
func (p *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.Width, p.Height)
}

// At implements image.Image.
func (p *PixelBuffer) At(x, y int) color.Color {
	r, g, b := p.RGBAt(x, y)
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// RGBAt returns the channels of the pixel at (x, y), or zeros outside the raster.
func (p *PixelBuffer) RGBAt(x, y int) (r, g, b uint8) {
	if !(image.Point{X: x, Y: y}).In(p.Bounds()) {
		return 0, 0, 0
	}
	i := y*p.Stride + x*bytesPerPixel
	return p.Pix[i], p.Pix[i+1], p.Pix[i+2]
}

// EncodePNG writes the raster as a PNG image.
func (p *PixelBuffer) EncodePNG(w io.Writer) error {
	return imaging.Encode(w, p, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression))
}

// WritePNG writes the raster to path through a temporary file in the same
// directory, so a failed write never leaves a truncated image behind.
func (p *PixelBuffer) WritePNG(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".render-*.png")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpPath)
	}()

	if err := p.EncodePNG(tmp); err != nil {
		return fmt.Errorf("png encode failed: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp image: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename image: %w", err)
	}
	return nil
}

// maxCropOvershoot is the widest raster, in pixels past the target, that
// fitWidth trims instead of resampling.
const maxCropOvershoot = 2

// fitWidth returns img at exactly width pixels. Page bounds are whole points,
// so a page with a fractional width comes back from MuPDF a pixel wider than
// asked. Such small overshoots are cropped on the right; any other mismatch
// is resampled keeping the aspect ratio.
func fitWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	d := b.Dx() - width
	switch {
	case d == 0:
		return img
	case d > 0 && d <= maxCropOvershoot:
		return imaging.Crop(img, image.Rect(b.Min.X, b.Min.Y, b.Min.X+width, b.Max.Y))
	default:
		return imaging.Resize(img, width, 0, imaging.Lanczos)
	}
}

// invert negates every color channel. This is the night reading mode, a plain
// negate rather than a perceptual transform.
func invert(img image.Image) image.Image {
	return imaging.Invert(img)
}
