package render

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/gen2brain/go-fitz"
)

const (
	// DefaultThumbnailWidth is the pixel width of generated cover thumbnails.
	DefaultThumbnailWidth = 200

	// pointsPerInch converts a render scale into the DPI MuPDF expects.
	pointsPerInch = 72.0

	// pdfHeaderWindow is how far into a file the %PDF- marker may appear.
	pdfHeaderWindow = 1024
)

var pdfMagic = []byte("%PDF-")

// Options configures an Engine.
type Options struct {
	ThumbnailWidth int
	Logger         *slog.Logger
}

// Engine wraps a single PDF document session. It is either Closed or holds
// exactly one open document. An Engine must not be shared across goroutines.
type Engine struct {
	doc        *fitz.Document
	path       string
	thumbWidth int
	logger     *slog.Logger
}

// NewEngine creates a closed engine.
func NewEngine(opts Options) *Engine {
	width := opts.ThumbnailWidth
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{thumbWidth: width, logger: logger}
}

// Open opens path as the engine's document, releasing any previously open one.
// Failures are returned as *DecodeError.
func (e *Engine) Open(path string) error {
	e.Close()

	doc, err := openDocument(path)
	if err != nil {
		return err
	}
	e.doc = doc
	e.path = path
	e.logger.Debug("document opened", "path", path, "pages", doc.NumPage())
	return nil
}

// Close releases the open document. Closing a closed engine is a no-op.
func (e *Engine) Close() {
	if e.doc == nil {
		return
	}
	if err := e.doc.Close(); err != nil {
		e.logger.Warn("failed to close document", "path", e.path, "error", err)
	}
	e.doc = nil
	e.path = ""
}

// IsOpen reports whether a document is open.
func (e *Engine) IsOpen() bool {
	return e.doc != nil
}

// Path returns the path of the open document, or "" when closed.
func (e *Engine) Path() string {
	return e.path
}

// TotalPages returns the page count of the open document, or 0 when closed.
func (e *Engine) TotalPages() int {
	if e.doc == nil {
		return 0
	}
	return e.doc.NumPage()
}

// PageSize returns the width and height in points of the 0-based page,
// rounded to whole points as MuPDF reports page bounds.
// It returns (0, 0) when closed or when the index is invalid; callers treat
// that as "cannot render".
func (e *Engine) PageSize(index int) (width, height float64) {
	if e.doc == nil {
		return 0, 0
	}
	return pageSize(e.doc, index)
}

// PageImage rasterizes the 0-based page so that its width is exactly
// int(availableWidth*zoom) pixels. With invert set every channel is negated.
// It returns nil, nil when the engine is closed.
func (e *Engine) PageImage(index int, zoom float64, availableWidth int, invertColors bool) (*PixelBuffer, error) {
	if e.doc == nil {
		return nil, nil
	}

	pageWidth, _ := pageSize(e.doc, index)
	if pageWidth == 0 {
		return nil, fmt.Errorf("page %d: %w", index, ErrPageOutOfRange)
	}

	targetWidth := int(float64(availableWidth) * zoom)
	if targetWidth <= 0 {
		return nil, fmt.Errorf("invalid target width %d for zoom %.2f", targetWidth, zoom)
	}
	scale := float64(targetWidth) / pageWidth

	img, err := e.doc.ImageDPI(index, scale*pointsPerInch)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", index, err)
	}

	fitted := fitWidth(img, targetWidth)
	if invertColors {
		return newPixelBuffer(invert(fitted)), nil
	}
	return newPixelBuffer(fitted), nil
}

// PageCount opens pdfPath on its own short-lived handle and returns its page
// count. The engine's main session is not touched.
func (e *Engine) PageCount(pdfPath string) (int, error) {
	doc, err := openDocument(pdfPath)
	if err != nil {
		return 0, err
	}
	defer doc.Close()
	return doc.NumPage(), nil
}

// CreateThumbnail renders the first page of pdfPath at the thumbnail width and
// writes it as a PNG to outPath. It uses its own document handle, so the main
// session is left untouched. Every failure is logged and reported as false.
func (e *Engine) CreateThumbnail(pdfPath, outPath string) bool {
	if err := e.writeThumbnail(pdfPath, outPath); err != nil {
		e.logger.Warn("thumbnail generation failed", "path", pdfPath, "cover", outPath, "error", err)
		return false
	}
	e.logger.Debug("thumbnail written", "path", pdfPath, "cover", outPath)
	return true
}

func (e *Engine) writeThumbnail(pdfPath, outPath string) error {
	doc, err := openDocument(pdfPath)
	if err != nil {
		return err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return &DecodeError{Path: pdfPath, Err: ErrNoPages}
	}
	pageWidth, _ := pageSize(doc, 0)
	if pageWidth == 0 {
		return fmt.Errorf("first page has no width")
	}

	scale := float64(e.thumbWidth) / pageWidth
	img, err := doc.ImageDPI(0, scale*pointsPerInch)
	if err != nil {
		return fmt.Errorf("failed to render cover: %w", err)
	}
	return newPixelBuffer(fitWidth(img, e.thumbWidth)).WritePNG(outPath)
}

// openDocument checks that path exists and looks like a PDF before handing it
// to MuPDF, which would otherwise accept other document formats too.
func openDocument(path string) (*fitz.Document, error) {
	if err := checkPDFHeader(path); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	doc, err := fitz.New(path)
	if err != nil {
		switch {
		case errors.Is(err, fitz.ErrNeedsPassword):
			err = ErrEncrypted
		case errors.Is(err, fitz.ErrNoSuchFile):
			err = ErrNotFound
		}
		return nil, &DecodeError{Path: path, Err: err}
	}
	return doc, nil
}

func checkPDFHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	defer f.Close()

	head := make([]byte, pdfHeaderWindow)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	if !bytes.Contains(head[:n], pdfMagic) {
		return ErrNotPDF
	}
	return nil
}

func pageSize(doc *fitz.Document, index int) (float64, float64) {
	if index < 0 || index >= doc.NumPage() {
		return 0, 0
	}
	bound, err := doc.Bound(index)
	if err != nil {
		return 0, 0
	}
	return float64(bound.Dx()), float64(bound.Dy())
}
