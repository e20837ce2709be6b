// Package reader holds the state of one reading session: the open book, the
// current page, the zoom level, night mode and the viewport it renders into.
package reader

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yuanying/pdflib/internal/render"
)

const (
	MaxZoom  = 4.0
	MinZoom  = 0.15
	ZoomStep = 0.1

	// DefaultMargin is subtracted from both viewport dimensions.
	DefaultMargin = 25
)

// ErrNotOpen is returned by Render when no book is open.
var ErrNotOpen = errors.New("no book is open")

// ProgressRecorder stores the reading position of a book.
type ProgressRecorder interface {
	UpdateLastPage(path string, page int) error
}

// Options configures a Session.
type Options struct {
	Engine   *render.Engine
	Progress ProgressRecorder
	// Margin in pixels; values <= 0 select DefaultMargin.
	Margin int
	Logger *slog.Logger
}

// Session drives a render.Engine the way a page viewer does.
type Session struct {
	engine   *render.Engine
	progress ProgressRecorder
	margin   int
	logger   *slog.Logger

	page   int
	total  int
	zoom   float64
	night  bool
	width  int
	height int
}

// NewSession creates a session with no book open. A nil Engine gets a fresh
// one with default options.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	engine := opts.Engine
	if engine == nil {
		engine = render.NewEngine(render.Options{Logger: logger})
	}
	margin := opts.Margin
	if margin <= 0 {
		margin = DefaultMargin
	}
	return &Session{
		engine:   engine,
		progress: opts.Progress,
		margin:   margin,
		logger:   logger,
		zoom:     1.0,
	}
}

// Open closes the current book, recording its position, and opens path at
// initialPage. An initial page outside the document starts at the first page.
// The zoom is then fitted to the viewport.
func (s *Session) Open(path string, initialPage int) error {
	if err := s.Close(); err != nil {
		s.logger.Warn("failed to record reading position", "error", err)
	}
	if err := s.engine.Open(path); err != nil {
		return fmt.Errorf("failed to open book: %w", err)
	}

	s.total = s.engine.TotalPages()
	if initialPage < 0 || initialPage >= s.total {
		initialPage = 0
	}
	s.page = initialPage
	s.FitToWindow()
	s.logger.Debug("book opened", "path", path, "page", s.page, "pages", s.total)
	return nil
}

// Close records the current page and closes the book. Closing a session
// without a book is a no-op.
func (s *Session) Close() error {
	if !s.engine.IsOpen() {
		return nil
	}
	path := s.engine.Path()
	var err error
	if s.progress != nil {
		err = s.progress.UpdateLastPage(path, s.page)
	}
	s.engine.Close()
	s.page, s.total = 0, 0
	return err
}

// Resize sets the outer viewport size in pixels.
func (s *Session) Resize(width, height int) {
	s.width, s.height = width, height
}

// ViewSize returns the viewport minus the margin.
func (s *Session) ViewSize() (width, height int) {
	return s.width - s.margin, s.height - s.margin
}

// FitToWindow sets the zoom so the current page fits the viewport. It does
// nothing when no book is open or either size is degenerate.
func (s *Session) FitToWindow() bool {
	if !s.engine.IsOpen() {
		return false
	}
	pw, ph := s.engine.PageSize(s.page)
	vw, vh := s.ViewSize()
	zoom, ok := render.FitZoom(pw, ph, float64(vw), float64(vh))
	if !ok {
		return false
	}
	s.zoom = zoom
	return true
}

// ZoomIn raises the zoom by ZoomStep while it is below MaxZoom.
func (s *Session) ZoomIn() bool {
	if !s.engine.IsOpen() || s.zoom >= MaxZoom {
		return false
	}
	s.zoom += ZoomStep
	return true
}

// ZoomOut lowers the zoom by ZoomStep while it is above MinZoom.
func (s *Session) ZoomOut() bool {
	if !s.engine.IsOpen() || s.zoom <= MinZoom {
		return false
	}
	s.zoom -= ZoomStep
	return true
}

func (s *Session) Next() bool {
	if !s.engine.IsOpen() || s.page >= s.total-1 {
		return false
	}
	s.page++
	return true
}

func (s *Session) Prev() bool {
	if !s.engine.IsOpen() || s.page <= 0 {
		return false
	}
	s.page--
	return true
}

func (s *Session) First() bool {
	if !s.engine.IsOpen() {
		return false
	}
	s.page = 0
	return true
}

// Jump moves to a 1-based page number, as typed into a page box.
func (s *Session) Jump(pageNumber int) bool {
	if !s.engine.IsOpen() || pageNumber < 1 || pageNumber > s.total {
		return false
	}
	s.page = pageNumber - 1
	return true
}

// ToggleNight flips night mode and returns the new state. Night mode survives
// opening another book.
func (s *Session) ToggleNight() bool {
	s.night = !s.night
	return s.night
}

// Render rasterizes the current page at the current zoom.
func (s *Session) Render() (*render.PixelBuffer, error) {
	if !s.engine.IsOpen() {
		return nil, ErrNotOpen
	}
	vw, _ := s.ViewSize()
	return s.engine.PageImage(s.page, s.zoom, vw, s.night)
}

func (s *Session) IsOpen() bool    { return s.engine.IsOpen() }
func (s *Session) Path() string    { return s.engine.Path() }
func (s *Session) Page() int       { return s.page }
func (s *Session) TotalPages() int { return s.total }
func (s *Session) Zoom() float64   { return s.zoom }
func (s *Session) Night() bool     { return s.night }

// ZoomPercent is the zoom as the whole percentage shown next to the zoom
// buttons.
func (s *Session) ZoomPercent() int {
	return int(s.zoom * 100)
}
