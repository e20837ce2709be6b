package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yuanying/pdflib/internal/catalog"
	"github.com/yuanying/pdflib/internal/reader"
	"github.com/yuanying/pdflib/internal/render"
)

const (
	defaultRenderWidth = 800
	defaultViewport    = "1024x768"
)

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		width, err = strconv.Atoi(w)
		if err == nil {
			height, err = strconv.Atoi(h)
		}
	}
	if !ok || err != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	return width, height, nil
}

func newRenderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render PDF PAGE OUT.png",
		Short: "Render one page (1-based) of a PDF to a PNG file",
		Long: `Render one page of a PDF to a PNG file. The image is --width pixels wide
times --zoom. With --fit the zoom is chosen so the whole page fits the given
viewport, minus the view margin.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := strconv.Atoi(args[1])
			if err != nil || page < 1 {
				return fmt.Errorf("invalid page %q: must be a positive number", args[1])
			}
			zoom, _ := cmd.Flags().GetFloat64("zoom")
			width, _ := cmd.Flags().GetInt("width")
			night, _ := cmd.Flags().GetBool("night")
			fit, _ := cmd.Flags().GetString("fit")
			if zoom <= 0 {
				return fmt.Errorf("invalid --zoom %v: must be positive", zoom)
			}
			if width <= 0 {
				return fmt.Errorf("invalid --width %d: must be positive", width)
			}

			engine := a.newEngine()
			if err := engine.Open(args[0]); err != nil {
				return err
			}
			defer engine.Close()

			if fit != "" {
				vw, vh, err := parseSize(fit)
				if err != nil {
					return fmt.Errorf("--fit: %w", err)
				}
				margin := a.opts.Config.ViewMargin
				pw, ph := engine.PageSize(page - 1)
				fitted, ok := render.FitZoom(pw, ph, float64(vw-margin), float64(vh-margin))
				if !ok {
					return fmt.Errorf("cannot fit page %d into %s", page, fit)
				}
				zoom, width = fitted, vw-margin
			}

			img, err := engine.PageImage(page-1, zoom, width, night)
			if err != nil {
				return err
			}
			if err := img.WritePNG(args[2]); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[2], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%dx%d)\n", args[2], img.Width, img.Height)
			return nil
		},
	}
	cmd.Flags().Float64("zoom", 1.0, "Zoom factor applied to --width")
	cmd.Flags().Int("width", defaultRenderWidth, "Available width in pixels")
	cmd.Flags().Bool("night", false, "Invert colors")
	cmd.Flags().String("fit", "", "Fit the page into a WIDTHxHEIGHT viewport")
	return cmd
}

func newThumbnailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "thumbnail PDF OUT.png",
		Short: "Write the cover thumbnail of a PDF",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.newEngine().CreateThumbnail(args[0], args[1]) {
				return fmt.Errorf("failed to create thumbnail for %s", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", args[1])
			return nil
		},
	}
}

func newReadCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read PATH",
		Short: "Open a book where you left off and render the page",
		Long: `Open a cataloged book at its saved page (or --page), fit it to the
viewport, apply the zoom steps, render the page to --out and save the reading
position.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, _ := cmd.Flags().GetInt("page")
			viewport, _ := cmd.Flags().GetString("viewport")
			zoomSteps, _ := cmd.Flags().GetInt("zoom")
			night, _ := cmd.Flags().GetBool("night")
			out, _ := cmd.Flags().GetString("out")

			vw, vh, err := parseSize(viewport)
			if err != nil {
				return fmt.Errorf("--viewport: %w", err)
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			path := absPath(args[0])
			book, ok := store.Book(path)
			if !ok {
				return fmt.Errorf("%w: %s", catalog.ErrBookNotFound, path)
			}

			session := reader.NewSession(reader.Options{
				Engine:   a.newEngine(),
				Progress: store,
				Margin:   a.opts.Config.ViewMargin,
				Logger:   a.opts.Logger,
			})
			session.Resize(vw, vh)
			if err := session.Open(path, book.LastPage); err != nil {
				if errors.Is(err, render.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("%w; use 'pdflib relink %s NEW_PATH' if the file moved", err, path)
				}
				return err
			}
			defer func() {
				if err := session.Close(); err != nil {
					a.opts.Logger.Warn("failed to save reading position", "path", path, "error", err)
				}
			}()

			if page > 0 && !session.Jump(page) {
				return fmt.Errorf("page %d is outside 1-%d", page, session.TotalPages())
			}
			for i := 0; i < zoomSteps; i++ {
				if !session.ZoomIn() {
					break
				}
			}
			for i := 0; i > zoomSteps; i-- {
				if !session.ZoomOut() {
					break
				}
			}
			if night {
				session.ToggleNight()
			}

			img, err := session.Render()
			if err != nil {
				return err
			}
			if out == "" {
				title := strings.TrimSuffix(book.Title, filepath.Ext(book.Title))
				out = fmt.Sprintf("%s-p%d.png", title, session.Page()+1)
			}
			if err := img.WritePNG(out); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: page %d/%d at %d%% -> %s\n",
				book.Title, session.Page()+1, session.TotalPages(), session.ZoomPercent(), out)
			return nil
		},
	}
	cmd.Flags().Int("page", 0, "1-based page to jump to (default: saved position)")
	cmd.Flags().String("viewport", defaultViewport, "Viewport size WIDTHxHEIGHT")
	cmd.Flags().Int("zoom", 0, "Zoom steps after fitting (negative zooms out)")
	cmd.Flags().Bool("night", false, "Invert colors")
	cmd.Flags().StringP("out", "o", "", "Output PNG (default: TITLE-pPAGE.png)")
	return cmd
}
