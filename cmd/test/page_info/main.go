// Test program for the PDF render engine
//
// Usage:
//
//	go run ./cmd/test/page_info/main.go <pdf-file> [out-dir]
//
// This program:
// 1. Opens the PDF file
// 2. Prints the page count and the size of every page in points
// 3. Computes the fit-to-window zoom for a 1024x768 viewport
// 4. With out-dir, writes the first page (day and night) and the cover thumbnail
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/yuanying/pdflib/internal/reader"
	"github.com/yuanying/pdflib/internal/render"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/test/page_info/main.go <pdf-file> [out-dir]")
		os.Exit(1)
	}

	pdfPath := os.Args[1]
	engine := render.NewEngine(render.Options{})

	fmt.Printf("Opening PDF file: %s\n", pdfPath)
	if err := engine.Open(pdfPath); err != nil {
		log.Fatalf("Failed to open PDF: %v", err)
	}
	defer engine.Close()

	total := engine.TotalPages()
	fmt.Printf("✓ PDF opened successfully\n")
	fmt.Printf("Total pages: %d\n\n", total)

	for i := 0; i < total; i++ {
		w, h := engine.PageSize(i)
		fmt.Printf("  page %4d: %7.1f x %7.1f pt\n", i+1, w, h)
	}

	vw, vh := 1024-reader.DefaultMargin, 768-reader.DefaultMargin
	pw, ph := engine.PageSize(0)
	if zoom, ok := render.FitZoom(pw, ph, float64(vw), float64(vh)); ok {
		fmt.Printf("\nFit zoom for 1024x768: %.4f (%d px wide)\n", zoom, int(float64(vw)*zoom))
	} else {
		fmt.Println("\nFirst page has no size, cannot fit")
	}

	if len(os.Args) < 3 {
		return
	}
	outDir := os.Args[2]
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		log.Fatalf("Failed to create %s: %v", outDir, err)
	}

	for _, night := range []bool{false, true} {
		img, err := engine.PageImage(0, 1.0, 800, night)
		if err != nil {
			log.Fatalf("Failed to render page 1: %v", err)
		}
		name := "page1.png"
		if night {
			name = "page1_night.png"
		}
		out := filepath.Join(outDir, name)
		if err := img.WritePNG(out); err != nil {
			log.Fatalf("Failed to write %s: %v", out, err)
		}
		fmt.Printf("✓ %s (%dx%d)\n", out, img.Width, img.Height)
	}

	thumb := filepath.Join(outDir, "thumb.png")
	if !engine.CreateThumbnail(pdfPath, thumb) {
		log.Fatalf("Failed to create thumbnail")
	}
	fmt.Printf("✓ %s\n", thumb)
}
