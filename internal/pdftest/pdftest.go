// Package pdftest writes small, structurally valid PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
)

// Page is the MediaBox size of one page, in points.
type Page struct {
	Width  float64
	Height float64
}

// Letter and A4 are common page sizes. A4 keeps its fractional size in
// points, 210x297 mm.
var (
	Letter = Page{Width: 612, Height: 792}
	A4     = Page{Width: 595.276, Height: 841.89}
)

// Build returns the bytes of a PDF with one blank page per entry in pages.
// The cross-reference table carries exact offsets, so readers need no repair.
func Build(pages ...Page) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	objCount := 2 + len(pages)
	offsets := make([]int, objCount+1)
	writeObj := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	for i, p := range pages {
		writeObj(i+3, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] >>",
			formatNumber(p.Width), formatNumber(p.Height)))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", objCount+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= objCount; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", objCount+1, xrefOffset)

	return buf.Bytes()
}

// Write writes a PDF built from pages to path and returns path.
func Write(t testing.TB, path string, pages ...Page) string {
	t.Helper()
	if err := os.WriteFile(path, Build(pages...), 0o644); err != nil {
		t.Fatalf("failed to write test pdf: %v", err)
	}
	return path
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
