package render

import "math"

// FitZoom returns the zoom level that fits a page of pageWidth x pageHeight
// points inside a viewport of viewWidth x viewHeight pixels. The viewport must
// already have the caller's margin subtracted.
//
// Passing the result to PageImage with availableWidth == viewWidth reproduces
// the fitted width: int(viewWidth * zoom) == int(pageWidth * ratio).
// ok is false when any dimension is not positive.
func FitZoom(pageWidth, pageHeight, viewWidth, viewHeight float64) (zoom float64, ok bool) {
	if pageWidth <= 0 || pageHeight <= 0 || viewWidth <= 0 || viewHeight <= 0 {
		return 0, false
	}
	ratio := math.Min(viewWidth/pageWidth, viewHeight/pageHeight)
	targetWidth := pageWidth * ratio
	return targetWidth / viewWidth, true
}
