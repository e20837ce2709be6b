package render

import (
	"math"
	"testing"
)

func TestFitZoom(t *testing.T) {
	tests := []struct {
		name       string
		pw, ph     float64
		vw, vh     float64
		wantZoom   float64
		wantTarget float64
	}{
		{"width bound", 600, 800, 275, 475, 1.0, 275},
		{"height bound", 600, 800, 475, 275, 206.25 / 475, 206.25},
		{"exact fit", 600, 800, 600, 800, 1.0, 600},
		{"landscape page", 800, 400, 400, 400, 1.0, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			zoom, ok := FitZoom(tt.pw, tt.ph, tt.vw, tt.vh)
			if !ok {
				t.Fatal("FitZoom() ok = false")
			}
			if math.Abs(zoom-tt.wantZoom) > 1e-9 {
				t.Fatalf("zoom = %v, want %v", zoom, tt.wantZoom)
			}
			if got := tt.vw * zoom; math.Abs(got-tt.wantTarget) > 1e-9 {
				t.Fatalf("target width = %v, want %v", got, tt.wantTarget)
			}
		})
	}
}

func TestFitZoom_Degenerate(t *testing.T) {
	cases := [][4]float64{
		{0, 0, 300, 500},
		{600, 800, 0, 500},
		{600, 800, 300, -1},
		{600, 0, 300, 500},
	}
	for _, c := range cases {
		if _, ok := FitZoom(c[0], c[1], c[2], c[3]); ok {
			t.Errorf("FitZoom(%v) ok = true, want false", c)
		}
	}
}
