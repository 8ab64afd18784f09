package sketch

import (
	"testing"
)

func TestScaleAndCenterEmptyDrawing(t *testing.T) {
	t.Parallel()

	result := ScaleAndCenter(nil, TargetSize)
	if len(result) != 0 {
		t.Fatalf("expected empty result for empty drawing, got %d strokes", len(result))
	}
}

func TestScaleAndCenterDegenerateBoundingBox(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		strokes []Stroke
	}{
		{
			name:    "single point",
			strokes: []Stroke{{X: []float64{42}, Y: []float64{17}}},
		},
		{
			name:    "vertical line",
			strokes: []Stroke{{X: []float64{10, 10, 10}, Y: []float64{5, 50, 120}}},
		},
		{
			name:    "horizontal line",
			strokes: []Stroke{{X: []float64{5, 80, 200}, Y: []float64{33, 33, 33}}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := ScaleAndCenter(tc.strokes, TargetSize)
			if len(result) != len(tc.strokes) {
				t.Fatalf("stroke count changed: got %d, want %d", len(result), len(tc.strokes))
			}
			for i := range tc.strokes {
				for j := range tc.strokes[i].X {
					if result[i].X[j] != tc.strokes[i].X[j] || result[i].Y[j] != tc.strokes[i].Y[j] {
						t.Fatalf("degenerate drawing was modified at stroke %d point %d: got (%v,%v), want (%v,%v)",
							i, j, result[i].X[j], result[i].Y[j], tc.strokes[i].X[j], tc.strokes[i].Y[j])
					}
				}
			}
		})
	}
}

func TestScaleAndCenterRangeInvariant(t *testing.T) {
	t.Parallel()

	strokes := []Stroke{
		{X: []float64{-30.5, 12, 99.2, 411}, Y: []float64{7, 680.1, -2, 55}},
		{X: []float64{0, 250, 500}, Y: []float64{300, 150, 0.5}},
	}

	for _, targetSize := range []int{16, 64, 256} {
		result := ScaleAndCenter(strokes, targetSize)
		for i, stroke := range result {
			for j := range stroke.X {
				if stroke.X[j] < 0 || stroke.X[j] > float64(targetSize-1) {
					t.Fatalf("x out of range for targetSize=%d at stroke %d point %d: %v", targetSize, i, j, stroke.X[j])
				}
				if stroke.Y[j] < 0 || stroke.Y[j] > float64(targetSize-1) {
					t.Fatalf("y out of range for targetSize=%d at stroke %d point %d: %v", targetSize, i, j, stroke.Y[j])
				}
			}
		}
	}
}

func TestScaleAndCenterUniformScale(t *testing.T) {
	t.Parallel()

	// Bounding box 100x50: the wide axis drives the scale factor (256/100),
	// and the short axis gets centered rather than stretched.
	strokes := []Stroke{
		{X: []float64{0, 100}, Y: []float64{0, 50}},
	}

	result := ScaleAndCenter(strokes, 256)

	if got := result[0].X[1] - result[0].X[0]; got != 255 {
		t.Fatalf("expected x span 255, got %v", got)
	}

	// 50 * 2.56 = 128 spanned, centered: shiftY = (256-128)/2 = 64.
	if got := result[0].Y[0]; got != 64 {
		t.Fatalf("expected min y at 64, got %v", got)
	}
	if got := result[0].Y[1]; got != 192 {
		t.Fatalf("expected max y at 192, got %v", got)
	}
}

func TestScaleAndCenterCentersWholeDrawing(t *testing.T) {
	t.Parallel()

	// Two strokes forming a 50x200 bounding box at offset (10,10):
	// scale = 256/200 = 1.28, shiftX = (256-64)/2 = 96, shiftY = 0.
	strokes := []Stroke{
		{X: []float64{10, 60}, Y: []float64{10, 110}},
		{X: []float64{35, 60}, Y: []float64{150, 210}},
	}

	result := ScaleAndCenter(strokes, 256)

	if got := result[0].X[0]; got != 96 {
		t.Fatalf("expected point (10,10) to map to x=96, got %v", got)
	}
	if got := result[0].Y[0]; got != 0 {
		t.Fatalf("expected point (10,10) to map to y=0, got %v", got)
	}
	if got := result[1].Y[1]; got != 255 {
		t.Fatalf("expected bottom of drawing to clamp to 255, got %v", got)
	}
}
