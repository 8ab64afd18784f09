package sketch

// Stroke normalization
//
// The classifier expects every drawing inside a fixed square of integer
// coordinates. ScaleAndCenter maps the bounding box of the whole drawing into
// that square with a single uniform scale factor, so the aspect ratio of the
// sketch survives the transform, and centers whichever axis has slack.

import (
	"math"
)

// ScaleAndCenter rescales all strokes of a drawing into [0, targetSize-1]
// integer coordinates, preserving aspect ratio and centering the result.
//
// The bounding box is computed over every point of every stroke, so repeated
// calls during one drawing always normalize against the whole sketch, not the
// latest stroke. A degenerate bounding box (zero width or zero height, e.g. a
// single dot or a perfectly straight axis-aligned line) returns the input
// unchanged rather than dividing by zero.
func ScaleAndCenter(strokes []Stroke, targetSize int) []Stroke {
	if len(strokes) == 0 || targetSize <= 0 {
		return strokes
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	points := 0

	for _, stroke := range strokes {
		for i := 0; i < stroke.Len(); i++ {
			minX = math.Min(minX, stroke.X[i])
			maxX = math.Max(maxX, stroke.X[i])
			minY = math.Min(minY, stroke.Y[i])
			maxY = math.Max(maxY, stroke.Y[i])
			points++
		}
	}

	if points == 0 {
		return strokes
	}

	width := maxX - minX
	height := maxY - minY

	if width == 0 || height == 0 {
		return strokes
	}

	scale := float64(targetSize) / math.Max(width, height)
	shiftX := (float64(targetSize) - width*scale) / 2
	shiftY := (float64(targetSize) - height*scale) / 2

	normalized := make([]Stroke, len(strokes))
	for i, stroke := range strokes {
		n := stroke.Len()
		out := Stroke{X: make([]float64, n), Y: make([]float64, n)}
		for j := 0; j < n; j++ {
			out.X[j] = transformCoord(stroke.X[j], minX, scale, shiftX, targetSize)
			out.Y[j] = transformCoord(stroke.Y[j], minY, scale, shiftY, targetSize)
		}
		normalized[i] = out
	}

	return normalized
}

func transformCoord(coord, min, scale, shift float64, targetSize int) float64 {
	scaled := math.Round((coord-min)*scale + shift)
	return clamp(scaled, 0, float64(targetSize-1))
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
