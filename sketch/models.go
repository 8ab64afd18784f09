package sketch

// TargetSize is the side length of the canonical square the classifier expects.
// Normalized coordinates are integers in [0, TargetSize-1].
const TargetSize = 256

// Stroke is one continuous pointer-down-to-pointer-up pen path. X and Y are
// index-aligned and equal in length.
type Stroke struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Len returns the number of points in the stroke.
func (s Stroke) Len() int {
	if len(s.X) < len(s.Y) {
		return len(s.X)
	}
	return len(s.Y)
}

// Alternative is one runner-up classification.
type Alternative struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Prediction is the classifier's verdict for a drawing: the best label, its
// confidence in [0,1], and up to three runner-up alternatives.
type Prediction struct {
	Label        string        `json:"label"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}
