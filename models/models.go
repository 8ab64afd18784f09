package models

import (
	"encoding/json"
	"time"
)

// DrawingData is the payload of a gestureEnd event: the whole drawing so far,
// one [xs, ys] pair per pen stroke, in raw canvas coordinates.
type DrawingData struct {
	Strokes [][2][]float64 `json:"strokes"`
}

// PredictionResult is emitted to the client after each classification.
type PredictionResult struct {
	Prediction   string        `json:"prediction"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
	LatencyMs    float64       `json:"latencyMs"`
}

type Alternative struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// NarrationPayload carries one narration to the client: the subtitle text and
// the audio clip to play, base64-encoded.
type NarrationPayload struct {
	Text  string `json:"text"`
	Audio string `json:"audio"`
	MIME  string `json:"mime"`
	Path  string `json:"path"`
}

// PredictionRecord is a stored classification result for one finished gesture.
type PredictionRecord struct {
	ID            int64           `json:"id"`
	Timestamp     time.Time       `json:"timestamp"`
	SessionID     string          `json:"sessionId,omitempty"`
	Label         string          `json:"label"`
	Confidence    float64         `json:"confidence"`
	Alternatives  json.RawMessage `json:"alternatives,omitempty"`
	StrokeCount   int             `json:"strokeCount"`
	PointCount    int             `json:"pointCount"`
	LatencyMs     float64         `json:"latencyMs"`
	NarrationPath string          `json:"narrationPath,omitempty"`
}
