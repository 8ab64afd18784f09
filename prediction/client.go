package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"doodlemind/sketch"
)

// Client communicates with the remote doodle classification service.
type Client struct {
	serviceURL string
	client     *http.Client
}

// NetworkError reports a transport-level failure reaching the classifier.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("classifier unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// BadResponseError reports a non-success status or an unparseable payload
// from the classifier.
type BadResponseError struct {
	Status int
	Reason string
}

func (e *BadResponseError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("classifier returned status %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("bad classifier response: %s", e.Reason)
}

// predictRequest is the classifier's wire format: the drawing is a
// JSON-stringified array of [xs, ys] pairs, one pair per stroke.
type predictRequest struct {
	Drawing string `json:"drawing"`
}

type predictResponse struct {
	Prediction      string    `json:"prediction"`
	Confidence      float64   `json:"confidence"`
	Top3Classes     []string  `json:"top_3_classes"`
	Top3Confidences []float64 `json:"top_3_confidences"`
}

// NewClient creates a classifier client.
func NewClient(serviceURL string) *Client {
	if serviceURL == "" {
		serviceURL = "http://localhost:5004"
	}

	return &Client{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// HealthCheck verifies the classification service is reachable.
func (c *Client) HealthCheck() error {
	resp, err := c.client.Get(c.serviceURL + "/health")
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &BadResponseError{Status: resp.StatusCode, Reason: "health check failed"}
	}

	return nil
}

// Predict sends a normalized drawing to the classifier and parses the result.
// Coordinates must already be normalized into [0, sketch.TargetSize-1]; every
// finished gesture triggers exactly one request, with no retry and no caching.
func (c *Client) Predict(ctx context.Context, strokes []sketch.Stroke) (sketch.Prediction, error) {
	drawing := make([][2][]int, len(strokes))
	for i, stroke := range strokes {
		n := stroke.Len()
		xs := make([]int, n)
		ys := make([]int, n)
		for j := 0; j < n; j++ {
			xs[j] = int(math.Round(stroke.X[j]))
			ys[j] = int(math.Round(stroke.Y[j]))
		}
		drawing[i] = [2][]int{xs, ys}
	}

	rawDrawing, err := json.Marshal(drawing)
	if err != nil {
		return sketch.Prediction{}, fmt.Errorf("failed to encode drawing: %w", err)
	}

	payload, err := json.Marshal(predictRequest{Drawing: string(rawDrawing)})
	if err != nil {
		return sketch.Prediction{}, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serviceURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return sketch.Prediction{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return sketch.Prediction{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return sketch.Prediction{}, &BadResponseError{Status: resp.StatusCode, Reason: string(body)}
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return sketch.Prediction{}, &BadResponseError{Reason: err.Error()}
	}

	if parsed.Prediction == "" {
		return sketch.Prediction{}, &BadResponseError{Reason: "empty prediction"}
	}

	result := sketch.Prediction{
		Label:      parsed.Prediction,
		Confidence: parsed.Confidence,
	}

	for i := 0; i < len(parsed.Top3Classes) && i < 3; i++ {
		alt := sketch.Alternative{Label: parsed.Top3Classes[i]}
		if i < len(parsed.Top3Confidences) {
			alt.Confidence = parsed.Top3Confidences[i]
		}
		result.Alternatives = append(result.Alternatives, alt)
	}

	return result, nil
}
