package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"doodlemind/sketch"
)

func TestPredictWireFormat(t *testing.T) {
	t.Parallel()

	var received struct {
		Drawing string `json:"drawing"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}

		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("failed to parse request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"prediction":"cat","confidence":0.91,"top_3_classes":["cat","dog","fox"],"top_3_confidences":[0.91,0.05,0.02]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	strokes := []sketch.Stroke{
		{X: []float64{0, 128, 255}, Y: []float64{10, 20, 30}},
	}

	result, err := client.Predict(context.Background(), strokes)
	if err != nil {
		t.Fatalf("Predict returned error: %v", err)
	}

	// The drawing travels as a JSON string holding [xs, ys] pairs.
	var drawing [][2][]int
	if err := json.Unmarshal([]byte(received.Drawing), &drawing); err != nil {
		t.Fatalf("drawing field is not a stringified stroke array: %v", err)
	}
	if len(drawing) != 1 {
		t.Fatalf("expected 1 stroke, got %d", len(drawing))
	}
	if drawing[0][0][2] != 255 || drawing[0][1][0] != 10 {
		t.Fatalf("coordinates not preserved: %v", drawing)
	}

	if result.Label != "cat" || result.Confidence != 0.91 {
		t.Fatalf("parsed result wrong: %+v", result)
	}
	if len(result.Alternatives) != 3 || result.Alternatives[2].Label != "fox" {
		t.Fatalf("alternatives not parsed: %+v", result.Alternatives)
	}
}

func TestPredictBadStatusIsBadResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"missing drawing data"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Predict(context.Background(), []sketch.Stroke{{X: []float64{1}, Y: []float64{1}}})

	var badResp *BadResponseError
	if !errors.As(err, &badResp) {
		t.Fatalf("expected BadResponseError, got %v", err)
	}
	if badResp.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", badResp.Status)
	}
}

func TestPredictMalformedBodyIsBadResponse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"not json", "<html>oops</html>"},
		{"empty prediction", `{"prediction":"","confidence":0}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tc.body)
			}))
			defer server.Close()

			client := NewClient(server.URL)
			_, err := client.Predict(context.Background(), []sketch.Stroke{{X: []float64{1}, Y: []float64{1}}})

			var badResp *BadResponseError
			if !errors.As(err, &badResp) {
				t.Fatalf("expected BadResponseError, got %v", err)
			}
		})
	}
}

func TestPredictTransportFailureIsNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	client := NewClient(server.URL)
	_, err := client.Predict(context.Background(), []sketch.Stroke{{X: []float64{1}, Y: []float64{1}}})

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}
