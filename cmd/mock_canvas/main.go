package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"
)

// mock_canvas posts synthetic drawings to a running doodlemind server, useful
// for exercising the predict endpoint without a browser.

func main() {
	endpoint := flag.String("url", "http://localhost:5000/api/predict", "Prediction endpoint")
	shape := flag.String("shape", "circle", "Synthetic drawing to send (circle, square, zigzag)")
	count := flag.Int("n", 1, "Number of drawings to send")
	delay := flag.Duration("delay", 2*time.Second, "Delay between drawings")
	flag.Parse()

	strokes, err := syntheticDrawing(*shape)
	if err != nil {
		log.Fatalf("failed to build drawing: %v", err)
	}

	fmt.Printf("Sending %d %q drawing(s) to %s\n\n", *count, *shape, *endpoint)
	for i := 0; i < *count; i++ {
		if err := postDrawing(*endpoint, strokes); err != nil {
			log.Printf("request %d failed: %v\n", i+1, err)
		}

		if i < *count-1 && *delay > 0 {
			time.Sleep(*delay)
		}
	}
}

func syntheticDrawing(shape string) ([][2][]float64, error) {
	switch shape {
	case "circle":
		var xs, ys []float64
		for i := 0; i <= 64; i++ {
			angle := 2 * math.Pi * float64(i) / 64
			xs = append(xs, 150+100*math.Cos(angle))
			ys = append(ys, 150+100*math.Sin(angle))
		}
		return [][2][]float64{{xs, ys}}, nil
	case "square":
		return [][2][]float64{
			{{50, 250, 250, 50, 50}, {50, 50, 250, 250, 50}},
		}, nil
	case "zigzag":
		return [][2][]float64{
			{{0, 50, 100, 150, 200, 250}, {0, 200, 0, 200, 0, 200}},
		}, nil
	default:
		return nil, fmt.Errorf("unknown shape %q", shape)
	}
}

func postDrawing(endpoint string, strokes [][2][]float64) error {
	payload, err := json.Marshal(map[string]interface{}{"strokes": strokes})
	if err != nil {
		return err
	}

	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("%s -> %s\n", resp.Status, bytes.TrimSpace(body))
	return nil
}
