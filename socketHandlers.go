package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"log/slog"
	"sync"
	"time"

	"doodlemind/db"
	"doodlemind/models"
	"doodlemind/narration"
	"doodlemind/prediction"
	"doodlemind/sketch"
	"doodlemind/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

type socketController struct {
	predictor *prediction.Client
	synth     *narration.Synthesizer
	storage   db.DBClient
	policyCfg narration.PolicyConfig

	mu       sync.Mutex
	sessions map[string]*narration.Policy
}

func newSocketController(predictor *prediction.Client, synth *narration.Synthesizer, storage db.DBClient, policyCfg narration.PolicyConfig) *socketController {
	return &socketController{
		predictor: predictor,
		synth:     synth,
		storage:   storage,
		policyCfg: policyCfg,
		sessions:  make(map[string]*narration.Policy),
	}
}

// session returns the narration policy for a socket, creating it on first use.
// Each connection is one drawing session with its own policy state; the
// narration audio cache stays process-wide.
func (c *socketController) session(socketID string) *narration.Policy {
	c.mu.Lock()
	defer c.mu.Unlock()

	policy, ok := c.sessions[socketID]
	if !ok {
		policy = narration.NewPolicy(c.policyCfg)
		c.sessions[socketID] = policy
	}
	return policy
}

func (c *socketController) dropSession(socketID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, socketID)
}

func (c *socketController) emitPolicyInfo(socket socketio.Conn) {
	socket.Emit("policyInfo", map[string]interface{}{
		"confidenceThreshold":  c.policyCfg.ConfidenceThreshold,
		"genericCooldownLimit": c.policyCfg.GenericCooldownLimit,
		"targetSize":           sketch.TargetSize,
	})
}

// handleGestureEnd runs the full pipeline for one finished pen gesture:
// normalize the drawing, classify it, emit the prediction, then let the
// narration policy decide whether and how to speak.
func (c *socketController) handleGestureEnd(socket socketio.Conn, drawingData string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	log.Printf("[handleGestureEnd] Starting for socket %s, data length: %d\n", socket.ID(), len(drawingData))

	if drawingData == "" {
		logger.ErrorContext(ctx, "no data received in gestureEnd event")
		socket.Emit("drawingError", map[string]string{"message": "no drawing data received"})
		return
	}

	var data models.DrawingData
	if err := json.Unmarshal([]byte(drawingData), &data); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse drawing payload", slog.Any("error", err))
		socket.Emit("drawingError", map[string]string{"message": "invalid drawing payload"})
		return
	}

	strokes, ok := toStrokes(data)
	if !ok {
		logger.ErrorContext(ctx, "mismatched stroke coordinate lists",
			slog.String("socketID", socket.ID()),
		)
		socket.Emit("drawingError", map[string]string{"message": "stroke x/y lists must be equal length"})
		return
	}
	if len(strokes) == 0 {
		return
	}

	pointCount := 0
	for _, stroke := range strokes {
		pointCount += stroke.Len()
	}
	logger.InfoContext(ctx, "received drawing",
		slog.String("socketID", socket.ID()),
		slog.Int("strokeCount", len(strokes)),
		slog.Int("pointCount", pointCount),
	)

	normalized := sketch.ScaleAndCenter(strokes, sketch.TargetSize)

	started := time.Now()
	pred, err := c.predictor.Predict(ctx, normalized)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "classification failed", slog.Any("error", err))
		socket.Emit("predictionError", map[string]string{"message": "classifier unavailable"})
		return
	}
	latency := time.Since(started).Seconds() * 1000

	logger.InfoContext(ctx, "classification complete",
		slog.String("socketID", socket.ID()),
		slog.String("label", pred.Label),
		slog.Float64("confidence", pred.Confidence),
		slog.Float64("latency_ms", latency),
	)

	socket.Emit("prediction", toPredictionResult(pred, latency))

	policy := c.session(socket.ID())
	path := policy.Decide(pred.Label, pred.Confidence)

	c.savePrediction(socket.ID(), pred, len(strokes), pointCount, latency, path)

	if path == narration.PathSuppressed {
		logger.DebugContext(ctx, "narration suppressed",
			slog.String("socketID", socket.ID()),
			slog.String("label", pred.Label),
		)
		return
	}

	c.narrate(ctx, socket, policy, path, pred.Label)
}

// narrate runs the chosen synthesis path and ships the result to the client.
// Errors degrade silently: nothing plays, nothing is shown, and the policy is
// released so the next gesture can narrate again.
func (c *socketController) narrate(ctx context.Context, socket socketio.Conn, policy *narration.Policy, path narration.Path, label string) {
	logger := utils.GetLogger()

	notify := func(text string) {
		socket.Emit("narrationText", text)
	}

	var result narration.Narration
	var err error
	switch path {
	case narration.PathSpecific:
		result, err = c.synth.SynthesizeSpecific(ctx, label, notify)
	case narration.PathGeneric:
		result, err = c.synth.SynthesizeGeneric(ctx, label, notify)
	}
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "narration synthesis failed", slog.Any("error", err))
		// The policy must never stay stuck in Narrating after a failure.
		policy.Complete()
		return
	}

	socket.Emit("narration", models.NarrationPayload{
		Text:  result.Text,
		Audio: base64.StdEncoding.EncodeToString(result.Audio.Bytes),
		MIME:  result.Audio.MIME,
		Path:  path.String(),
	})

	logger.InfoContext(ctx, "narration emitted",
		slog.String("socketID", socket.ID()),
		slog.String("path", path.String()),
		slog.Int("audioBytes", len(result.Audio.Bytes)),
	)
}

// handleNarrationDone is the playback-completion event from the client; it
// closes the current narration episode. The client fires it on audio end and
// on audio error alike.
func (c *socketController) handleNarrationDone(socket socketio.Conn) {
	c.session(socket.ID()).Complete()
}

func (c *socketController) savePrediction(sessionID string, pred sketch.Prediction, strokeCount, pointCount int, latency float64, path narration.Path) {
	if c.storage == nil {
		return
	}

	alternatives, err := json.Marshal(pred.Alternatives)
	if err != nil {
		alternatives = nil
	}

	record := &models.PredictionRecord{
		Timestamp:     time.Now(),
		SessionID:     sessionID,
		Label:         pred.Label,
		Confidence:    pred.Confidence,
		Alternatives:  alternatives,
		StrokeCount:   strokeCount,
		PointCount:    pointCount,
		LatencyMs:     latency,
		NarrationPath: path.String(),
	}

	if err := c.storage.SavePrediction(record); err != nil {
		log.Printf("[Socket] Failed to save prediction: %v\n", err)
	}
}

func toStrokes(data models.DrawingData) ([]sketch.Stroke, bool) {
	strokes := make([]sketch.Stroke, 0, len(data.Strokes))
	for _, pair := range data.Strokes {
		if len(pair[0]) != len(pair[1]) {
			return nil, false
		}
		if len(pair[0]) == 0 {
			continue
		}
		strokes = append(strokes, sketch.Stroke{X: pair[0], Y: pair[1]})
	}
	return strokes, true
}

func toPredictionResult(pred sketch.Prediction, latency float64) models.PredictionResult {
	result := models.PredictionResult{
		Prediction: pred.Label,
		Confidence: pred.Confidence,
		LatencyMs:  latency,
	}
	for _, alt := range pred.Alternatives {
		result.Alternatives = append(result.Alternatives, models.Alternative{
			Label:      alt.Label,
			Confidence: alt.Confidence,
		})
	}
	return result
}
