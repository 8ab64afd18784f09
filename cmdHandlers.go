package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"doodlemind/chat"
	"doodlemind/db"
	"doodlemind/models"
	"doodlemind/narration"
	"doodlemind/prediction"
	"doodlemind/sketch"
	"doodlemind/tts"
	"doodlemind/utils"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
)

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Error: message})
}

func allowCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
}

// newTTSProxyHandler exposes speech synthesis to the frontend: POST {"text"}
// returns raw audio bytes. The caller is expected to have stripped emoji and
// quotes already; the text is forwarded as-is.
func newTTSProxyHandler(speech narration.SpeechSynthesizer) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		allowCORS(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if speech == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "speech synthesis not configured")
			return
		}

		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Text) == "" {
			writeJSONError(w, http.StatusBadRequest, "No text provided")
			return
		}

		audio, err := speech.SynthesizeText(ctx, payload.Text)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "TTS synthesis failed", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "TTS generation failed")
			return
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		w.Header().Set("Content-Disposition", `inline; filename="speech.mp3"`)
		if _, err := w.Write(audio); err != nil {
			log.Printf("failed to write TTS audio response: %v", err)
		}
	}
}

// newPredictHandler is the REST twin of the socket pipeline's classify leg:
// POST a drawing, get the prediction back. Narration stays on the socket.
func newPredictHandler(predictor *prediction.Client, storage db.DBClient) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		allowCORS(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var data models.DrawingData
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid drawing payload")
			return
		}

		strokes, ok := toStrokes(data)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "stroke x/y lists must be equal length")
			return
		}
		if len(strokes) == 0 {
			writeJSONError(w, http.StatusBadRequest, "empty drawing")
			return
		}

		normalized := sketch.ScaleAndCenter(strokes, sketch.TargetSize)

		started := time.Now()
		pred, err := predictor.Predict(ctx, normalized)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "classification failed", slog.Any("error", err))
			writeJSONError(w, http.StatusBadGateway, "classifier unavailable")
			return
		}
		latency := time.Since(started).Seconds() * 1000

		if storage != nil {
			alternatives, _ := json.Marshal(pred.Alternatives)
			record := &models.PredictionRecord{
				Timestamp:    time.Now(),
				Label:        pred.Label,
				Confidence:   pred.Confidence,
				Alternatives: alternatives,
				StrokeCount:  len(strokes),
				LatencyMs:    latency,
			}
			if err := storage.SavePrediction(record); err != nil {
				log.Printf("failed to save prediction: %v", err)
			}
		}

		writeJSON(w, http.StatusOK, toPredictionResult(pred, latency))
	}
}

func newPredictionsHandler(storage db.DBClient) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		allowCORS(w)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if storage == nil {
			writeJSONError(w, http.StatusServiceUnavailable, "prediction history not configured")
			return
		}

		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}

		records, err := storage.RecentPredictions(limit)
		if err != nil {
			err := xerrors.New(err)
			logger.ErrorContext(ctx, "failed to load predictions", slog.Any("error", err))
			writeJSONError(w, http.StatusInternalServerError, "failed to load predictions")
			return
		}

		writeJSON(w, http.StatusOK, records)
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	classifierURL := utils.GetEnv("CLASSIFIER_URL", "http://localhost:5004")
	predictor := prediction.NewClient(classifierURL)
	if err := predictor.HealthCheck(); err != nil {
		log.Printf("WARNING: classifier health check failed: %v\n", err)
		log.Println("The server will start but predictions will fail until the classifier is reachable.")
	} else {
		log.Printf("Classifier is available at %s\n", classifierURL)
	}

	policyCfg := narration.ParsePolicyConfig(
		utils.GetEnv("NARRATION_CONFIDENCE_THRESHOLD", ""),
		utils.GetEnv("NARRATION_GENERIC_COOLDOWN", ""),
		utils.GetEnv("NARRATION_WATCHDOG", ""),
	)
	log.Printf("Narration policy: threshold=%.2f cooldown=%d watchdog=%s\n",
		policyCfg.ConfidenceThreshold, policyCfg.GenericCooldownLimit, policyCfg.Watchdog)

	var textGen narration.TextGenerator
	if gemini, err := chat.NewGeminiClient(context.Background()); err != nil {
		log.Printf("WARNING: Gemini unavailable (%v); specific narrations will use the stock sentence\n", err)
	} else {
		textGen = gemini
	}

	var speech narration.SpeechSynthesizer
	speechClient, err := tts.NewGoogleTTSClient()
	if err != nil {
		log.Printf("WARNING: TTS unavailable (%v); narration audio is disabled\n", err)
	} else {
		speech = speechClient
	}

	synth := narration.NewSynthesizer(textGen, speech, narration.NewCache())

	storage, err := db.NewDBClient()
	if err != nil {
		log.Printf("WARNING: prediction history disabled: %v\n", err)
		storage = nil
	} else {
		defer storage.Close()
	}

	controller := newSocketController(predictor, synth, storage, policyCfg)

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		log.Printf("CONNECTED: %s, remote addr: %s\n", socket.ID(), socket.RemoteAddr())
		controller.emitPolicyInfo(socket)
		return nil
	})

	server.OnEvent("/", "gestureEnd", func(socket socketio.Conn, msg string) {
		log.Printf("=== gestureEnd event received from %s, data length: %d ===\n", socket.ID(), len(msg))
		// Run handler in goroutine to prevent blocking, with panic recovery
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("panic in handleGestureEnd for socket %s: %v\n", socket.ID(), r)
					socket.Emit("drawingError", map[string]string{"message": "internal server error during processing"})
				}
			}()
			controller.handleGestureEnd(socket, msg)
		}()
	})

	server.OnEvent("/", "narrationDone", func(socket socketio.Conn) {
		controller.handleNarrationDone(socket)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
		controller.dropSession(s.ID())
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := protocol == "https"

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/tts", newTTSProxyHandler(speech))
	mux.HandleFunc("/api/predict", newPredictHandler(predictor, storage))
	mux.HandleFunc("/api/predictions", newPredictionsHandler(storage))
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, serveHTTPS, port, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		certKey := utils.GetEnv("CERT_KEY", "")
		certFile := utils.GetEnv("CERT_FILE", "")
		if certKey == "" || certFile == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(certFile, certKey); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}
