// Package server exposes the HTTP API: recording and voice control,
// workflow generation, analysis, usage stats, a streaming event feed
// and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"worklens/assistant"
	"worklens/config"
	"worklens/log"
	"worklens/recorder"
	"worklens/relay"
	"worklens/tracker"
	"worklens/vision"
	"worklens/workflow"
)

// Server wires the application components to HTTP handlers.
type Server struct {
	cfg      *config.Config
	asst     *assistant.Assistant
	screen   *recorder.Screen
	analyzer *vision.Analyzer // nil without an Anthropic key
	engine   *workflow.Engine
	store    *workflow.Store
	usage    *tracker.JSONL
	hub      *relay.Hub
	mux      *http.ServeMux

	started time.Time
}

func New(cfg *config.Config, asst *assistant.Assistant, screen *recorder.Screen,
	analyzer *vision.Analyzer, engine *workflow.Engine, store *workflow.Store,
	usage *tracker.JSONL, hub *relay.Hub, reg *prometheus.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		asst:     asst,
		screen:   screen,
		analyzer: analyzer,
		engine:   engine,
		store:    store,
		usage:    usage,
		hub:      hub,
		mux:      http.NewServeMux(),
		started:  time.Now(),
	}

	s.mux.HandleFunc("GET /{$}", s.handleRoot)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/recording/start", s.handleRecordingStart)
	s.mux.HandleFunc("POST /api/recording/stop", s.handleRecordingStop)
	s.mux.HandleFunc("GET /api/recording/status", s.handleRecordingStatus)
	s.mux.HandleFunc("GET /api/recordings/list", s.handleRecordingsList)
	s.mux.HandleFunc("POST /api/screenshot/capture", s.handleScreenshot)

	s.mux.HandleFunc("POST /api/voice/start", s.handleVoiceStart)
	s.mux.HandleFunc("POST /api/voice/stop", s.handleVoiceStop)
	s.mux.HandleFunc("POST /api/voice/message", s.handleVoiceMessage)
	s.mux.HandleFunc("GET /api/voice/transcripts", s.handleTranscripts)

	s.mux.HandleFunc("POST /api/workflow/generate", s.handleWorkflowGenerate)
	s.mux.HandleFunc("POST /api/workflow/combined", s.handleWorkflowCombined)
	s.mux.HandleFunc("GET /api/workflows/list", s.handleWorkflowsList)

	s.mux.HandleFunc("POST /api/analysis/quick", s.handleAnalysisQuick)
	s.mux.HandleFunc("POST /api/analysis/detailed", s.handleAnalysisDetailed)

	s.mux.HandleFunc("GET /api/activity/usage", s.handleUsage)

	s.mux.HandleFunc("GET /events", s.handleEvents)
	if reg != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}
	return s
}

// Handler returns the HTTP handler tree.
func (s *Server) Handler() http.Handler { return s.mux }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.HTTPAddr, Handler: s.mux}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("http server listening on %s", s.cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
