package server

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"worklens/assistant"
	"worklens/recorder"
	"worklens/vision"
	"worklens/workflow"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "worklens",
		"status":  "running",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"components": map[string]bool{
			"recording": s.screen != nil && s.screen.Active(),
			"voice":     s.asst.Running(),
			"vision":    s.analyzer != nil,
		},
	})
}

func (s *Server) handleRecordingStart(w http.ResponseWriter, r *http.Request) {
	if s.screen == nil {
		writeError(w, http.StatusServiceUnavailable, "screen recording not available")
		return
	}
	path, err := s.screen.Start()
	if err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recording": true, "file": path})
}

func (s *Server) handleRecordingStop(w http.ResponseWriter, r *http.Request) {
	if s.screen == nil {
		writeError(w, http.StatusServiceUnavailable, "screen recording not available")
		return
	}
	path, err := s.screen.Stop()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recording": false, "file": path})
}

func (s *Server) handleRecordingStatus(w http.ResponseWriter, r *http.Request) {
	active := s.screen != nil && s.screen.Active()
	writeJSON(w, http.StatusOK, map[string]any{"recording": active})
}

func (s *Server) handleRecordingsList(w http.ResponseWriter, r *http.Request) {
	paths, err := recorder.ListRecordings(s.cfg.DataDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"recordings": names, "count": len(names)})
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	if s.screen == nil {
		writeError(w, http.StatusServiceUnavailable, "screen capture not available")
		return
	}
	path, err := s.screen.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"file": path})
}

func (s *Server) handleVoiceStart(w http.ResponseWriter, r *http.Request) {
	if err := s.asst.Start(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recording": true})
}

func (s *Server) handleVoiceStop(w http.ResponseWriter, r *http.Request) {
	s.asst.Stop()
	writeJSON(w, http.StatusOK, map[string]any{"recording": false})
}

func (s *Server) handleVoiceMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	reply, err := s.asst.SendText(r.Context(), req.Message)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": true, "message": req.Message, "reply": reply})
}

func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	infos, err := assistant.ListTranscripts(s.cfg.DataDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transcripts": infos, "count": len(infos)})
}

func (s *Server) handleWorkflowGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript string `json:"transcript"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	res := s.engine.Generate(r.Context(), req.Transcript)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWorkflowCombined(w http.ResponseWriter, r *http.Request) {
	var req struct {
		VoiceTranscript string `json:"voice_transcript"`
		VideoAnalysis   string `json:"video_analysis"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	res := s.engine.GenerateCombined(r.Context(), req.VoiceTranscript, req.VideoAnalysis)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleWorkflowsList(w http.ResponseWriter, r *http.Request) {
	paths, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	records := make([]workflow.Record, 0, len(paths))
	for _, p := range paths {
		rec, err := s.store.Load(p)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"workflows": records, "count": len(records)})
}

// resolveVideo picks the request's video path or falls back to the
// latest recording.
func (s *Server) resolveVideo(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req struct {
		VideoPath string `json:"video_path"`
	}
	if r.ContentLength > 0 && !readJSON(w, r, &req) {
		return "", false
	}
	path := req.VideoPath
	if path == "" {
		latest, err := recorder.LatestRecording(s.cfg.DataDir)
		if err != nil || latest == "" {
			writeError(w, http.StatusNotFound, "no recordings found to analyze")
			return "", false
		}
		path = latest
	}
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "video file not found")
		return "", false
	}
	return path, true
}

func (s *Server) handleAnalysisQuick(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "vision analysis not configured")
		return
	}
	path, ok := s.resolveVideo(w, r)
	if !ok {
		return
	}
	summary, err := s.analyzer.Summarize(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"video":    filepath.Base(path),
		"analysis": summary,
	})
}

func (s *Server) handleAnalysisDetailed(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "vision analysis not configured")
		return
	}
	path, ok := s.resolveVideo(w, r)
	if !ok {
		return
	}

	analysis, err := s.analyzer.DescribeWorkflow(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	title := s.analyzer.Title(r.Context(), analysis)
	pkg, err := vision.SavePackage(s.cfg.DataDir, path, analysis, title)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"video":    filepath.Base(path),
		"analysis": analysis,
		"title":    title,
		"package":  pkg,
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeJSON(w, http.StatusOK, map[string]any{"usage": map[string]float64{}})
		return
	}
	totals, err := s.usage.Summary()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usage": totals})
}
