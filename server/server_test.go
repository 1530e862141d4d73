package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"worklens/assistant"
	"worklens/audio"
	"worklens/config"
	"worklens/llm"
	"worklens/metrics"
	"worklens/recorder"
	"worklens/relay"
	"worklens/tracker"
	"worklens/transcriber"
	"worklens/workflow"
)

type fixture struct {
	srv   *httptest.Server
	hub   *relay.Hub
	chat  *llm.Fake
	store *workflow.Store
	usage *tracker.JSONL
	cfg   *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()

	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	hub := relay.NewHub(met)
	t.Cleanup(hub.Close)

	chat := llm.NewFakeClient().Respond("gpt-4o",
		`{"title": "API Flow", "description": "d", "steps": [], "estimated_time": "1m", "prerequisites": [], "automation_ready": true}`)
	store := workflow.NewStore(cfg.DataDir)
	engine := workflow.NewEngine(chat, cfg, store, met)

	asst := assistant.New(cfg, audio.NewFakeContext(nil, "test mic"),
		transcriber.NewFake(nil, nil), engine, chat, hub, met)
	usage := tracker.NewJSONL(cfg.DataDir)

	s := New(cfg, asst, nil, nil, engine, store, usage, hub, reg)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, hub: hub, chat: chat, store: store, usage: usage, cfg: cfg}
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, v any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	var got map[string]any
	if code := getJSON(t, f.srv.URL+"/health", &got); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if got["status"] != "healthy" {
		t.Errorf("health = %v", got)
	}
}

func TestWorkflowGenerateEndpoint(t *testing.T) {
	f := newFixture(t)
	var res workflow.Result
	code := postJSON(t, f.srv.URL+"/api/workflow/generate",
		`{"transcript": "open the browser and check the dashboard"}`, &res)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !res.Success || res.Workflow.Title != "API Flow" {
		t.Errorf("result = %+v", res)
	}

	var list struct {
		Count     int               `json:"count"`
		Workflows []workflow.Record `json:"workflows"`
	}
	if code := getJSON(t, f.srv.URL+"/api/workflows/list", &list); code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	if list.Count != 1 || list.Workflows[0].Workflow.Title != "API Flow" {
		t.Errorf("list = %+v", list)
	}
}

func TestWorkflowGenerateShortTranscript(t *testing.T) {
	f := newFixture(t)
	var res workflow.Result
	postJSON(t, f.srv.URL+"/api/workflow/generate", `{"transcript": "hi"}`, &res)
	if res.Success {
		t.Error("short transcript should produce the fallback")
	}
	if len(res.Workflow.Steps) != 1 || res.Workflow.Steps[0].Action != workflow.ManualReviewAction {
		t.Errorf("fallback = %+v", res.Workflow)
	}
}

func TestWorkflowCombinedEndpoint(t *testing.T) {
	f := newFixture(t)
	var res workflow.Result
	code := postJSON(t, f.srv.URL+"/api/workflow/combined",
		`{"voice_transcript": "I opened the editor", "video_analysis": "1. VS Code - Editor - Opened file"}`, &res)
	if code != http.StatusOK || !res.Success {
		t.Fatalf("status = %d, result = %+v", code, res)
	}
	if res.VideoAnalysis == "" {
		t.Error("combined result should echo the video analysis")
	}
}

func TestVoiceStartStop(t *testing.T) {
	f := newFixture(t)
	var res map[string]any
	if code := postJSON(t, f.srv.URL+"/api/voice/start", "{}", &res); code != http.StatusOK {
		t.Fatalf("start status = %d", code)
	}
	if res["recording"] != true {
		t.Errorf("start = %v", res)
	}
	if code := postJSON(t, f.srv.URL+"/api/voice/stop", "{}", &res); code != http.StatusOK {
		t.Fatalf("stop status = %d", code)
	}
	if res["recording"] != false {
		t.Errorf("stop = %v", res)
	}
}

func TestVoiceMessage(t *testing.T) {
	f := newFixture(t)
	f.chat.Respond("gpt-4-turbo-preview", "Try taking a break.")

	var res map[string]any
	code := postJSON(t, f.srv.URL+"/api/voice/message", `{"message": "any advice?"}`, &res)
	if code != http.StatusOK {
		t.Fatalf("status = %d: %v", code, res)
	}
	if res["reply"] != "Try taking a break." {
		t.Errorf("reply = %v", res)
	}

	if code := postJSON(t, f.srv.URL+"/api/voice/message", `{}`, nil); code != http.StatusBadRequest {
		t.Errorf("empty message status = %d, want 400", code)
	}
}

func TestUsageEndpoint(t *testing.T) {
	f := newFixture(t)
	f.usage.Append(tracker.Entry{App: "code", Seconds: 90, Timestamp: "2026-08-28T09:00:00Z"})
	f.usage.Append(tracker.Entry{App: "code", Seconds: 30, Timestamp: "2026-08-28T10:00:00Z"})

	var res struct {
		Usage map[string]float64 `json:"usage"`
	}
	if code := getJSON(t, f.srv.URL+"/api/activity/usage", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.Usage["code"] != 120 {
		t.Errorf("usage = %v", res.Usage)
	}
}

func TestRecordingsListEmpty(t *testing.T) {
	f := newFixture(t)
	var res map[string]any
	if code := getJSON(t, f.srv.URL+"/api/recordings/list", &res); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res["count"] != float64(0) {
		t.Errorf("count = %v", res["count"])
	}
}

func TestRecordingStartWithoutScreen(t *testing.T) {
	f := newFixture(t)
	if code := postJSON(t, f.srv.URL+"/api/recording/start", "{}", nil); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", code)
	}
}

func TestEventStream(t *testing.T) {
	f := newFixture(t)

	resp, err := http.Get(f.srv.URL + "/events")
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Errorf("content type = %q", ct)
	}

	// Give the subscription time to attach before publishing.
	time.Sleep(20 * time.Millisecond)
	f.hub.Publish(relay.Event{Type: relay.FinalTranscript, Data: map[string]any{"text": "hello"}})

	line, err := bufio.NewReader(resp.Body).ReadBytes('\n')
	if err != nil {
		t.Fatalf("read event line: %v", err)
	}
	var ev relay.Event
	if err := json.Unmarshal(line, &ev); err != nil {
		t.Fatalf("parse event %q: %v", line, err)
	}
	if ev.Type != relay.FinalTranscript {
		t.Errorf("event type = %q", ev.Type)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Get(f.srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestScreenEndpointsWithRecorder(t *testing.T) {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	hub := relay.NewHub(met)
	t.Cleanup(hub.Close)

	chat := llm.NewFakeClient()
	store := workflow.NewStore(cfg.DataDir)
	engine := workflow.NewEngine(chat, cfg, store, met)
	asst := assistant.New(cfg, audio.NewFakeContext(nil, "mic"),
		transcriber.NewFake(nil, nil), engine, chat, hub, met)
	screen := recorder.NewScreen(stubRecorder{}, cfg.DataDir, cfg.RecordFPS)

	s := New(cfg, asst, screen, nil, engine, store, nil, hub, reg)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)

	var res map[string]any
	if code := postJSON(t, srv.URL+"/api/recording/start", "{}", &res); code != http.StatusOK {
		t.Fatalf("start status = %d: %v", code, res)
	}
	if code := getJSON(t, srv.URL+"/api/recording/status", &res); code != http.StatusOK || res["recording"] != true {
		t.Errorf("status = %v", res)
	}
	if code := postJSON(t, srv.URL+"/api/recording/stop", "{}", &res); code != http.StatusOK {
		t.Fatalf("stop status = %d: %v", code, res)
	}
}

type stubRecorder struct{}

func (stubRecorder) Record(outputPath string, fps int, stop <-chan struct{}) error {
	<-stop
	return nil
}

func (stubRecorder) Snapshot(outputPath string) error { return nil }
