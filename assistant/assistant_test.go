package assistant

import (
	"context"
	"encoding/binary"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"worklens/audio"
	"worklens/config"
	"worklens/llm"
	"worklens/metrics"
	"worklens/relay"
	"worklens/transcriber"
	"worklens/workflow"
)

const validWorkflowJSON = `{
	"title": "Light Control",
	"description": "turns on the light",
	"steps": [{"step_number": 1, "action": "click", "target": "light switch", "details": "", "automation_instruction": "toggle"}],
	"estimated_time": "5 seconds",
	"prerequisites": [],
	"automation_ready": true
}`

// loudPCM returns n samples of constant-amplitude 16-bit mono PCM,
// well above the silence threshold.
func loudPCM(n int, amp int16) []byte {
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(amp))
	}
	return out
}

type pipeline struct {
	asst   *Assistant
	hub    *relay.Hub
	events *eventLog
	trans  *transcriber.Fake
	chat   *llm.Fake
	store  *workflow.Store
	met    *metrics.Metrics
	cfg    *config.Config
}

func newPipeline(t *testing.T, pcm []byte, transcripts []string) *pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.WindowSeconds = 1
	cfg.DataDir = t.TempDir()

	hub := relay.NewHub(nil)
	t.Cleanup(hub.Close)
	events := &eventLog{}
	hub.Subscribe(events.listen)

	met := metrics.New(prometheus.NewRegistry())
	trans := transcriber.NewFake(transcripts, nil)
	chat := llm.NewFakeClient().Respond("gpt-4o", validWorkflowJSON)
	store := workflow.NewStore(cfg.DataDir)
	engine := workflow.NewEngine(chat, cfg, store, met)

	asst := New(cfg, audio.NewFakeContext(pcm, "test mic"), trans, engine, chat, hub, met)
	asst.pacer.sleep = func(time.Duration) {}
	return &pipeline{asst: asst, hub: hub, events: events, trans: trans,
		chat: chat, store: store, met: met, cfg: cfg}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPipelineTranscribesAndGeneratesWorkflow(t *testing.T) {
	windowSamples := int(config.Default().SampleRate) // one 1s window
	p := newPipeline(t, loudPCM(windowSamples, 1000), []string{"turn on the light"})

	if err := p.asst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "final transcript", func() bool {
		return len(p.events.texts(relay.FinalTranscript, "text")) > 0
	})
	p.asst.Stop()
	p.asst.Drain()

	finals := p.events.texts(relay.FinalTranscript, "text")
	if len(finals) != 1 || finals[0] != "turn on the light" {
		t.Errorf("finals = %v", finals)
	}

	// Partials must arrive as growing prefixes, all before the final.
	all := p.events.snapshot()
	lastPartial, finalIdx := -1, -1
	for i, ev := range all {
		switch ev.Type {
		case relay.PartialTranscript:
			lastPartial = i
		case relay.FinalTranscript:
			finalIdx = i
		}
	}
	if finalIdx < lastPartial {
		t.Error("final transcript arrived before the last partial")
	}
	wantPartials := []string{"turn", "turn on", "turn on the", "turn on the light"}
	partials := p.events.texts(relay.PartialTranscript, "text")
	if len(partials) != len(wantPartials) {
		t.Fatalf("partials = %v", partials)
	}
	for i := range wantPartials {
		if partials[i] != wantPartials[i] {
			t.Errorf("partial %d = %q, want %q", i, partials[i], wantPartials[i])
		}
	}

	waitFor(t, "workflow generated event", func() bool {
		for _, ev := range p.events.snapshot() {
			if ev.Type == relay.WorkflowGenerated {
				return true
			}
		}
		return false
	})
	if stages := p.events.texts(relay.WorkflowProgress, "stage"); len(stages) < 4 {
		t.Errorf("progress stages = %v", stages)
	}
	var generated []workflow.Result
	for _, ev := range p.events.snapshot() {
		if ev.Type == relay.WorkflowGenerated {
			generated = append(generated, ev.Data.(workflow.Result))
		}
	}
	if len(generated) != 1 {
		t.Fatalf("workflow_generated events = %d, want 1", len(generated))
	}
	if !generated[0].Success || generated[0].Workflow.Title != "Light Control" {
		t.Errorf("generated = %+v", generated[0])
	}

	paths, err := p.store.List()
	if err != nil || len(paths) != 1 {
		t.Errorf("stored records = %v, %v", paths, err)
	}

	data, err := os.ReadFile(p.asst.TranscriptPath())
	if err != nil {
		t.Fatalf("read transcript file: %v", err)
	}
	if !strings.Contains(string(data), "User: turn on the light") {
		t.Errorf("transcript file missing utterance:\n%s", data)
	}
}

func TestPipelineSkipsSilentWindows(t *testing.T) {
	p := newPipeline(t, nil, nil) // pure silence

	if err := p.asst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, "two silent windows", func() bool {
		return testutil.ToFloat64(p.met.WindowsSilent) >= 2
	})
	p.asst.Stop()
	p.asst.Drain()

	if n := p.trans.CallCount(); n != 0 {
		t.Errorf("transcriber called %d times for silence", n)
	}
	if n := len(p.chat.Calls); n != 0 {
		t.Errorf("empty session should not generate a workflow, %d model calls", n)
	}
	for _, ev := range p.events.snapshot() {
		if ev.Type == relay.WorkflowGenerated {
			t.Error("unexpected workflow_generated event for empty session")
		}
	}
	if paths, _ := p.store.List(); len(paths) != 0 {
		t.Errorf("store should be empty, found %v", paths)
	}
}

func TestPipelineDiscardsPartialWindowOnStop(t *testing.T) {
	p := newPipeline(t, loudPCM(4000, 1000), []string{"should never appear"})
	p.cfg.WindowSeconds = 10 // window far longer than the test runs

	if err := p.asst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Let a few chunks arrive, then stop well before the window fills.
	time.Sleep(50 * time.Millisecond)
	p.asst.Stop()
	p.asst.Drain()

	if n := p.trans.CallCount(); n != 0 {
		t.Errorf("partial window was transcribed (%d calls)", n)
	}
	if got := testutil.ToFloat64(p.met.WindowsAborted); got != 1 {
		t.Errorf("aborted windows = %v, want 1", got)
	}
}

func TestSendTextConversationTurn(t *testing.T) {
	p := newPipeline(t, nil, nil)
	p.chat.Respond(chatModel, "You spent most of the hour in the editor.")

	reply, err := p.asst.SendText(context.Background(), "what did I work on?")
	if err != nil {
		t.Fatalf("SendText: %v", err)
	}
	if reply != "You spent most of the hour in the editor." {
		t.Errorf("reply = %q", reply)
	}

	data, err := os.ReadFile(p.asst.TranscriptPath())
	if err != nil {
		t.Fatalf("read transcript file: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "User: what did I work on?") ||
		!strings.Contains(text, "Assistant: You spent most of the hour in the editor.") {
		t.Errorf("transcript file missing turn:\n%s", text)
	}

	if p.chat.Calls[len(p.chat.Calls)-1] != chatModel {
		t.Errorf("conversation used model %q", p.chat.Calls[len(p.chat.Calls)-1])
	}
	if p.chat.LastMsgs[0].Role != "system" {
		t.Error("conversation should lead with the system prompt")
	}
}

func TestStartIsIdempotent(t *testing.T) {
	p := newPipeline(t, nil, nil)
	if err := p.asst.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.asst.Start(); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if !p.asst.Running() {
		t.Error("assistant should be running")
	}
	p.asst.Stop()
	p.asst.Stop() // stopping twice is fine
	if p.asst.Running() {
		t.Error("assistant should be stopped")
	}
}
