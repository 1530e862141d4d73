package workflow

import (
	"context"
	"encoding/json"
	"strings"

	"worklens/config"
	"worklens/llm"
	"worklens/log"
	"worklens/metrics"
)

// Result is the outcome of a synthesis run. A Result always carries a
// usable workflow: failed runs carry the fallback with Success false.
type Result struct {
	Transcript    string `json:"transcript"`
	VideoAnalysis string `json:"video_analysis,omitempty"`
	Workflow      Spec   `json:"workflow"`
	RecordFile    string `json:"workflow_file"`
	Model         string `json:"model,omitempty"`
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
}

// Engine synthesizes workflows from transcripts and video analyses,
// walking the configured model list until one succeeds.
type Engine struct {
	single   *llm.Chain
	combined *llm.Chain
	store    *Store
	met      *metrics.Metrics
}

func NewEngine(client llm.Client, cfg *config.Config, store *Store, met *metrics.Metrics) *Engine {
	single := llm.NewChain(client, cfg.Models, cfg.SingleTimeout())
	single.Observe = func(a llm.Attempt) {
		log.ModelAttempt(a.Model, a.Elapsed.Milliseconds(), a.Err)
		if met != nil {
			outcome := "ok"
			if a.Err != nil {
				outcome = "error"
			}
			met.ModelAttempts.WithLabelValues(a.Model, outcome).Inc()
		}
	}
	return &Engine{
		single:   single,
		combined: single.WithTimeout(cfg.CombinedTimeout()),
		store:    store,
		met:      met,
	}
}

// Generate synthesizes a workflow from a voice transcript. Transcripts
// shorter than 10 characters after trimming are not sent to a model;
// they produce the fallback workflow directly, and failed runs are
// never written to the store.
func (e *Engine) Generate(ctx context.Context, transcript string) Result {
	if len(strings.TrimSpace(transcript)) < 10 {
		log.Warn("workflow generation skipped, transcript too short")
		return e.fail(transcript, "", "Transcript is too short or empty")
	}

	messages := []llm.Message{
		{Role: "system", Content: generateSystem},
		{Role: "user", Content: generatePrompt(transcript)},
	}
	res, err := e.single.Complete(ctx, messages, llm.Options{
		MaxTokens:   2000,
		Temperature: 0.3,
		JSONOnly:    true,
	})
	if err != nil {
		return e.fail(transcript, "", err.Error())
	}

	spec, err := e.parseSpec(res.Text, defaultTitle, truncate(transcript, 100))
	if err != nil {
		return e.fail(transcript, "", err.Error())
	}

	rec := Record{Source: "single", Transcript: transcript, Workflow: spec}
	path, err := e.store.Save(rec)
	if err != nil {
		log.Errorf("save workflow record: %v", err)
	}
	if e.met != nil {
		e.met.WorkflowsGenerated.Inc()
	}
	log.WorkflowGenerated("single", spec.Title, path, len(spec.Steps), true)
	return Result{
		Transcript: transcript,
		Workflow:   spec,
		RecordFile: path,
		Model:      res.Model,
		Success:    true,
	}
}

// GenerateCombined merges a voice transcript with a video analysis into
// one de-duplicated workflow, treating the video as ground truth.
func (e *Engine) GenerateCombined(ctx context.Context, voiceTranscript, videoAnalysis string) Result {
	messages := []llm.Message{
		{Role: "system", Content: combinedSystem},
		{Role: "user", Content: combinedPrompt(voiceTranscript, videoAnalysis)},
	}
	res, err := e.combined.Complete(ctx, messages, llm.Options{
		MaxTokens:   3000,
		Temperature: 0.3,
		JSONOnly:    true,
	})
	if err != nil {
		return e.fail(voiceTranscript, videoAnalysis, "Combined workflow generation failed: "+err.Error())
	}

	spec, err := e.parseSpec(res.Text, defaultCombinedTitle, "Workflow generated from voice and video")
	if err != nil {
		return e.fail(voiceTranscript, videoAnalysis, "Combined workflow generation failed: "+err.Error())
	}

	rec := Record{
		Source:        "combined",
		Transcript:    voiceTranscript,
		VideoAnalysis: videoAnalysis,
		Workflow:      spec,
	}
	path, err := e.store.Save(rec)
	if err != nil {
		log.Errorf("save combined workflow record: %v", err)
	}
	if e.met != nil {
		e.met.WorkflowsGenerated.Inc()
	}
	log.WorkflowGenerated("combined", spec.Title, path, len(spec.Steps), true)
	return Result{
		Transcript:    voiceTranscript,
		VideoAnalysis: videoAnalysis,
		Workflow:      spec,
		RecordFile:    path,
		Model:         res.Model,
		Success:       true,
	}
}

// ExtractKeyTerms pulls key terms and actions out of a transcript.
// Failures degrade to an empty list, never an error.
func (e *Engine) ExtractKeyTerms(ctx context.Context, transcript string) []string {
	if strings.TrimSpace(transcript) == "" {
		return nil
	}
	messages := []llm.Message{
		{Role: "system", Content: extractSystem},
		{Role: "user", Content: extractPrompt(transcript)},
	}
	res, err := e.single.Complete(ctx, messages, llm.Options{
		MaxTokens:   500,
		Temperature: 0.3,
		JSONOnly:    true,
	})
	if err != nil {
		log.Warnf("key term extraction failed: %v", err)
		return nil
	}
	raw, err := extractJSON(res.Text)
	if err != nil {
		return nil
	}
	var parsed struct {
		Terms []string `json:"terms"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil
	}
	return parsed.Terms
}

func (e *Engine) parseSpec(text, fallbackTitle, fallbackDescription string) (Spec, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return Spec{}, err
	}
	return specFromJSON(raw, fallbackTitle, fallbackDescription)
}

func (e *Engine) fail(transcript, videoAnalysis, reason string) Result {
	log.Errorf("workflow generation failed: %s", reason)
	if e.met != nil {
		e.met.WorkflowsFallback.Inc()
	}
	spec := Fallback(transcript, reason)
	log.WorkflowGenerated("fallback", spec.Title, "", len(spec.Steps), false)
	return Result{
		Transcript:    transcript,
		VideoAnalysis: videoAnalysis,
		Workflow:      spec,
		Success:       false,
		Error:         reason,
	}
}
