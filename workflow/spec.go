// Package workflow turns free-text activity descriptions into
// structured, validated automation workflows via an LLM fallback
// chain.
package workflow

import (
	"encoding/json"
	"fmt"
)

// ManualReviewAction marks the single step of a fallback workflow.
const ManualReviewAction = "note"

// Step is one ordered action within a workflow.
type Step struct {
	StepNumber            int    `json:"step_number"`
	Action                string `json:"action"`
	Target                string `json:"target"`
	Details               string `json:"details"`
	AutomationInstruction string `json:"automation_instruction"`
	// Source tags merged steps: "voice", "video" or "combined". Only
	// set by combined synthesis.
	Source string `json:"source,omitempty"`
}

// Spec is a validated workflow. All six top-level fields are always
// present; missing fields in model output are filled with defaults
// rather than rejected.
type Spec struct {
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Steps           []Step   `json:"steps"`
	EstimatedTime   string   `json:"estimated_time"`
	Prerequisites   []string `json:"prerequisites"`
	AutomationReady bool     `json:"automation_ready"`
}

// defaults for fields the model omitted. The description default is
// derived from the input transcript by the caller.
const (
	defaultTitle         = "Generated Workflow"
	defaultCombinedTitle = "Combined Workflow"
	defaultEstimatedTime = "Unknown"
)

// specFromJSON validates that raw is a JSON object and builds a Spec,
// injecting defaults for any of the six required fields that are
// missing. Present fields are never overwritten.
func specFromJSON(raw []byte, fallbackTitle, fallbackDescription string) (Spec, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Spec{}, fmt.Errorf("workflow is not a JSON object: %w", err)
	}
	if fields == nil {
		return Spec{}, fmt.Errorf("workflow is null")
	}

	spec := Spec{
		Title:           fallbackTitle,
		Description:     fallbackDescription,
		Steps:           []Step{},
		EstimatedTime:   defaultEstimatedTime,
		Prerequisites:   []string{},
		AutomationReady: true,
	}

	if raw, ok := fields["title"]; ok {
		json.Unmarshal(raw, &spec.Title)
	}
	if raw, ok := fields["description"]; ok {
		json.Unmarshal(raw, &spec.Description)
	}
	if raw, ok := fields["steps"]; ok {
		var steps []Step
		if err := json.Unmarshal(raw, &steps); err == nil && steps != nil {
			spec.Steps = steps
		}
	}
	if raw, ok := fields["estimated_time"]; ok {
		json.Unmarshal(raw, &spec.EstimatedTime)
	}
	if raw, ok := fields["prerequisites"]; ok {
		var prereqs []string
		if err := json.Unmarshal(raw, &prereqs); err == nil && prereqs != nil {
			spec.Prerequisites = prereqs
		}
	}
	if raw, ok := fields["automation_ready"]; ok {
		json.Unmarshal(raw, &spec.AutomationReady)
	}

	spec.renumberSteps()
	return spec, nil
}

// renumberSteps forces contiguous 1-based step numbers, preserving the
// model's ordering.
func (s *Spec) renumberSteps() {
	for i := range s.Steps {
		s.Steps[i].StepNumber = i + 1
	}
}

// truncate shortens text for embedding in descriptions and fallback
// steps.
func truncate(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[:n] + "..."
}

// Fallback builds the degraded workflow produced when synthesis cannot
// complete: a single manual-review step preserving the raw input.
func Fallback(transcript, reason string) Spec {
	return Spec{
		Title:       "Transcript Not Processed",
		Description: fmt.Sprintf("Could not generate workflow: %s", reason),
		Steps: []Step{
			{
				StepNumber:            1,
				Action:                ManualReviewAction,
				Target:                "Transcript Content",
				Details:               truncate(transcript, 200),
				AutomationInstruction: "Manual review required - AI workflow generation failed",
			},
		},
		EstimatedTime:   defaultEstimatedTime,
		Prerequisites:   []string{"Manual review"},
		AutomationReady: false,
	}
}
