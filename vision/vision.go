// Package vision turns screen recordings into textual activity
// descriptions by sending sampled frames to the Anthropic messages
// API.
package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"worklens/log"
)

const visionModel = "claude-3-haiku-20240307"

const summaryPrompt = `Analyze this screen recording and provide a concise summary of the user's activity.
Focus on:
- What applications or websites were being used
- What tasks or activities the user was performing
- Any notable patterns or workflows observed
- Productivity insights or recommendations

Keep the summary professional and under 200 words.`

const detailedPrompt = `Analyze this screen recording and provide a HYPERSPECIFIC, DETAILED workflow breakdown.

Create a numbered list that captures EVERY action, with exact details:

For each step, include:
- Exact application name (e.g., "Visual Studio Code", "Google Chrome", "File Explorer")
- Specific feature/function used (e.g., "Find and Replace dialog", "Developer Tools", "Address Bar")
- Precise action taken (e.g., "clicked Search button", "typed 'index.html'", "pressed Ctrl+S")
- Any visible text, file names, or UI elements interacted with

Format your response as:
1. [App Name] - [Function/Feature] - [Specific Action]
2. [App Name] - [Function/Feature] - [Specific Action]
...

Example format:
1. Google Chrome - Address Bar - Typed "github.com"
2. Google Chrome - Navigation - Pressed Enter key
3. Visual Studio Code - File Explorer Panel - Clicked "src" folder
4. Visual Studio Code - Editor Window - Opened "main.py" file
5. Visual Studio Code - Editor - Typed "import sys" on line 1

Be extremely detailed and specific. Capture every observable action, click, keystroke, and navigation.`

// Client sends a prompt plus JPEG frames to a vision-capable model.
type Client interface {
	CompleteVision(ctx context.Context, model, prompt string, frames [][]byte, maxTokens int) (string, error)
}

// FrameExtractor samples n JPEG frames at even intervals from a video.
type FrameExtractor func(videoPath string, n int) ([][]byte, error)

// Analyzer describes recordings. The zero frame extractor is the
// ffmpeg-based one.
type Analyzer struct {
	client  Client
	extract FrameExtractor
}

func New(client Client) *Analyzer {
	return &Analyzer{client: client, extract: ExtractFrames}
}

// Summarize produces a short activity summary from three sampled
// frames.
func (a *Analyzer) Summarize(ctx context.Context, videoPath string) (string, error) {
	return a.describe(ctx, videoPath, summaryPrompt, 3, 300)
}

// DescribeWorkflow produces the numbered step-by-step breakdown used
// as the video side of combined workflow synthesis. Five frames give
// the model enough anchors for per-action detail.
func (a *Analyzer) DescribeWorkflow(ctx context.Context, videoPath string) (string, error) {
	return a.describe(ctx, videoPath, detailedPrompt, 5, 1500)
}

func (a *Analyzer) describe(ctx context.Context, videoPath, prompt string, frames, maxTokens int) (string, error) {
	jpegs, err := a.extract(videoPath, frames)
	if err != nil {
		return "", fmt.Errorf("extract frames: %w", err)
	}
	if len(jpegs) == 0 {
		return "", fmt.Errorf("no frames extracted from %s", videoPath)
	}

	start := time.Now()
	text, err := a.client.CompleteVision(ctx, visionModel, prompt, jpegs, maxTokens)
	if err != nil {
		return "", fmt.Errorf("vision analysis: %w", err)
	}
	log.Infof("video analyzed in %s (%d frames, %d chars)", time.Since(start).Round(time.Millisecond), len(jpegs), len(text))
	return strings.TrimSpace(text), nil
}

// Title asks the model for a short filesystem-safe title for an
// analysis. Failures fall back to a timestamped name.
func (a *Analyzer) Title(ctx context.Context, analysis string) string {
	fallback := "Analysis_" + time.Now().Format("20060102_150405")

	excerpt := analysis
	if len(excerpt) > 500 {
		excerpt = excerpt[:500]
	}
	prompt := "Based on this workflow analysis, generate a short, descriptive title " +
		"(3-6 words, no special characters except hyphens and underscores). " +
		"Just return the title, nothing else:\n\n" + excerpt

	text, err := a.client.CompleteVision(ctx, visionModel, prompt, nil, 50)
	if err != nil {
		log.Warnf("title generation failed: %v", err)
		return fallback
	}
	title := sanitizeTitle(text)
	if title == "" {
		return fallback
	}
	return title
}

// sanitizeTitle reduces model output to a filename-safe title.
func sanitizeTitle(text string) string {
	text = strings.TrimSpace(text)
	text = strings.NewReplacer(`"`, "", "'", "", ":", "-").Replace(text)

	var b strings.Builder
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('_')
		case r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	title := b.String()
	if len(title) > 80 {
		title = title[:80]
	}
	return title
}
