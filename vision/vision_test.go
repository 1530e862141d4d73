package vision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fakeVision struct {
	reply     string
	err       error
	model     string
	prompt    string
	frames    int
	maxTokens int
}

func (f *fakeVision) CompleteVision(_ context.Context, model, prompt string, frames [][]byte, maxTokens int) (string, error) {
	f.model, f.prompt, f.frames, f.maxTokens = model, prompt, len(frames), maxTokens
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func fakeFrames(n int) FrameExtractor {
	return func(string, int) ([][]byte, error) {
		frames := make([][]byte, n)
		for i := range frames {
			frames[i] = []byte{0xff, 0xd8, byte(i)}
		}
		return frames, nil
	}
}

func TestDescribeWorkflowSendsFiveFrames(t *testing.T) {
	client := &fakeVision{reply: "1. Chrome - Address Bar - Typed url\n"}
	a := New(client)
	a.extract = fakeFrames(5)

	text, err := a.DescribeWorkflow(context.Background(), "video.mp4")
	if err != nil {
		t.Fatalf("DescribeWorkflow: %v", err)
	}
	if text != "1. Chrome - Address Bar - Typed url" {
		t.Errorf("text = %q", text)
	}
	if client.frames != 5 || client.maxTokens != 1500 {
		t.Errorf("frames = %d, maxTokens = %d", client.frames, client.maxTokens)
	}
	if client.model != visionModel {
		t.Errorf("model = %q", client.model)
	}
	if !strings.Contains(client.prompt, "[App Name] - [Function/Feature] - [Specific Action]") {
		t.Error("detailed prompt missing step format")
	}
}

func TestSummarizeSendsThreeFrames(t *testing.T) {
	client := &fakeVision{reply: "summary"}
	a := New(client)
	a.extract = fakeFrames(3)

	if _, err := a.Summarize(context.Background(), "video.mp4"); err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if client.frames != 3 || client.maxTokens != 300 {
		t.Errorf("frames = %d, maxTokens = %d", client.frames, client.maxTokens)
	}
}

func TestDescribeNoFrames(t *testing.T) {
	a := New(&fakeVision{reply: "x"})
	a.extract = fakeFrames(0)
	if _, err := a.Summarize(context.Background(), "video.mp4"); err == nil {
		t.Error("expected error when no frames could be extracted")
	}
}

func TestTitleSanitized(t *testing.T) {
	client := &fakeVision{reply: `"Chrome: Research Session!"`}
	a := New(client)

	title := a.Title(context.Background(), "some analysis text")
	if title != "Chrome-_Research_Session" {
		t.Errorf("title = %q", title)
	}
	if client.maxTokens != 50 {
		t.Errorf("maxTokens = %d", client.maxTokens)
	}
}

func TestTitleFallsBackOnError(t *testing.T) {
	a := New(&fakeVision{err: errors.New("api down")})
	title := a.Title(context.Background(), "analysis")
	if !strings.HasPrefix(title, "Analysis_") {
		t.Errorf("fallback title = %q", title)
	}
}

func TestSavePackage(t *testing.T) {
	dataDir := t.TempDir()
	video := filepath.Join(t.TempDir(), "recording_x.mp4")
	os.WriteFile(video, []byte("mp4"), 0o644)

	pkg, err := SavePackage(dataDir, video, "1. Chrome - Tab - Opened", "Morning_Research")
	if err != nil {
		t.Fatalf("SavePackage: %v", err)
	}
	if pkg.Title != "Morning_Research" {
		t.Errorf("title = %q", pkg.Title)
	}
	if _, err := os.Stat(pkg.Video); err != nil {
		t.Errorf("copied video missing: %v", err)
	}
	md, err := os.ReadFile(pkg.Markdown)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	text := string(md)
	if !strings.Contains(text, "# Morning Research") {
		t.Errorf("markdown heading missing:\n%s", text)
	}
	if !strings.Contains(text, "recording_x.mp4") || !strings.Contains(text, "1. Chrome - Tab - Opened") {
		t.Errorf("markdown content incomplete:\n%s", text)
	}
}
