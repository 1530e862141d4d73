// Package transcriber sends encoded audio windows to a hosted
// speech-to-text API. One window, one call; failures are non-fatal to
// the session and handled by the caller.
package transcriber

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Transcriber converts one encoded audio window into text. The format
// tag matches encoder.APIFormat ("wav" or "flac").
type Transcriber interface {
	Name() string
	SetLanguage(lang string)
	GetLanguage() string
	Transcribe(ctx context.Context, audioData []byte, format string) (string, error)
}

type baseTranscriber struct {
	client *http.Client
	apiURL string
	lang   string
}

func (b *baseTranscriber) SetLanguage(lang string) { b.lang = lang }

func (b *baseTranscriber) GetLanguage() string { return b.lang }

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}

// New selects a provider from the environment: OpenAI when
// OPENAI_API_KEY is set, Groq when GROQ_API_KEY is set.
func New() (Transcriber, error) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return NewOpenAI(key), nil
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return NewGroq(key), nil
	}
	return nil, fmt.Errorf("set OPENAI_API_KEY or GROQ_API_KEY environment variable")
}
