// Package llm provides HTTP clients for chat-completion APIs and the
// ordered model fallback chain used by workflow synthesis.
package llm

import (
	"context"
	"net/http"
	"time"
)

// Message represents a role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options configures a single completion call.
type Options struct {
	MaxTokens   int
	Temperature float64
	JSONOnly    bool // ask the API to return a bare JSON object
}

// Client performs a chat completion against a named model.
type Client interface {
	Complete(ctx context.Context, model string, messages []Message, opts Options) (string, error)
}

func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}
}
