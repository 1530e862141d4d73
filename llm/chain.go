package llm

import (
	"context"
	"fmt"
	"time"
)

// Attempt records one model try within a chain call.
type Attempt struct {
	Model   string
	Elapsed time.Duration
	Err     error
}

// Result is the outcome of a chain call: the first successful
// completion plus the full attempt history.
type Result struct {
	Text     string
	Model    string
	Attempts []Attempt
}

// Failures counts attempts that errored before the success (or all of
// them when the whole chain failed).
func (r Result) Failures() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Err != nil {
			n++
		}
	}
	return n
}

// Chain tries an ordered list of models, most to least capable, and
// stops at the first success. Each attempt is independently
// time-bounded; failures advance to the next model.
type Chain struct {
	client  Client
	models  []string
	timeout time.Duration

	// Observe, when set, is called after every attempt. Used for
	// logging and metrics at the call site.
	Observe func(a Attempt)
}

func NewChain(client Client, models []string, timeout time.Duration) *Chain {
	return &Chain{client: client, models: models, timeout: timeout}
}

// WithTimeout returns a copy of the chain using a different per-attempt
// timeout.
func (c *Chain) WithTimeout(timeout time.Duration) *Chain {
	return &Chain{client: c.client, models: c.models, timeout: timeout, Observe: c.Observe}
}

// Complete walks the model list until one attempt succeeds. When every
// model fails, the returned error wraps the last attempt's error.
func (c *Chain) Complete(ctx context.Context, messages []Message, opts Options) (Result, error) {
	result := Result{}
	if len(c.models) == 0 {
		return result, fmt.Errorf("no models configured")
	}

	var lastErr error
	for _, model := range c.models {
		attemptCtx := ctx
		cancel := context.CancelFunc(func() {})
		if c.timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
		}

		start := time.Now()
		text, err := c.client.Complete(attemptCtx, model, messages, opts)
		cancel()

		attempt := Attempt{Model: model, Elapsed: time.Since(start), Err: err}
		result.Attempts = append(result.Attempts, attempt)
		if c.Observe != nil {
			c.Observe(attempt)
		}

		if err == nil {
			result.Text = text
			result.Model = model
			return result, nil
		}
		lastErr = err

		// A cancelled parent context ends the chain; the next model
		// would fail the same way.
		if ctx.Err() != nil {
			break
		}
	}
	return result, fmt.Errorf("all models failed: %w", lastErr)
}
