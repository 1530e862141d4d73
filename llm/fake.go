package llm

import (
	"context"
	"fmt"
	"sync"
)

// Fake scripts per-model responses for tests. Models not present in
// the script fail.
type Fake struct {
	mu        sync.Mutex
	responses map[string]string // model -> completion
	errs      map[string]error  // model -> forced error
	Calls     []string          // models tried, in order
	LastMsgs  []Message
	LastOpts  Options
}

func NewFakeClient() *Fake {
	return &Fake{
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

func (f *Fake) Respond(model, text string) *Fake {
	f.responses[model] = text
	return f
}

func (f *Fake) Fail(model string, err error) *Fake {
	f.errs[model] = err
	return f
}

func (f *Fake) Complete(_ context.Context, model string, messages []Message, opts Options) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, model)
	f.LastMsgs = messages
	f.LastOpts = opts
	if err, ok := f.errs[model]; ok {
		return "", err
	}
	if text, ok := f.responses[model]; ok {
		return text, nil
	}
	return "", fmt.Errorf("fake: no response scripted for model %q", model)
}
