package transcriber

import (
	"context"
	"sync"
)

// Fake returns queued transcripts in order, recording every call. Used
// by pipeline tests.
type Fake struct {
	mu      sync.Mutex
	queue   []string
	err     error
	lang    string
	Calls   int
	Windows [][]byte
}

func NewFake(transcripts []string, err error) *Fake {
	return &Fake{queue: transcripts, err: err}
}

func (f *Fake) Name() string            { return "fake" }
func (f *Fake) SetLanguage(lang string) { f.lang = lang }
func (f *Fake) GetLanguage() string     { return f.lang }

func (f *Fake) Transcribe(_ context.Context, audioData []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.Windows = append(f.Windows, audioData)
	if f.err != nil {
		return "", f.err
	}
	if len(f.queue) == 0 {
		return "", nil
	}
	text := f.queue[0]
	f.queue = f.queue[1:]
	return text, nil
}

// CallCount returns the number of Transcribe invocations.
func (f *Fake) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls
}
