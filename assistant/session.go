package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Windows shorter than this after transcription are kept out of the
// accumulated transcript used for workflow generation.
const minKeptChars = 5

// Session accumulates transcribed windows for one recording. Window
// results arrive keyed by sequence number; appending the same window
// twice is a no-op, so a retried transcription can never duplicate
// text in the accumulated transcript.
type Session struct {
	ID        string
	Device    string
	StartedAt time.Time

	mu          sync.Mutex
	parts       map[int]string
	windows     int
	transcribed int
}

func NewSession(device string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		Device:    device,
		StartedAt: time.Now(),
		parts:     make(map[int]string),
	}
}

// Append records the final transcript of one window. It returns false
// when the window was already applied. Transcripts at or below the
// keep threshold are counted but contribute nothing to the
// accumulated text.
func (s *Session) Append(seq int, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.parts[seq]; dup {
		return false
	}
	if len(text) > minKeptChars {
		s.parts[seq] = text
	} else {
		s.parts[seq] = ""
	}
	s.transcribed++
	return true
}

// WindowDone counts a completed window, speech or not.
func (s *Session) WindowDone() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows++
	return s.windows
}

// Counts reports completed windows and accepted transcriptions.
func (s *Session) Counts() (windows, transcribed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows, s.transcribed
}

// Transcript joins the kept window texts in sequence order.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxSeq := 0
	for seq := range s.parts {
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	out := ""
	for seq := 1; seq <= maxSeq; seq++ {
		text := s.parts[seq]
		if text == "" {
			continue
		}
		if out != "" {
			out += " "
		}
		out += text
	}
	return out
}
