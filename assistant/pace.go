package assistant

import (
	"strings"
	"time"

	"worklens/relay"
)

// WordDelay is the display pause after emitting a word: a 10ms floor
// plus 5ms per character, so longer words linger slightly.
func WordDelay(word string) time.Duration {
	return 10*time.Millisecond + time.Duration(len(word))*5*time.Millisecond
}

// Pacer replays a finished transcription word by word so listeners can
// render it as if it were live. For each word it publishes the word
// itself and the growing prefix, then waits the word's delay.
type Pacer struct {
	hub   *relay.Hub
	sleep func(time.Duration)
	now   func() time.Time
}

func NewPacer(hub *relay.Hub) *Pacer {
	return &Pacer{hub: hub, sleep: time.Sleep, now: time.Now}
}

// Emit paces out the words of text. The final-transcript event is the
// caller's to publish once Emit returns.
func (p *Pacer) Emit(text string) {
	words := strings.Fields(text)
	prefix := ""
	for _, word := range words {
		p.hub.Publish(relay.Event{Type: relay.WordDetected, Data: map[string]any{
			"word":      word,
			"timestamp": p.now().Format(time.RFC3339),
		}})

		if prefix != "" {
			prefix += " "
		}
		prefix += word
		p.hub.Publish(relay.Event{Type: relay.PartialTranscript, Data: map[string]any{
			"text": prefix,
		}})

		p.sleep(WordDelay(word))
	}
}
