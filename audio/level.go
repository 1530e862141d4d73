package audio

import (
	"encoding/binary"
	"math"
	"time"
)

// FrameRMS computes root-mean-square amplitude of a 16-bit LE PCM
// frame on the raw sample scale (0..32768).
func FrameRMS(data []byte) float64 {
	n := len(data) / 2
	if n == 0 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(data); i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(data[i:])))
		sumSquares += s * s
	}
	return math.Sqrt(sumSquares / float64(n))
}

// HasSpeech reports whether any frame in the window exceeds the RMS
// threshold. This is a coarse gate to avoid transcribing silence, not
// voice activity detection; quiet speech below the threshold is an
// accepted miss.
func HasSpeech(frames [][]byte, threshold float64) bool {
	for _, f := range frames {
		if FrameRMS(f) > threshold {
			return true
		}
	}
	return false
}

// LevelMeter converts per-frame RMS into a normalized 0..1 loudness
// value for visualization, throttled so downstream observers see at
// most one update per interval.
type LevelMeter struct {
	divisor  float64
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func NewLevelMeter(divisor float64, interval time.Duration) *LevelMeter {
	if divisor <= 0 {
		divisor = 500
	}
	return &LevelMeter{divisor: divisor, interval: interval, now: time.Now}
}

// Process returns the normalized level for the frame and true, or 0 and
// false when the update is throttled.
func (m *LevelMeter) Process(data []byte) (float64, bool) {
	t := m.now()
	if !m.last.IsZero() && t.Sub(m.last) < m.interval {
		return 0, false
	}
	m.last = t

	level := FrameRMS(data) / m.divisor
	if level > 1 {
		level = 1
	}
	return level, true
}
