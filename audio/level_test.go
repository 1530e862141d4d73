package audio

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

func pcmFrame(samples ...int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

func TestFrameRMS(t *testing.T) {
	if got := FrameRMS(nil); got != 0 {
		t.Errorf("FrameRMS(nil) = %v, want 0", got)
	}
	if got := FrameRMS(pcmFrame(0, 0, 0, 0)); got != 0 {
		t.Errorf("FrameRMS(silence) = %v, want 0", got)
	}

	// Constant amplitude: RMS equals the amplitude.
	got := FrameRMS(pcmFrame(100, -100, 100, -100))
	if math.Abs(got-100) > 1e-9 {
		t.Errorf("FrameRMS = %v, want 100", got)
	}
}

func TestHasSpeech(t *testing.T) {
	quiet := pcmFrame(5, -5, 5, -5)
	loud := pcmFrame(1000, -1000, 1000, -1000)

	if HasSpeech([][]byte{quiet, quiet}, 20) {
		t.Error("quiet window classified as speech")
	}
	if !HasSpeech([][]byte{quiet, loud, quiet}, 20) {
		t.Error("window with one loud frame not classified as speech")
	}
	if HasSpeech(nil, 20) {
		t.Error("empty window classified as speech")
	}
}

func TestHasSpeechThresholdBoundary(t *testing.T) {
	// RMS exactly at the threshold must not count as speech; the gate
	// requires strictly greater.
	frame := pcmFrame(20, -20, 20, -20)
	if HasSpeech([][]byte{frame}, 20) {
		t.Error("RMS == threshold should not pass the gate")
	}
	if !HasSpeech([][]byte{frame}, 19.9) {
		t.Error("RMS above threshold should pass the gate")
	}
}

func TestLevelMeterThrottle(t *testing.T) {
	m := NewLevelMeter(500, 50*time.Millisecond)
	now := time.Unix(0, 0)
	m.now = func() time.Time { return now }

	frame := pcmFrame(250, -250, 250, -250)

	level, ok := m.Process(frame)
	if !ok {
		t.Fatal("first update should not be throttled")
	}
	if math.Abs(level-0.5) > 1e-9 {
		t.Errorf("level = %v, want 0.5", level)
	}

	now = now.Add(20 * time.Millisecond)
	if _, ok := m.Process(frame); ok {
		t.Error("update within 50ms should be throttled")
	}

	now = now.Add(40 * time.Millisecond)
	if _, ok := m.Process(frame); !ok {
		t.Error("update after interval should pass")
	}
}

func TestLevelMeterClamp(t *testing.T) {
	m := NewLevelMeter(500, 0)
	level, ok := m.Process(pcmFrame(30000, -30000))
	if !ok {
		t.Fatal("unexpected throttle")
	}
	if level != 1 {
		t.Errorf("level = %v, want clamp to 1", level)
	}
}
