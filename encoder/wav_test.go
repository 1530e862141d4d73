package encoder

import "testing"

func TestWAVRoundTrip(t *testing.T) {
	enc := NewWAV(16000)

	block := make([]int16, BlockSize)
	for i := range block {
		block[i] = int16(i%2000 - 1000)
	}
	if err := enc.EncodeBlock(block); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := enc.Bytes()
	if len(data) != wavHeaderSize+len(block)*2 {
		t.Fatalf("wav size = %d, want %d", len(data), wavHeaderSize+len(block)*2)
	}

	samples, rate, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV: %v", err)
	}
	if rate != 16000 {
		t.Errorf("sample rate = %d, want 16000", rate)
	}
	if len(samples) != len(block) {
		t.Fatalf("decoded %d samples, want %d", len(samples), len(block))
	}
	for i := range block {
		if samples[i] != block[i] {
			t.Fatalf("sample %d = %d, want %d", i, samples[i], block[i])
		}
	}
}

func TestWAVEncodeAfterClose(t *testing.T) {
	enc := NewWAV(16000)
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := enc.EncodeBlock([]int16{1, 2, 3}); err == nil {
		t.Error("expected error encoding after close")
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeWAV([]byte("not a wav file, nowhere near")); err == nil {
		t.Error("expected error for short data")
	}
	enc := NewWAV(16000)
	enc.EncodeBlock(make([]int16, 64))
	enc.Close()
	data := append([]byte(nil), enc.Bytes()...)
	copy(data[0:4], "JUNK")
	if _, _, err := DecodeWAV(data); err == nil {
		t.Error("expected error for corrupted header")
	}
}

func TestNewSelectsFormat(t *testing.T) {
	for _, format := range []string{"wav", "flac"} {
		t.Run(format, func(t *testing.T) {
			enc, err := New(format, 16000)
			if err != nil {
				t.Fatalf("New(%q): %v", format, err)
			}
			if enc == nil {
				t.Fatalf("New(%q) returned nil", format)
			}
		})
	}
	if _, err := New("mp3", 16000); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestAPIFormat(t *testing.T) {
	if got := APIFormat("flac"); got != "flac" {
		t.Errorf("APIFormat(flac) = %q", got)
	}
	if got := APIFormat("wav"); got != "wav" {
		t.Errorf("APIFormat(wav) = %q", got)
	}
}
