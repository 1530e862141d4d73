package encoder

import (
	"bytes"
	"testing"

	"github.com/mewkiz/flac"
)

func TestFlacEncodeDecode(t *testing.T) {
	enc, err := NewFlac(16000)
	if err != nil {
		t.Fatalf("NewFlac: %v", err)
	}

	block := make([]int16, BlockSize)
	for i := range block {
		block[i] = int16((i * 37) % 4096)
	}
	if err := enc.EncodeBlock(block); err != nil {
		t.Fatalf("EncodeBlock: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if enc.TotalFrames() != uint64(len(block)) {
		t.Errorf("TotalFrames = %d, want %d", enc.TotalFrames(), len(block))
	}

	stream, err := flac.Parse(bytes.NewReader(enc.Bytes()))
	if err != nil {
		t.Fatalf("parsing encoded flac: %v", err)
	}
	if stream.Info.SampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", stream.Info.SampleRate)
	}
	if stream.Info.NChannels != Channels {
		t.Errorf("channels = %d, want %d", stream.Info.NChannels, Channels)
	}

	f, err := stream.ParseNext()
	if err != nil {
		t.Fatalf("decoding first frame: %v", err)
	}
	if len(f.Subframes) != 1 {
		t.Fatalf("subframes = %d, want 1", len(f.Subframes))
	}
	for i, want := range block[:16] {
		if got := int16(f.Subframes[0].Samples[i]); got != want {
			t.Fatalf("sample %d = %d, want %d", i, got, want)
		}
	}
}
