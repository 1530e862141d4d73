// Package encoder serializes captured PCM windows into the audio
// containers accepted by the transcription API.
package encoder

import "fmt"

const (
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096
)

// Encoder accumulates 16-bit mono PCM blocks and produces an encoded
// audio file on Close.
type Encoder interface {
	EncodeBlock(block []int16) error
	Close() error
	Bytes() []byte
	TotalFrames() uint64
}

// New returns an encoder for the given upload format.
func New(format string, sampleRate uint32) (Encoder, error) {
	switch format {
	case "wav":
		return NewWAV(sampleRate), nil
	case "flac":
		return NewFlac(sampleRate)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// APIFormat maps an upload format to the file extension/content type
// tag sent to the transcription API.
func APIFormat(format string) string {
	if format == "flac" {
		return "flac"
	}
	return "wav"
}
