package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const wavHeaderSize = 44

// WAVEncoder writes a RIFF/WAVE container around raw PCM-16 samples.
// The header is written on Close, once the data size is known.
type WAVEncoder struct {
	sampleRate  uint32
	data        bytes.Buffer
	out         []byte
	totalFrames uint64
	closed      bool
}

func NewWAV(sampleRate uint32) *WAVEncoder {
	return &WAVEncoder{sampleRate: sampleRate}
}

func (e *WAVEncoder) EncodeBlock(block []int16) error {
	if e.closed {
		return fmt.Errorf("wav encoder closed")
	}
	buf := make([]byte, len(block)*2)
	for i, s := range block {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	e.data.Write(buf)
	e.totalFrames += uint64(len(block))
	return nil
}

func (e *WAVEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	dataSize := uint32(e.data.Len())
	var out bytes.Buffer
	out.Grow(wavHeaderSize + int(dataSize))

	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(36+dataSize))
	out.WriteString("WAVE")

	out.WriteString("fmt ")
	binary.Write(&out, binary.LittleEndian, uint32(16)) // PCM fmt chunk size
	binary.Write(&out, binary.LittleEndian, uint16(1))  // PCM
	binary.Write(&out, binary.LittleEndian, uint16(Channels))
	binary.Write(&out, binary.LittleEndian, e.sampleRate)
	binary.Write(&out, binary.LittleEndian, e.sampleRate*Channels*BitsPerSample/8) // byte rate
	binary.Write(&out, binary.LittleEndian, uint16(Channels*BitsPerSample/8))      // block align
	binary.Write(&out, binary.LittleEndian, uint16(BitsPerSample))

	out.WriteString("data")
	binary.Write(&out, binary.LittleEndian, dataSize)
	out.Write(e.data.Bytes())

	e.out = out.Bytes()
	return nil
}

func (e *WAVEncoder) Bytes() []byte {
	return e.out
}

func (e *WAVEncoder) TotalFrames() uint64 {
	return e.totalFrames
}

// DecodeWAV parses a mono PCM-16 WAV file back into samples, returning
// the samples and sample rate. Used by tests and the benchmark path.
func DecodeWAV(data []byte) ([]int16, uint32, error) {
	if len(data) < wavHeaderSize {
		return nil, 0, fmt.Errorf("wav too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("not a wav file")
	}
	if string(data[12:16]) != "fmt " {
		return nil, 0, fmt.Errorf("missing fmt chunk")
	}
	if audioFormat := binary.LittleEndian.Uint16(data[20:22]); audioFormat != 1 {
		return nil, 0, fmt.Errorf("unsupported audio format %d", audioFormat)
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); ch != Channels {
		return nil, 0, fmt.Errorf("unsupported channel count %d", ch)
	}
	if bits := binary.LittleEndian.Uint16(data[34:36]); bits != BitsPerSample {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", bits)
	}
	if string(data[36:40]) != "data" {
		return nil, 0, fmt.Errorf("missing data chunk")
	}

	sampleRate := binary.LittleEndian.Uint32(data[24:28])
	dataSize := binary.LittleEndian.Uint32(data[40:44])
	if int(dataSize) > len(data)-wavHeaderSize {
		dataSize = uint32(len(data) - wavHeaderSize)
	}

	samples := make([]int16, dataSize/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[wavHeaderSize+i*2:]))
	}
	return samples, sampleRate, nil
}
