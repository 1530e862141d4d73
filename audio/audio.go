// Package audio abstracts microphone capture. Backends deliver raw
// 16-bit little-endian PCM to a data callback; everything above this
// package works in frames, not device buffers.
package audio

type DataCallback func(data []byte, frameCount uint32)

type CaptureConfig struct {
	SampleRate uint32
	Channels   uint32
}

type DeviceInfo struct {
	ID      string // opaque platform-specific identifier
	Name    string
	Default bool
}

type Context interface {
	Devices() ([]DeviceInfo, error)
	// DefaultDevice resolves the system default input device. Sessions
	// report its name once through the device-info event.
	DefaultDevice() (DeviceInfo, error)
	NewCapture(device *DeviceInfo, config CaptureConfig) (CaptureDevice, error)
	Close()
}

type CaptureDevice interface {
	Start() error
	Stop()
	Close()
	SetCallback(cb DataCallback)
	ClearCallback()
	DeviceName() string
}
