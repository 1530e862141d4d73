package audio

import (
	"sync"
	"sync/atomic"
	"time"
)

const fakeChunkFrames = 1024

// FakeContext feeds in-memory PCM through the CaptureDevice interface
// for tests. After the buffered audio is exhausted the capture emits
// silence until stopped.
type FakeContext struct {
	pcm  []byte
	name string
}

func NewFakeContext(pcm []byte, deviceName string) *FakeContext {
	if deviceName == "" {
		deviceName = "fake mic"
	}
	return &FakeContext{pcm: pcm, name: deviceName}
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return []DeviceInfo{{ID: "fake", Name: f.name, Default: true}}, nil
}

func (f *FakeContext) DefaultDevice() (DeviceInfo, error) {
	return DeviceInfo{ID: "fake", Name: f.name, Default: true}, nil
}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{pcm: f.pcm, name: f.name}, nil
}

func (f *FakeContext) Close() {}

type FakeCapture struct {
	pcm  []byte
	name string

	callback atomic.Pointer[DataCallback]
	mu       sync.Mutex
	stopCh   chan struct{}
	feedDone chan struct{}
}

func (f *FakeCapture) SetCallback(cb DataCallback) { f.callback.Store(&cb) }
func (f *FakeCapture) ClearCallback()              { f.callback.Store(nil) }
func (f *FakeCapture) DeviceName() string          { return f.name }
func (f *FakeCapture) Close()                      {}

func (f *FakeCapture) Start() error {
	f.mu.Lock()
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	stop, done := f.stopCh, f.feedDone
	f.mu.Unlock()

	chunkBytes := fakeChunkFrames * 2

	go func() {
		defer close(done)
		pos := 0
		silence := make([]byte, chunkBytes)
		for {
			select {
			case <-stop:
				return
			default:
			}

			cb := f.callback.Load()
			if cb == nil {
				time.Sleep(time.Millisecond)
				continue
			}

			if pos < len(f.pcm) {
				end := min(pos+chunkBytes, len(f.pcm))
				chunk := make([]byte, end-pos)
				copy(chunk, f.pcm[pos:end])
				(*cb)(chunk, uint32(len(chunk)/2))
				pos = end
			} else {
				(*cb)(silence, fakeChunkFrames)
			}

			select {
			case <-stop:
				return
			case <-time.After(time.Millisecond):
			}
		}
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	f.mu.Lock()
	stop, done := f.stopCh, f.feedDone
	f.mu.Unlock()
	if stop == nil {
		return
	}
	select {
	case <-stop:
	default:
		close(stop)
	}
	<-done
}
