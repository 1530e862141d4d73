package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"worklens/log"
)

// Screen manages one recording session at a time on top of a Recorder.
type Screen struct {
	rec     Recorder
	dataDir string
	fps     int

	mu      sync.Mutex
	stop    chan struct{}
	done    chan error
	current string
}

func NewScreen(rec Recorder, dataDir string, fps int) *Screen {
	return &Screen{rec: rec, dataDir: dataDir, fps: fps}
}

// Active reports whether a recording is in progress.
func (s *Screen) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

// Start begins a new timestamped recording and returns its path.
func (s *Screen) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return s.current, fmt.Errorf("recording already in progress")
	}

	dir := RecordingsDir(s.dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create recordings dir: %w", err)
	}
	path := filepath.Join(dir, timestampName("recording", ".mp4"))

	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.rec.Record(path, s.fps, stop)
	}()

	s.stop = stop
	s.done = done
	s.current = path
	return path, nil
}

// Stop ends the current recording and returns its path. Stopping an
// idle screen is a no-op.
func (s *Screen) Stop() (string, error) {
	s.mu.Lock()
	stop, done, path := s.stop, s.done, s.current
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return "", nil
	}

	close(stop)
	if err := <-done; err != nil {
		log.Errorf("screen recording: %v", err)
		return path, err
	}
	return path, nil
}

// Snapshot captures a still into the screenshots dir and returns its
// path.
func (s *Screen) Snapshot() (string, error) {
	dir := ScreenshotsDir(s.dataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create screenshots dir: %w", err)
	}
	path := filepath.Join(dir, timestampName("screenshot", ".png"))
	if err := s.rec.Snapshot(path); err != nil {
		return "", err
	}
	return path, nil
}
