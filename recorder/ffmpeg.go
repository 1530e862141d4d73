package recorder

import (
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"time"

	"worklens/log"
)

// FFmpeg records the primary display with the platform's native grab
// device.
type FFmpeg struct {
	// Binary defaults to "ffmpeg" on PATH.
	Binary string
}

func NewFFmpeg() *FFmpeg {
	return &FFmpeg{Binary: "ffmpeg"}
}

// grabArgs selects the screen capture input for the current platform.
func grabArgs(fps int) []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"-f", "avfoundation", "-framerate", fmt.Sprint(fps), "-capture_cursor", "1", "-i", "1:none"}
	case "windows":
		return []string{"-f", "gdigrab", "-framerate", fmt.Sprint(fps), "-i", "desktop"}
	default:
		return []string{"-f", "x11grab", "-framerate", fmt.Sprint(fps), "-i", ":0.0"}
	}
}

// Record runs ffmpeg until stop closes, then asks it to finalize the
// container by sending "q" on stdin. A recorder that ignores the quit
// request is killed after a grace period.
func (f *FFmpeg) Record(outputPath string, fps int, stop <-chan struct{}) error {
	args := grabArgs(fps)
	args = append(args, "-r", fmt.Sprint(fps), "-pix_fmt", "yuv420p", "-y", outputPath)

	cmd := exec.Command(f.Binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	log.Infof("screen recording started: %s (%d fps)", outputPath, fps)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return fmt.Errorf("ffmpeg exited early: %w", err)
	case <-stop:
	}

	io.WriteString(stdin, "q")
	stdin.Close()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		return nil
	case <-time.After(5 * time.Second):
		cmd.Process.Kill()
		<-done
		return fmt.Errorf("ffmpeg did not stop cleanly, killed")
	}
}

// Snapshot grabs one frame to outputPath.
func (f *FFmpeg) Snapshot(outputPath string) error {
	args := grabArgs(1)
	args = append(args, "-frames:v", "1", "-y", outputPath)
	out, err := exec.Command(f.Binary, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg snapshot: %w (%s)", err, firstLine(out))
	}
	return nil
}

func firstLine(b []byte) string {
	for i, c := range b {
		if c == '\n' {
			return string(b[:i])
		}
	}
	return string(b)
}
