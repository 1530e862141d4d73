package vision

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ExtractFrames samples n JPEG frames at even intervals using ffmpeg,
// skipping the very start and end of the video.
func ExtractFrames(videoPath string, n int) ([][]byte, error) {
	duration, err := probeDuration(videoPath)
	if err != nil {
		return nil, err
	}
	if duration <= 0 || n < 1 {
		return nil, nil
	}

	tmp, err := os.MkdirTemp("", "worklens-frames-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	var frames [][]byte
	for i := 1; i <= n; i++ {
		at := duration * float64(i) / float64(n+1)
		out := filepath.Join(tmp, fmt.Sprintf("frame%d.jpg", i))
		cmd := exec.Command("ffmpeg",
			"-ss", fmt.Sprintf("%.3f", at),
			"-i", videoPath,
			"-frames:v", "1",
			"-q:v", "7",
			"-y", out)
		if err := cmd.Run(); err != nil {
			continue
		}
		data, err := os.ReadFile(out)
		if err != nil || len(data) == 0 {
			continue
		}
		frames = append(frames, data)
	}
	return frames, nil
}

func probeDuration(videoPath string) (float64, error) {
	out, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		videoPath).Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", videoPath, err)
	}
	dur, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", strings.TrimSpace(string(out)), err)
	}
	return dur, nil
}
