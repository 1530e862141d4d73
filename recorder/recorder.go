// Package recorder captures the screen by shelling out to ffmpeg.
package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Recorder produces screen video and still captures.
type Recorder interface {
	// Record writes video to outputPath until stop closes.
	Record(outputPath string, fps int, stop <-chan struct{}) error
	// Snapshot writes a single still frame to outputPath.
	Snapshot(outputPath string) error
}

// RecordingsDir is where session videos land under the data dir.
func RecordingsDir(dataDir string) string {
	return filepath.Join(dataDir, "recordings")
}

// ScreenshotsDir is where stills land under the data dir.
func ScreenshotsDir(dataDir string) string {
	return filepath.Join(dataDir, "screenshots")
}

// ListRecordings returns all mp4 files under the recordings dir,
// newest modification first.
func ListRecordings(dataDir string) ([]string, error) {
	dir := RecordingsDir(dataDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	type rec struct {
		path string
		mod  time.Time
	}
	var recs []rec
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".mp4") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		recs = append(recs, rec{path: filepath.Join(dir, e.Name()), mod: fi.ModTime()})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].mod.After(recs[j].mod) })

	paths := make([]string, len(recs))
	for i, r := range recs {
		paths[i] = r.path
	}
	return paths, nil
}

// LatestRecording resolves the most recently modified recording, or ""
// when none exist.
func LatestRecording(dataDir string) (string, error) {
	paths, err := ListRecordings(dataDir)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", nil
	}
	return paths[0], nil
}

func timestampName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s%s", prefix, time.Now().Format("20060102_150405"), ext)
}
