package assistant

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// TranscriptLog writes the human-readable conversation record, one
// file per session under <dataDir>/transcripts.
type TranscriptLog struct {
	path string

	mu  sync.Mutex
	now func() time.Time
}

// OpenTranscriptLog creates a new timestamped conversation file with a
// header line.
func OpenTranscriptLog(dataDir string) (*TranscriptLog, error) {
	dir := filepath.Join(dataDir, "transcripts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create transcripts dir: %w", err)
	}
	now := time.Now()
	path := filepath.Join(dir, fmt.Sprintf("conversation_%s.txt", now.Format("20060102_150405")))

	header := fmt.Sprintf("Voice Assistant Conversation - %s\n%s\n\n",
		now.Format("2006-01-02 15:04:05"), strings.Repeat("=", 80))
	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("create transcript file: %w", err)
	}
	return &TranscriptLog{path: path, now: time.Now}, nil
}

func (t *TranscriptLog) Path() string { return t.path }

// Write appends one timestamped utterance.
func (t *TranscriptLog) Write(speaker, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, err := os.OpenFile(t.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "[%s] %s: %s\n\n", t.now().Format("15:04:05"), speaker, text)
	return err
}

// TranscriptInfo describes one stored conversation file.
type TranscriptInfo struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Created  string `json:"created"`
}

// ListTranscripts returns stored conversation files, newest first.
func ListTranscripts(dataDir string) ([]TranscriptInfo, error) {
	dir := filepath.Join(dataDir, "transcripts")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var infos []TranscriptInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, TranscriptInfo{
			Filename: e.Name(),
			Path:     filepath.Join(dir, e.Name()),
			Size:     fi.Size(),
			Created:  fi.ModTime().Format(time.RFC3339),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Created > infos[j].Created })
	return infos, nil
}
