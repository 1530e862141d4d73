package tracker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// JSONL appends usage entries to a flat JSON-lines file under the data
// dir.
type JSONL struct {
	path string
	mu   sync.Mutex
}

func NewJSONL(dataDir string) *JSONL {
	return &JSONL{path: filepath.Join(dataDir, "usage.jsonl")}
}

func (j *JSONL) Path() string { return j.path }

func (j *JSONL) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = f.Write(append(data, '\n'))
	return err
}

// ReadAll loads every entry in the usage log. A missing log reads as
// empty.
func (j *JSONL) ReadAll() ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			// A torn write at the tail should not hide the rest.
			continue
		}
		entries = append(entries, e)
	}
	return entries, scanner.Err()
}

// Summary aggregates total seconds per application.
func (j *JSONL) Summary() (map[string]float64, error) {
	entries, err := j.ReadAll()
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64, len(entries))
	for _, e := range entries {
		totals[e.App] += e.Seconds
	}
	return totals, nil
}
