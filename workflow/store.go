package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is the on-disk form of a generated workflow, kept alongside
// the inputs that produced it.
type Record struct {
	ID            string `json:"id"`
	GeneratedAt   string `json:"generated_at"`
	Source        string `json:"source"` // "single" or "combined"
	Transcript    string `json:"transcript"`
	VideoAnalysis string `json:"video_analysis,omitempty"`
	Workflow      Spec   `json:"workflow"`
}

// Store persists workflow records as individual JSON files under a
// workflows directory.
type Store struct {
	dir string

	// now is replaceable for deterministic filenames in tests.
	now func() time.Time
}

func NewStore(dataDir string) *Store {
	return &Store{dir: filepath.Join(dataDir, "workflows"), now: time.Now}
}

// Dir returns the directory records are written to.
func (s *Store) Dir() string { return s.dir }

// Save writes the record and returns the file path. The filename
// carries a timestamp plus a short random suffix so records generated
// within the same second never collide.
func (s *Store) Save(rec Record) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create workflows dir: %w", err)
	}
	now := s.now()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.GeneratedAt == "" {
		rec.GeneratedAt = now.Format(time.RFC3339)
	}

	prefix := "workflow"
	if rec.Source == "combined" {
		prefix = "workflow_combined"
	}
	name := fmt.Sprintf("%s_%s_%s.json", prefix, now.Format("20060102_150405"), rec.ID[:8])
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write workflow record: %w", err)
	}
	return path, nil
}

// Load reads a record back from disk.
func (s *Store) Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("parse workflow record %s: %w", filepath.Base(path), err)
	}
	return rec, nil
}

// List returns the paths of all stored records, newest first.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	type stamped struct {
		path string
		mod  time.Time
	}
	var files []stamped
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, stamped{filepath.Join(s.dir, e.Name()), info.ModTime()})
	}
	// Order by write time, not filename: the single and combined
	// prefixes would otherwise never interleave.
	sort.Slice(files, func(i, j int) bool {
		if !files[i].mod.Equal(files[j].mod) {
			return files[i].mod.After(files[j].mod)
		}
		return files[i].path > files[j].path
	})
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	return paths, nil
}
