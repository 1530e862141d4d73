package vision

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Package is a saved analysis: the markdown description bundled with a
// copy of the source video in its own folder.
type Package struct {
	Folder   string `json:"folder"`
	Markdown string `json:"markdown"`
	Video    string `json:"video"`
	Title    string `json:"title"`
}

// SavePackage writes the analysis as markdown next to a copy of the
// video, under <dataDir>/analyses/<timestamp>_<title>/.
func SavePackage(dataDir, videoPath, analysis, title string) (*Package, error) {
	if title == "" {
		title = "Analysis_" + time.Now().Format("20060102_150405")
	}

	folder := filepath.Join(dataDir, "analyses",
		fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), title))
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("create analysis folder: %w", err)
	}

	videoName := filepath.Base(videoPath)
	videoDest := filepath.Join(folder, videoName)
	if err := copyFile(videoPath, videoDest); err != nil {
		return nil, fmt.Errorf("copy video: %w", err)
	}

	mdPath := filepath.Join(folder, title+".md")
	content := fmt.Sprintf("# %s\n\n**Generated:** %s\n\n**Source Video:** %s\n\n---\n\n%s\n",
		strings.ReplaceAll(title, "_", " "),
		time.Now().Format("2006-01-02 15:04:05"),
		videoName,
		analysis)
	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write analysis markdown: %w", err)
	}

	return &Package{Folder: folder, Markdown: mdPath, Video: videoDest, Title: title}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
