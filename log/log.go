// Package log provides file-backed diagnostic logging for worklens.
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: WORKLENS_LOG_PATH environment variable
	envPath := os.Getenv("WORKLENS_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	f, err := os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	diagFile = f

	consoleWriter := zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).With().Timestamp().Int("pid", pid).Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// SessionStart records the start of a voice session.
func SessionStart(sessionID, device string) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", sessionID).
		Str("device", device).
		Msg("session_start")
}

// SessionEnd records the end of a voice session.
func SessionEnd(sessionID string, windows, transcribed int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", sessionID).
		Int("windows", windows).
		Int("transcribed", transcribed).
		Msg("session_end")
}

// Window records the outcome of one captured audio window.
func Window(sessionID string, seq int, durationS float64, speech bool, chars int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("session", sessionID).
		Int("seq", seq).
		Float64("audio_s", durationS).
		Bool("speech", speech).
		Int("chars", chars).
		Msg("window")
}

// ModelAttempt records one attempt against a model in the fallback chain.
func ModelAttempt(model string, elapsedMs int64, err error) {
	if !logReady {
		return
	}
	if err != nil {
		diagLog.Warn().
			Str("model", model).
			Int64("elapsed_ms", elapsedMs).
			Str("error", err.Error()).
			Msg("model_attempt")
		return
	}
	diagLog.Info().
		Str("model", model).
		Int64("elapsed_ms", elapsedMs).
		Msg("model_attempt")
}

// WorkflowGenerated records a completed workflow generation.
func WorkflowGenerated(source, title, file string, steps int, success bool) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("source", source).
		Str("title", title).
		Str("file", file).
		Int("steps", steps).
		Bool("success", success).
		Msg("workflow_generated")
}
