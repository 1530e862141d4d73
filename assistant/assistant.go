// Package assistant runs the voice pipeline: capture audio in fixed
// windows, gate out silence, transcribe, replay words at a readable
// pace, and hand the accumulated transcript to workflow synthesis when
// the session stops.
package assistant

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"worklens/audio"
	"worklens/config"
	"worklens/encoder"
	"worklens/llm"
	"worklens/log"
	"worklens/metrics"
	"worklens/relay"
	"worklens/transcriber"
	"worklens/workflow"
)

const (
	// Transcripts below this length are treated as transcription noise
	// and dropped before any events fire.
	minTranscriptChars = 3

	// Accumulated transcripts at or below this length do not trigger
	// workflow generation on stop.
	minWorkflowChars = 10

	levelInterval = 50 * time.Millisecond
)

// Assistant owns one microphone and runs at most one recording session
// at a time.
type Assistant struct {
	cfg    *config.Config
	actx   audio.Context
	trans  transcriber.Transcriber
	engine *workflow.Engine
	hub    *relay.Hub
	met    *metrics.Metrics
	conv   *Conversation
	pacer  *Pacer

	mu       sync.Mutex
	running  bool
	device   *audio.DeviceInfo
	capture  audio.CaptureDevice
	sess     *Session
	translog *TranscriptLog
	stop     chan struct{}

	wg    sync.WaitGroup
	genWG sync.WaitGroup
	level atomic.Uint64 // float64 bits of the latest meter value
}

func New(cfg *config.Config, actx audio.Context, trans transcriber.Transcriber,
	engine *workflow.Engine, chat llm.Client, hub *relay.Hub, met *metrics.Metrics) *Assistant {
	return &Assistant{
		cfg:    cfg,
		actx:   actx,
		trans:  trans,
		engine: engine,
		hub:    hub,
		met:    met,
		conv:   NewConversation(chat),
		pacer:  NewPacer(hub),
	}
}

// UseDevice pins sessions to a specific input device instead of the
// system default.
func (a *Assistant) UseDevice(dev audio.DeviceInfo) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.device = &dev
}

// Running reports whether a recording session is active.
func (a *Assistant) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// TranscriptPath returns the current conversation file, or "" before
// the first session or text turn.
func (a *Assistant) TranscriptPath() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.translog == nil {
		return ""
	}
	return a.translog.Path()
}

// Start opens the default input device and begins a session. Starting
// an active assistant is a no-op.
func (a *Assistant) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}

	var dev audio.DeviceInfo
	if a.device != nil {
		dev = *a.device
	} else {
		var err error
		dev, err = a.actx.DefaultDevice()
		if err != nil {
			return fmt.Errorf("resolve input device: %w", err)
		}
	}
	capture, err := a.actx.NewCapture(&dev, audio.CaptureConfig{
		SampleRate: a.cfg.SampleRate,
		Channels:   a.cfg.Channels,
	})
	if err != nil {
		return fmt.Errorf("open capture device: %w", err)
	}

	if a.translog == nil {
		tlog, err := OpenTranscriptLog(a.cfg.DataDir)
		if err != nil {
			capture.Close()
			return err
		}
		a.translog = tlog
	}

	sess := NewSession(dev.Name)
	frames := make(chan []byte, 64)
	stop := make(chan struct{})
	meter := audio.NewLevelMeter(a.cfg.LevelDivisor, levelInterval)

	capture.SetCallback(func(data []byte, _ uint32) {
		if v, ok := meter.Process(data); ok {
			a.level.Store(math.Float64bits(v))
		}
		// The device thread never blocks; an overrun costs one chunk.
		select {
		case frames <- data:
		default:
		}
	})
	if err := capture.Start(); err != nil {
		capture.Close()
		return fmt.Errorf("start capture: %w", err)
	}

	a.capture = capture
	a.sess = sess
	a.stop = stop
	a.running = true

	a.hub.Publish(relay.Event{Type: relay.DeviceInfo, Data: map[string]any{
		"device_name": dev.Name,
	}})
	a.hub.Publish(relay.Event{Type: relay.RecordingStarted, Data: map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
	}})
	log.SessionStart(sess.ID, dev.Name)

	a.wg.Add(2)
	go a.windowLoop(sess, a.translog, frames, stop)
	go a.broadcastLevels(stop)
	return nil
}

// Stop ends the session. The capture device is released and both
// worker goroutines are awaited before the stopped event fires; the
// workflow generation that may follow runs in the background and is
// deliberately not awaited.
func (a *Assistant) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	capture, sess, stop := a.capture, a.sess, a.stop
	a.capture = nil
	a.mu.Unlock()

	capture.ClearCallback()
	capture.Stop()
	capture.Close()
	close(stop)
	a.wg.Wait()
	a.level.Store(0)

	a.hub.Publish(relay.Event{Type: relay.RecordingStopped, Data: map[string]any{
		"timestamp": time.Now().Format(time.RFC3339),
	}})
	windows, transcribed := sess.Counts()
	log.SessionEnd(sess.ID, windows, transcribed)

	transcript := sess.Transcript()
	if len(transcript) > minWorkflowChars {
		a.genWG.Add(1)
		go a.generateWorkflow(transcript)
	}
}

// Drain waits for background workflow generation to finish. Used on
// shutdown and in tests.
func (a *Assistant) Drain() {
	a.genWG.Wait()
}

// SendText runs one text conversation turn outside the audio pipeline.
func (a *Assistant) SendText(ctx context.Context, text string) (string, error) {
	a.mu.Lock()
	if a.translog == nil {
		tlog, err := OpenTranscriptLog(a.cfg.DataDir)
		if err != nil {
			a.mu.Unlock()
			return "", err
		}
		a.translog = tlog
	}
	tlog := a.translog
	a.mu.Unlock()

	if err := tlog.Write("User", text); err != nil {
		log.Errorf("transcript log: %v", err)
	}
	reply, err := a.conv.Turn(ctx, text)
	if err != nil {
		return "", fmt.Errorf("assistant reply: %w", err)
	}
	if err := tlog.Write("Assistant", reply); err != nil {
		log.Errorf("transcript log: %v", err)
	}
	return reply, nil
}

// ClearHistory forgets the text conversation so far.
func (a *Assistant) ClearHistory() {
	a.conv.Clear()
}

// windowLoop groups incoming chunks into fixed-length windows and
// processes each completed window in order. A partial window at stop
// time is discarded, never transcribed.
func (a *Assistant) windowLoop(sess *Session, tlog *TranscriptLog, frames <-chan []byte, stop <-chan struct{}) {
	defer a.wg.Done()
	windowBytes := int(a.cfg.SampleRate) * a.cfg.WindowSeconds * 2

	var window [][]byte
	total := 0
	seq := 0
	for {
		select {
		case <-stop:
			if total > 0 {
				log.Infof("discarding partial window (%d bytes) on stop", total)
				if a.met != nil {
					a.met.WindowsAborted.Inc()
				}
			}
			return
		case chunk := <-frames:
			window = append(window, chunk)
			total += len(chunk)
			if total < windowBytes {
				continue
			}
			seq++
			a.process(sess, tlog, window, seq, total)
			window, total = nil, 0
		}
	}
}

func (a *Assistant) process(sess *Session, tlog *TranscriptLog, window [][]byte, seq, byteCount int) {
	sess.WindowDone()
	if a.met != nil {
		a.met.WindowsCaptured.Inc()
	}
	durationS := float64(byteCount/2) / float64(a.cfg.SampleRate)

	if !audio.HasSpeech(window, a.cfg.SilenceRMS) {
		log.Window(sess.ID, seq, durationS, false, 0)
		if a.met != nil {
			a.met.WindowsSilent.Inc()
		}
		return
	}

	data, err := a.encodeWindow(window)
	if err != nil {
		log.Errorf("encode window %d: %v", seq, err)
		return
	}

	start := time.Now()
	text, err := a.trans.Transcribe(context.Background(), data, encoder.APIFormat(a.cfg.UploadFormat))
	if a.met != nil {
		a.met.TranscriptionSeconds.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		log.Errorf("transcribe window %d: %v", seq, err)
		if a.met != nil {
			a.met.TranscriptionsFailed.Inc()
		}
		return
	}
	if a.met != nil {
		a.met.TranscriptionsOK.Inc()
	}

	text = strings.TrimSpace(text)
	log.Window(sess.ID, seq, durationS, true, len(text))
	if len(text) < minTranscriptChars {
		return
	}

	a.pacer.Emit(text)
	if err := tlog.Write("User", text); err != nil {
		log.Errorf("transcript log: %v", err)
	}
	a.hub.Publish(relay.Event{Type: relay.FinalTranscript, Data: map[string]any{
		"text": text,
	}})
	sess.Append(seq, text)
}

func (a *Assistant) encodeWindow(window [][]byte) ([]byte, error) {
	enc, err := encoder.New(a.cfg.UploadFormat, a.cfg.SampleRate)
	if err != nil {
		return nil, err
	}
	block := make([]int16, 0, encoder.BlockSize)
	for _, chunk := range window {
		for i := 0; i+1 < len(chunk); i += 2 {
			block = append(block, int16(binary.LittleEndian.Uint16(chunk[i:])))
			if len(block) == encoder.BlockSize {
				if err := enc.EncodeBlock(block); err != nil {
					return nil, err
				}
				block = block[:0]
			}
		}
	}
	if len(block) > 0 {
		if err := enc.EncodeBlock(block); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return enc.Bytes(), nil
}

// broadcastLevels publishes the latest meter value on a fixed cadence
// while the session runs.
func (a *Assistant) broadcastLevels(stop <-chan struct{}) {
	defer a.wg.Done()
	ticker := time.NewTicker(levelInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			level := math.Float64frombits(a.level.Load())
			if level > 0 {
				a.hub.Publish(relay.Event{Type: relay.AudioLevel, Data: map[string]any{
					"level": level,
				}})
			}
		}
	}
}

func (a *Assistant) generateWorkflow(transcript string) {
	defer a.genWG.Done()
	progress := func(stage, message string) {
		a.hub.Publish(relay.Event{Type: relay.WorkflowProgress, Data: map[string]any{
			"stage":   stage,
			"message": message,
		}})
	}

	progress("starting", "Initializing workflow generation...")
	progress("processing", "Analyzing transcript with AI...")
	res := a.engine.Generate(context.Background(), transcript)
	progress("formatting", "Formatting workflow structure...")
	if res.Success {
		progress("completed", "Workflow generation complete!")
	} else {
		progress("error", "Error: "+res.Error)
	}
	a.hub.Publish(relay.Event{Type: relay.WorkflowGenerated, Data: res})
}
