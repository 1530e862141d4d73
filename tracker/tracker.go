// Package tracker samples the foreground application and accumulates
// per-app usage, flushing one entry to the usage log on every app
// switch.
package tracker

import (
	"sync"
	"time"

	"worklens/log"
)

// ActiveAppFunc resolves the current foreground application name. An
// empty name with nil error means no window has focus.
type ActiveAppFunc func() (string, error)

// Entry is one contiguous stretch of time spent in an application.
type Entry struct {
	App       string  `json:"app"`
	Seconds   float64 `json:"seconds"`
	Timestamp string  `json:"timestamp"`
}

// Sink receives completed usage entries.
type Sink interface {
	Append(Entry) error
}

const pollInterval = time.Second

// Tracker polls the active application once a second.
type Tracker struct {
	active ActiveAppFunc
	sink   Sink
	now    func() time.Time

	mu       sync.Mutex
	lastApp  string
	lastTime time.Time
	stop     chan struct{}
	done     chan struct{}
}

func New(active ActiveAppFunc, sink Sink) *Tracker {
	return &Tracker{active: active, sink: sink, now: time.Now}
}

// Start launches the polling loop. Starting a running tracker is a
// no-op.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})
	t.done = make(chan struct{})
	t.lastTime = t.now()
	go t.loop(t.stop, t.done)
}

// Stop halts polling and flushes the in-progress stretch.
func (t *Tracker) Stop() {
	t.mu.Lock()
	stop, done := t.stop, t.done
	t.stop, t.done = nil, nil
	t.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
	t.mu.Lock()
	t.flushLocked(t.now())
	t.mu.Unlock()
}

func (t *Tracker) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.poll()
		}
	}
}

// poll records an app switch: the time spent in the previous app is
// flushed and the clock restarts on the new one.
func (t *Tracker) poll() {
	current, err := t.active()
	if err != nil {
		log.Warnf("active app lookup: %v", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	if current == t.lastApp {
		return
	}
	t.flushLocked(now)
	t.lastApp = current
	t.lastTime = now
}

func (t *Tracker) flushLocked(now time.Time) {
	if t.lastApp == "" {
		t.lastTime = now
		return
	}
	entry := Entry{
		App:       t.lastApp,
		Seconds:   now.Sub(t.lastTime).Seconds(),
		Timestamp: now.Format(time.RFC3339),
	}
	t.lastApp = ""
	t.lastTime = now
	if err := t.sink.Append(entry); err != nil {
		log.Errorf("usage log: %v", err)
	}
}
