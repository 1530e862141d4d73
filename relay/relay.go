// Package relay fans pipeline events out to attached listeners: the
// HTTP event stream, the UI, tests. Delivery is best effort; a slow or
// panicking listener never stalls the audio pipeline.
package relay

import (
	"sync"
	"sync/atomic"

	"worklens/log"
	"worklens/metrics"
)

// Event types published by the pipeline.
const (
	PartialTranscript = "partial_transcript"
	FinalTranscript   = "final_transcript"
	WordDetected      = "word_detected"
	DeviceInfo        = "device_info"
	AudioLevel        = "audio_level"
	RecordingStarted  = "recording_started"
	RecordingStopped  = "recording_stopped"
	WorkflowProgress  = "workflow_progress"
	WorkflowGenerated = "workflow_generated"
)

// Event is a single pipeline notification.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Listener receives events. Listeners run on the hub's consumer
// goroutine and should return quickly.
type Listener func(Event)

const defaultQueueSize = 256

// Hub is a bounded broadcast queue with a single consumer goroutine.
// Publish never blocks: when the queue is full the event is dropped
// and counted.
type Hub struct {
	queue   chan Event
	done    chan struct{}
	dropped atomic.Uint64

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	closed    bool

	met *metrics.Metrics
}

// NewHub starts the consumer goroutine. met may be nil.
func NewHub(met *metrics.Metrics) *Hub {
	h := &Hub{
		queue:     make(chan Event, defaultQueueSize),
		done:      make(chan struct{}),
		listeners: make(map[int]Listener),
		met:       met,
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	defer close(h.done)
	for ev := range h.queue {
		h.deliver(ev)
	}
}

func (h *Hub) deliver(ev Event) {
	h.mu.Lock()
	listeners := make([]Listener, 0, len(h.listeners))
	for _, l := range h.listeners {
		listeners = append(listeners, l)
	}
	h.mu.Unlock()

	for _, l := range listeners {
		h.call(l, ev)
	}
	if h.met != nil && len(listeners) > 0 {
		h.met.EventsDelivered.Inc()
	}
}

// call isolates a single listener so one panic cannot take down the
// consumer loop or skip remaining listeners.
func (h *Hub) call(l Listener, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("relay listener panic on %s event: %v", ev.Type, r)
		}
	}()
	l(ev)
}

// Subscribe attaches a listener and returns its id.
func (h *Hub) Subscribe(l Listener) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	h.listeners[id] = l
	if h.met != nil {
		h.met.Subscribers.Set(float64(len(h.listeners)))
	}
	return id
}

// Unsubscribe detaches a listener. Unknown ids are ignored.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.listeners, id)
	if h.met != nil {
		h.met.Subscribers.Set(float64(len(h.listeners)))
	}
}

// Publish enqueues an event without blocking. Events published after
// Close, or while the queue is full, are dropped and counted. The send
// happens under the mutex so it cannot race the channel close in Close.
func (h *Hub) Publish(ev Event) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		h.drop()
		return
	}
	select {
	case h.queue <- ev:
		h.mu.Unlock()
	default:
		h.mu.Unlock()
		h.drop()
	}
}

func (h *Hub) drop() {
	h.dropped.Add(1)
	if h.met != nil {
		h.met.EventsDropped.Inc()
	}
}

// Dropped reports how many events were discarded since the hub
// started.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close drains the queue and stops the consumer. Safe to call once.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.queue)
	h.mu.Unlock()
	<-h.done
}
