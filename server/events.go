package server

import (
	"encoding/json"
	"net/http"

	"worklens/log"
	"worklens/relay"
)

// handleEvents streams relay events to the client as JSON lines, one
// event per line, until the client disconnects. A slow client's
// buffer overflow drops events for that client only.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan relay.Event, 64)
	id := s.hub.Subscribe(func(ev relay.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	defer s.hub.Unsubscribe(id)

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-events:
			if err := enc.Encode(ev); err != nil {
				log.Infof("event stream client gone: %v", err)
				return
			}
			flusher.Flush()
		}
	}
}
