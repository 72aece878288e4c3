package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/triage/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// WatchFunc streams the ids of modules reloaded from disk.
type WatchFunc func(ctx context.Context) (<-chan string, error)

// StreamManager fans session diffs out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{}
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func
// unsubscribes and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[sessionID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, sessionID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of sessionID. Slow clients whose
// buffer is full miss the message.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
		}
	}
}

func startStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	return flusher, true
}

// SubscribeSession streams the diffs of one session as SSE. The optional
// watch query (e.g. "status,patientData") drops diffs touching none of the
// listed fields.
func (s *Server) SubscribeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()

	flusher, ok := startStream(w)
	if !ok {
		return
	}

	var watch []string
	if raw := r.URL.Query().Get("watch"); raw != "" {
		watch = strings.Split(raw, ",")
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !matchesWatch(msg, watch) {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func matchesWatch(msg string, watch []string) bool {
	var d domain.SessionDiff
	if err := json.Unmarshal([]byte(msg), &d); err != nil {
		return true
	}
	for _, field := range watch {
		switch strings.TrimSpace(field) {
		case "status":
			if d.Status != nil || d.IsComplete != nil || d.Reset {
				return true
			}
		case "patientData":
			if len(d.PatientData) > 0 {
				return true
			}
		case "history":
			if len(d.Appended) > 0 || d.Reset {
				return true
			}
		case "severity":
			if d.MaxSeverity != nil {
				return true
			}
		}
	}
	return false
}

// SubscribeReloads streams module reload events as SSE.
func (s *Server) SubscribeReloads(w http.ResponseWriter, r *http.Request) {
	events, err := s.watch(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	flusher, ok := startStream(w)
	if !ok {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: reload\ndata: %s\n\n", event)
			flusher.Flush()
		}
	}
}
