package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	sseChannelBuffer = 16
	sseHeartbeat     = 30 * time.Second
)

// Event is a message pushed to the clients watching a session.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// client is one open event stream on a session.
type client struct {
	ch        chan string
	sessionID string
}

// Broadcaster fans session events out to the streams watching them.
type Broadcaster struct {
	mu       sync.RWMutex
	sessions map[string]map[*client]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		sessions: make(map[string]map[*client]struct{}),
	}
}

// Register opens a stream on sessionID.
func (b *Broadcaster) Register(sessionID string) *client {
	c := &client{
		ch:        make(chan string, sseChannelBuffer),
		sessionID: sessionID,
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	watchers, ok := b.sessions[sessionID]
	if !ok {
		watchers = make(map[*client]struct{})
		b.sessions[sessionID] = watchers
	}
	watchers[c] = struct{}{}
	return c
}

// Unregister closes the stream of c. It is safe to call more than once.
func (b *Broadcaster) Unregister(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	watchers := b.sessions[c.sessionID]
	if _, ok := watchers[c]; !ok {
		return
	}
	delete(watchers, c)
	close(c.ch)
	if len(watchers) == 0 {
		delete(b.sessions, c.sessionID)
	}
}

// CloseSession ends every stream on sessionID.
func (b *Broadcaster) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.sessions[sessionID] {
		close(c.ch)
	}
	delete(b.sessions, sessionID)
}

// Broadcast queues a raw message on every stream of a session. Streams
// whose buffer is full miss the message.
func (b *Broadcaster) Broadcast(sessionID, data string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.sessions[sessionID] {
		select {
		case c.ch <- data:
		default:
		}
	}
}

// Publish encodes evt and broadcasts it to a session.
func (b *Broadcaster) Publish(sessionID string, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	b.Broadcast(sessionID, string(data))
	return nil
}

func (b *Broadcaster) ClientCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions[sessionID])
}

// ServeSSE streams the events of a session until the request ends or the
// session is closed. onConnect runs once the stream is registered, before
// any broadcast reaches it.
func (b *Broadcaster) ServeSSE(w http.ResponseWriter, r *http.Request, sessionID string, onConnect func(c *client)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := b.Register(sessionID)
	defer b.Unregister(c)

	if onConnect != nil {
		onConnect(c)
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-c.ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
		}
		flusher.Flush()
	}
}
