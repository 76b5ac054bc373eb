package websocket

import (
	"errors"
	"sync"
)

var ErrSinkExists = errors.New("session already has a live subscriber")

// EventSink is one spectator's outbound stream.
type EventSink interface {
	Send(event StreamEvent)
	Close()
}

// Broadcaster fans match progress out to at most one live subscriber per
// session. Events for sessions without a subscriber are dropped, never
// buffered: a late spectator replays from the stored artifact instead.
type Broadcaster struct {
	mu    sync.Mutex
	sinks map[string]EventSink
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{sinks: make(map[string]EventSink)}
}

// Register binds the sink as the session's single subscriber. A second
// concurrent registration fails explicitly rather than silently replacing
// the first stream.
func (b *Broadcaster) Register(sessionID string, sink EventSink) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.sinks[sessionID]; ok {
		return ErrSinkExists
	}
	b.sinks[sessionID] = sink
	return nil
}

// Unregister removes the binding only if sink is still the registered one,
// so a reconnected subscriber is not torn down by its predecessor's cleanup.
func (b *Broadcaster) Unregister(sessionID string, sink EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if current, ok := b.sinks[sessionID]; ok && current == sink {
		delete(b.sinks, sessionID)
	}
}

// Send delivers immediately if a subscriber exists, otherwise it is a no-op.
func (b *Broadcaster) Send(sessionID string, event StreamEvent) {
	b.mu.Lock()
	sink, ok := b.sinks[sessionID]
	b.mu.Unlock()
	if ok {
		sink.Send(event)
	}
}

// CloseSession terminates the subscriber's stream, if any.
func (b *Broadcaster) CloseSession(sessionID string) {
	b.mu.Lock()
	sink, ok := b.sinks[sessionID]
	delete(b.sinks, sessionID)
	b.mu.Unlock()
	if ok {
		sink.Close()
	}
}

// Fail emits a terminal error event and then terminates the stream.
func (b *Broadcaster) Fail(sessionID, code, message string) {
	b.mu.Lock()
	sink, ok := b.sinks[sessionID]
	delete(b.sinks, sessionID)
	b.mu.Unlock()
	if ok {
		sink.Send(StreamEvent{Type: EventTypeError, Payload: ErrorPayload{Code: code, Message: message}})
		sink.Close()
	}
}
