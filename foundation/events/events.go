// Package events allows for the registering and receiving of the events the
// oracle emits while processing questions.
package events

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sasha-s/go-deadlock"
)

// messageBuffer gives a slow websocket receiver some room before events
// start being dropped.
const messageBuffer = 100

// Event is a single thing the oracle did. Events are raised by the oracle
// packages as messages like "state: SubmitAnswer: question[0x..] bond[4]".
type Event struct {
	Source     string    `json:"source"`
	Operation  string    `json:"operation"`
	QuestionID string    `json:"question_id,omitempty"`
	Message    string    `json:"message"`
	TimeStamp  time.Time `json:"timestamp"`
}

// Parse breaks a raised message into an event. A message that doesn't
// follow the source and operation layout is kept whole in Message.
func Parse(msg string, now time.Time) Event {
	ev := Event{
		Message:   msg,
		TimeStamp: now.UTC(),
	}

	parts := strings.SplitN(msg, ": ", 3)
	if len(parts) == 3 {
		ev.Source = parts[0]
		ev.Operation = parts[1]
		ev.Message = parts[2]
	}

	if _, rest, found := strings.Cut(msg, "question["); found {
		if id, _, found := strings.Cut(rest, "]"); found {
			ev.QuestionID = id
		}
	}

	return ev
}

// Filter reports whether a receiver wants the event.
type Filter func(ev Event) bool

// ForQuestion keeps the events raised for a single question.
func ForQuestion(questionID string) Filter {
	questionID = strings.ToLower(questionID)
	return func(ev Event) bool {
		return ev.QuestionID == questionID
	}
}

// FromSource keeps the events raised by a single package.
func FromSource(source string) Filter {
	return func(ev Event) bool {
		return ev.Source == source
	}
}

// =============================================================================

type receiver struct {
	ch     chan Event
	filter Filter
}

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	now     func() time.Time
	dropped atomic.Uint64

	mu deadlock.RWMutex
	m  map[string]receiver
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		now: time.Now,
		m:   make(map[string]receiver),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, r := range evt.m {
		delete(evt.m, id)
		close(r.ch)
	}
}

// Acquire takes a unique id and returns a channel that receives the events
// the filters let through. With no filters every event is received.
func (evt *Events) Acquire(id string, filters ...Filter) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if r, exists := evt.m[id]; exists {
		return r.ch
	}

	r := receiver{
		ch:     make(chan Event, messageBuffer),
		filter: all(filters),
	}
	evt.m[id] = r

	return r.ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	r, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(r.ch)
	return nil
}

// Send parses the message once and hands the event to every receiver that
// wants it. Send will not block waiting for a receiver; events a receiver
// has no room for are dropped and counted.
func (evt *Events) Send(msg string) {
	ev := Parse(msg, evt.now())

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, r := range evt.m {
		if !r.filter(ev) {
			continue
		}

		select {
		case r.ch <- ev:
		default:
			evt.dropped.Add(1)
		}
	}
}

// Len returns the number of registered receivers.
func (evt *Events) Len() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Dropped returns the number of events receivers had no room for.
func (evt *Events) Dropped() uint64 {
	return evt.dropped.Load()
}

// all combines the filters into one that wants an event only when every
// filter does.
func all(filters []Filter) Filter {
	return func(ev Event) bool {
		for _, f := range filters {
			if f != nil && !f(ev) {
				return false
			}
		}
		return true
	}
}
