// Package sound plays symbolic sound events on the buzzer without blocking
// the game loop.
package sound

import (
	"fmt"
	"sync"
)

// Event is a symbolic sound request.
type Event int

const (
	Hit Event = iota
	Win
	Lose
)

var eventNames = [...]string{
	Hit:  "hit",
	Win:  "win",
	Lose: "lose",
}

func (e Event) String() string {
	if e >= 0 && int(e) < len(eventNames) {
		return eventNames[e]
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// ParseEvent maps a tune name from the config file to an Event.
func ParseEvent(name string) (Event, error) {
	for i, n := range eventNames {
		if n == name {
			return Event(i), nil
		}
	}
	return 0, fmt.Errorf("sound: unknown event %q", name)
}

// Queue is an unbounded FIFO of sound events. The game loop pushes and the
// sequencer pops; nothing is dropped or merged.
type Queue struct {
	mu     sync.Mutex
	events []Event
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends e to the tail.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

// Pop removes and returns the head. ok is false when the queue is empty.
func (q *Queue) Pop() (e Event, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.events) == 0 {
		return 0, false
	}
	e = q.events[0]
	q.events[0] = 0
	q.events = q.events[1:]
	return e, true
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Pending returns a copy of the pending events, head first.
func (q *Queue) Pending() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Event, len(q.events))
	copy(out, q.events)
	return out
}
