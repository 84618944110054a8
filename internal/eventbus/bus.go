// Package eventbus is the in-process fanout that decouples the generation
// engine from its collaborators: the scheduler's completion relay, UI
// refresh, and the reward ledger all listen here.
//
// Publish never blocks. Subscribers read from buffered channels; one that
// falls behind loses events rather than stalling the publisher, so the
// bus is a signal path, not a durable queue.
package eventbus

import (
	"sync"
	"time"
)

// Event is one bus signal. Data carries a small payload type from the
// publishing package (e.g. engine.TaskCompleted).
type Event struct {
	Type string
	At   time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns an in-memory fanout bus with no background goroutines.
func New() Bus {
	return &fanout{subs: map[int]chan Event{}}
}

type fanout struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

// Publish stamps the event and offers it to every subscriber. Sends happen
// under the read lock so an unsubscribe can never close a channel
// mid-send; each send is non-blocking, so the lock is held only briefly.
func (b *fanout) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Full buffer: the subscriber is behind, drop.
		}
	}
}

func (b *fanout) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsubscribe
}
