package stream

import (
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer is the per-viewer frame buffer. A viewer that falls
// more than this many frames behind starts losing frames, which is
// preferable to ever blocking the publisher.
const subscriberBuffer = 8

// Broadcaster fans processed frames out to all connected viewers.
// Publishing never blocks: slow subscribers drop frames, closed
// subscribers are removed.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan []byte
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[string]chan []byte)}
}

// Subscribe registers a new viewer and returns its id and frame channel.
func (b *Broadcaster) Subscribe() (string, <-chan []byte) {
	id := uuid.NewString()
	ch := make(chan []byte, subscriberBuffer)

	b.mu.Lock()
	b.subscribers[id] = ch
	b.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a viewer and closes its channel. In-flight frames
// already published to other viewers are unaffected.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
}

// Publish sends a frame to every subscriber, skipping any whose buffer
// is full.
func (b *Broadcaster) Publish(frame []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- frame:
		default:
			// Viewer buffer full, drop this frame for that viewer.
		}
	}
}

// Subscribers returns the number of connected viewers.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
