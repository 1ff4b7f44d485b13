package events

import "sync"

const DefaultCapacity = 50

// Buffer keeps the most recent events, newest first. A single producer pushes
// while any number of readers take snapshots.
type Buffer struct {
	capacity int

	mu      sync.RWMutex
	entries []Event
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		entries:  make([]Event, 0, capacity),
	}
}

// Push inserts the event at the front and evicts the oldest entry once the
// buffer is over capacity.
func (b *Buffer) Push(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := make([]Event, 0, b.capacity)
	next = append(next, event)
	next = append(next, b.entries...)
	if len(next) > b.capacity {
		next = next[:b.capacity]
	}
	b.entries = next
}

// Snapshot returns the formatted events, most recent first.
func (b *Buffer) Snapshot() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	formatted := make([]string, len(b.entries))
	for i, event := range b.entries {
		formatted[i] = event.Formatted()
	}
	return formatted
}

// Events returns a copy of the buffered events, most recent first.
func (b *Buffer) Events() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	eventsCopy := make([]Event, len(b.entries))
	copy(eventsCopy, b.entries)
	return eventsCopy
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func (b *Buffer) Capacity() int {
	return b.capacity
}
