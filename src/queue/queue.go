package queue

import (
	"log"
	"sync"

	"stealth-overlay/src/debounce"
)

// CaptureFunc persists one full-screen capture and returns its path.
type CaptureFunc func() (string, error)

// ImageQueue is an ordered list of capture paths. Items are only appended or
// cleared all at once, never reordered or removed individually.
type ImageQueue struct {
	mu      sync.Mutex
	items   []string
	gate    *debounce.Gate
	capture CaptureFunc
}

// New returns an empty queue with the standard capture gate.
func New(capture CaptureFunc) *ImageQueue {
	return NewWithGate(capture, debounce.New(debounce.CaptureInterval))
}

func NewWithGate(capture CaptureFunc, gate *debounce.Gate) *ImageQueue {
	return &ImageQueue{capture: capture, gate: gate}
}

// Enqueue captures the screen and appends the result, returning the new
// length. A debounced call captures nothing and returns the current length.
func (q *ImageQueue) Enqueue() (int, error) {
	if !q.gate.Allow() {
		return q.Len(), nil
	}

	// Capture outside the lock; only the append is serialised.
	path, err := q.capture()
	if err != nil {
		return 0, err
	}

	q.mu.Lock()
	q.items = append(q.items, path)
	n := len(q.items)
	q.mu.Unlock()

	log.Printf("queue: added %s (length %d)", path, n)
	return n, nil
}

// Len returns the number of queued captures.
func (q *ImageQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear empties the queue. Files on disk are left alone.
func (q *ImageQueue) Clear() {
	q.mu.Lock()
	n := len(q.items)
	q.items = nil
	q.mu.Unlock()
	log.Printf("queue: cleared %d item(s)", n)
}

// Snapshot returns a copy of the queue in insertion order.
func (q *ImageQueue) Snapshot() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.items))
	copy(out, q.items)
	return out
}
