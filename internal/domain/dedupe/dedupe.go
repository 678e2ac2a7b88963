// Package dedupe remembers recently handled interaction IDs so a redelivered
// gateway event is answered once.
package dedupe

import (
	"context"
	"sync"
)

const defaultMaxSize = 4096

// Deduper records seen IDs to ensure at-most-once handling.
type Deduper interface {
	// SeenAndRecord reports whether id was already recorded and records it
	// if not.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets id so a later delivery is handled again.
	Unrecord(ctx context.Context, id string)

	Size() int
}

// Window is a fixed size Deduper. Once full, the oldest ID is forgotten.
type Window struct {
	mu      sync.Mutex
	seen    map[string]int // id -> slot in ring
	ring    []string
	next    int
	maxSize int
}

var _ Deduper = (*Window)(nil)

// NewWindow creates a Window.
func NewWindow(opts ...Option) *Window {
	w := &Window{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(w)
	}
	w.seen = make(map[string]int, w.maxSize)
	w.ring = make([]string, w.maxSize)
	return w
}

// SeenAndRecord implements Deduper.
func (w *Window) SeenAndRecord(_ context.Context, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.seen[id]; ok {
		return true
	}
	if old := w.ring[w.next]; old != "" {
		delete(w.seen, old)
	}
	w.ring[w.next] = id
	w.seen[id] = w.next
	w.next = (w.next + 1) % w.maxSize
	return false
}

// Unrecord implements Deduper. The freed slot stays in ring order.
func (w *Window) Unrecord(_ context.Context, id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	slot, ok := w.seen[id]
	if !ok {
		return
	}
	delete(w.seen, id)
	w.ring[slot] = ""
}

// Size returns how many IDs are remembered.
func (w *Window) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.seen)
}
