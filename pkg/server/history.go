package server

import "sync"

// HistoryBuffer is a bounded FIFO of recent broadcast messages. Append
// and Snapshot serialize with each other only; history is advisory and
// does not order against the broadcasts themselves.
type HistoryBuffer struct {
	capacity int
	mu       sync.Mutex
	entries  []string
}

// NewHistoryBuffer creates a history buffer holding at most capacity
// entries, evicting oldest-first on overflow.
func NewHistoryBuffer(capacity int) *HistoryBuffer {
	if capacity <= 0 {
		capacity = 100
	}
	return &HistoryBuffer{
		capacity: capacity,
		entries:  make([]string, 0, capacity),
	}
}

// Append adds an entry at the tail, evicting from the head if the
// buffer is full.
func (h *HistoryBuffer) Append(entry string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, entry)
	if len(h.entries) > h.capacity {
		overflow := len(h.entries) - h.capacity
		h.entries = append(h.entries[:0], h.entries[overflow:]...)
	}
}

// Snapshot returns the buffered entries oldest-first.
func (h *HistoryBuffer) Snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the current number of buffered entries.
func (h *HistoryBuffer) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.entries)
}
