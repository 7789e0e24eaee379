package core

import "github.com/dkeye/dialnet/internal/domain"

const DefaultHistoryCapacity = 100

// History is a fixed-capacity ring of the most recent messages of one room.
// Not safe for concurrent use; the owning room guards it.
type History struct {
	buf   []domain.Message
	start int
	size  int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{buf: make([]domain.Message, capacity)}
}

func (h *History) Cap() int { return len(h.buf) }
func (h *History) Len() int { return h.size }

// Append stores msg, overwriting the oldest entry once the ring is full.
func (h *History) Append(msg domain.Message) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = msg
		h.size++
		return
	}
	h.buf[h.start] = msg
	h.start = (h.start + 1) % len(h.buf)
}

// Recent returns a copy of the last n messages, oldest first.
// n <= 0 or n larger than the stored count returns everything.
func (h *History) Recent(n int) []domain.Message {
	if n <= 0 || n > h.size {
		n = h.size
	}
	out := make([]domain.Message, n)
	skip := h.size - n
	for i := range n {
		out[i] = h.buf[(h.start+skip+i)%len(h.buf)]
	}
	return out
}
