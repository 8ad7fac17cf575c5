package modem

import "strings"

// truncationMarker replaces evicted bytes at the front of an overflowing
// accumulator so a shortened capture never reads like a complete one.
const truncationMarker = "[...]"

// Accumulator assembles raw response chunks into a capacity-bounded text
// buffer for one command exchange. Token searches run over everything
// collected so far, so a token split across chunk boundaries still
// matches once its tail arrives. When the buffer overflows, the oldest
// bytes are evicted first; the newest bytes are the ones most likely to
// hold a terminal token.
type Accumulator struct {
	tail      []byte
	capacity  int
	truncated bool
}

// NewAccumulator returns an empty accumulator holding at most capacity
// bytes, marker included.
func NewAccumulator(capacity int) *Accumulator {
	if capacity <= len(truncationMarker) {
		capacity = len(truncationMarker) + 1
	}
	return &Accumulator{capacity: capacity}
}

// Feed appends a chunk. Malformed byte sequences are dropped from the
// chunk; the surrounding valid text is kept.
func (a *Accumulator) Feed(chunk []byte) {
	clean := strings.ToValidUTF8(string(chunk), "")
	if clean == "" {
		return
	}
	a.tail = append(a.tail, clean...)

	limit := a.capacity
	if a.truncated || len(a.tail) > limit {
		limit = a.capacity - len(truncationMarker)
	}
	if len(a.tail) > limit {
		a.tail = a.tail[len(a.tail)-limit:]
		a.truncated = true
	}
}

// Find reports the offset of the first occurrence of token in the
// accumulated text.
func (a *Accumulator) Find(token string) (int, bool) {
	i := strings.Index(string(a.tail), token)
	if i < 0 {
		return 0, false
	}
	return i, true
}

// Contents returns the accumulated text, prefixed with a truncation
// marker when older bytes have been evicted. The result never exceeds
// the accumulator's capacity.
func (a *Accumulator) Contents() string {
	if a.truncated {
		return truncationMarker + string(a.tail)
	}
	return string(a.tail)
}

// Truncated reports whether any bytes have been evicted.
func (a *Accumulator) Truncated() bool {
	return a.truncated
}
