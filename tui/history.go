// Package tui provides a Bubble Tea terminal UI for driving a hexcore
// kernel interactively.
package tui

// History is a fixed-size ring of past input lines with cursor-based
// navigation. Once full, each new line overwrites the oldest; no elements
// are shifted or reallocated.
type History struct {
	buf    []string
	start  int // index of the oldest entry
	count  int
	cursor int // -1 = not navigating, 0..count-1 = offset from oldest
}

// NewHistory creates a history ring holding at most max lines.
func NewHistory(max int) *History {
	return &History{
		buf:    make([]string, max),
		cursor: -1,
	}
}

// at returns the i-th entry counted from the oldest.
func (h *History) at(i int) string {
	return h.buf[(h.start+i)%len(h.buf)]
}

// Push adds an input line. Consecutive duplicates are skipped; a full ring
// overwrites its oldest line.
func (h *History) Push(line string) {
	if h.count > 0 && h.at(h.count-1) == line {
		return
	}
	if h.count < len(h.buf) {
		h.buf[(h.start+h.count)%len(h.buf)] = line
		h.count++
		return
	}
	h.buf[h.start] = line
	h.start = (h.start + 1) % len(h.buf)
}

// Prev returns the previous (older) history entry.
// Returns ("", false) if history is empty.
func (h *History) Prev() (string, bool) {
	if h.count == 0 {
		return "", false
	}
	if h.cursor == -1 {
		h.cursor = h.count - 1
	} else if h.cursor > 0 {
		h.cursor--
	}
	return h.at(h.cursor), true
}

// Next returns the next (newer) history entry.
// Returns ("", false) when past the most recent entry (back to fresh input).
func (h *History) Next() (string, bool) {
	if h.cursor == -1 {
		return "", false
	}
	h.cursor++
	if h.cursor >= h.count {
		h.cursor = -1
		return "", false
	}
	return h.at(h.cursor), true
}

// ResetCursor resets the navigation cursor to the "not navigating" state.
func (h *History) ResetCursor() {
	h.cursor = -1
}
