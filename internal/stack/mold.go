package stack

import "unicode/utf8"

// MoldBuffer is the shared process-wide UTF-8 string used to build text
// incrementally (principally by MOLD/FORM, see internal/mold). Push
// records a head offset and codepoint count so nested molds can either
// commit their segment as a fresh string/binary (Pop) or discard it
// (Drop), mirroring the data stack's marker discipline.
type MoldBuffer struct {
	buf        []byte
	codepoints int
}

func NewMoldBuffer() *MoldBuffer { return &MoldBuffer{} }

type MoldMark struct {
	byteOffset int
	cpOffset   int
}

// Push records the current position as a segment start.
func (m *MoldBuffer) Push() MoldMark {
	return MoldMark{byteOffset: len(m.buf), cpOffset: m.codepoints}
}

// WriteString appends s to the buffer.
func (m *MoldBuffer) WriteString(s string) {
	m.buf = append(m.buf, s...)
	m.codepoints += utf8.RuneCountInString(s)
}

// WriteByte appends a single byte without updating the codepoint count.
func (m *MoldBuffer) WriteByte(b byte) { m.buf = append(m.buf, b) }

// Pop extracts the bytes written since mark as a fresh string and discards
// them from the shared buffer, restoring it to mark's length — the
// "build, then pop as a new string" half of the push/pop discipline.
func (m *MoldBuffer) Pop(mark MoldMark) string {
	s := string(m.buf[mark.byteOffset:])
	m.buf = m.buf[:mark.byteOffset]
	m.codepoints = mark.cpOffset
	return s
}

// Drop discards the segment since mark without returning it — used when a
// nested mold attempt is abandoned (e.g. by a fail).
func (m *MoldBuffer) Drop(mark MoldMark) {
	m.buf = m.buf[:mark.byteOffset]
	m.codepoints = mark.cpOffset
}

// Len / CodepointLen / TruncateTo support the fail-path snapshot/restore:
// a RescueGuard records (Len(), CodepointLen()) and calls TruncateTo on
// abnormal exit.
func (m *MoldBuffer) Len() int           { return len(m.buf) }
func (m *MoldBuffer) CodepointLen() int  { return m.codepoints }
func (m *MoldBuffer) TruncateTo(byteLen, cpLen int) {
	m.buf = m.buf[:byteLen]
	m.codepoints = cpLen
}

// MoldStack tracks container nodes currently being molded, making mold
// cycle-safe: a node revisited mid-mold emits a bounded ellipsis marker
// instead of recursing forever (spec.md §6, §8's cyclical-mold scenario).
type MoldStack struct {
	active map[uint32]bool
	order  []uint32
}

func NewMoldStack() *MoldStack { return &MoldStack{active: make(map[uint32]bool)} }

// Enter reports whether id is already being molded (a cycle); if not, it is
// pushed and Enter returns false.
func (s *MoldStack) Enter(id uint32) (cycle bool) {
	if s.active[id] {
		return true
	}
	s.active[id] = true
	s.order = append(s.order, id)
	return false
}

// Leave pops the most recently entered id. Callers must Leave exactly once
// per successful Enter, including on the error path (mirrors the mold
// buffer's own push/pop balance requirement).
func (s *MoldStack) Leave() {
	n := len(s.order) - 1
	delete(s.active, s.order[n])
	s.order = s.order[:n]
}

// Len / TruncateTo give the fail-path snapshot/restore for the mold-loop
// stack (spec.md §4.11).
func (s *MoldStack) Len() int { return len(s.order) }
func (s *MoldStack) TruncateTo(n int) {
	for len(s.order) > n {
		s.Leave()
	}
}
