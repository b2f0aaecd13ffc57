package ref

import "sync"

// SectionIndex supplies what the schema alone cannot: which sections of
// a text are actually populated, and how large each one is. Engines use
// it to bound spanning-range endpoints and to step between sections.
type SectionIndex interface {
	// SectionLength returns the number of segments in the addressed
	// section, or 0 when unknown.
	SectionLength(book string, section []int) int
	// NextAddress returns the next populated section address, or false
	// at the end of the text or when the text is unknown.
	NextAddress(book string, section []int) ([]int, bool)
	// PrevAddress returns the previous populated section address, or
	// false at the start of the text or when the text is unknown.
	PrevAddress(book string, section []int) ([]int, bool)
}

// MemoryCounts is an in-memory SectionIndex over per-book shape tables.
// A shape lists the segment count of each top-level section in order, so
// it can answer adjacency for texts addressed by a single section level.
type MemoryCounts struct {
	mu     sync.RWMutex
	shapes map[string][]int
}

// NewMemoryCounts returns an empty section index.
func NewMemoryCounts() *MemoryCounts {
	return &MemoryCounts{shapes: make(map[string][]int)}
}

// SetShape records the per-section segment counts for book, replacing
// any previous shape.
func (m *MemoryCounts) SetShape(book string, shape []int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shapes[book] = append([]int{}, shape...)
}

// Shape returns the recorded shape for book.
func (m *MemoryCounts) Shape(book string) ([]int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shape, ok := m.shapes[book]
	if !ok {
		return nil, false
	}
	return append([]int{}, shape...), true
}

func (m *MemoryCounts) SectionLength(book string, section []int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shape, ok := m.shapes[book]
	if !ok || len(section) == 0 {
		return 0
	}
	i := section[0]
	if i < 1 || i > len(shape) {
		return 0
	}
	return shape[i-1]
}

func (m *MemoryCounts) NextAddress(book string, section []int) ([]int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shape, ok := m.shapes[book]
	if !ok || len(section) != 1 {
		return nil, false
	}
	if section[0] < 1 || section[0] >= len(shape) {
		return nil, false
	}
	return []int{section[0] + 1}, true
}

func (m *MemoryCounts) PrevAddress(book string, section []int) ([]int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	shape, ok := m.shapes[book]
	if !ok || len(section) != 1 {
		return nil, false
	}
	if section[0] <= 1 || section[0] > len(shape)+1 {
		return nil, false
	}
	return []int{section[0] - 1}, true
}
