package pattern

import "sort"

// MarkedSet holds the numbers the player has marked. The free cell is implicit and
// never stored.
type MarkedSet map[int]struct{}

func NewMarkedSet(numbers ...int) MarkedSet {
	m := make(MarkedSet, len(numbers))
	for _, n := range numbers {
		m.Add(n)
	}
	return m
}

func (m MarkedSet) Add(n int) { m[n] = struct{}{} }

func (m MarkedSet) Remove(n int) { delete(m, n) }

func (m MarkedSet) Has(n int) bool {
	_, ok := m[n]
	return ok
}

// Toggle flips n and reports whether it is now marked.
func (m MarkedSet) Toggle(n int) bool {
	if m.Has(n) {
		m.Remove(n)
		return false
	}
	m.Add(n)
	return true
}

func (m MarkedSet) Clear() {
	for n := range m {
		delete(m, n)
	}
}

func (m MarkedSet) Len() int { return len(m) }

func (m MarkedSet) Clone() MarkedSet {
	out := make(MarkedSet, len(m))
	for n := range m {
		out[n] = struct{}{}
	}
	return out
}

// Sorted returns the marked numbers in ascending order.
func (m MarkedSet) Sorted() []int {
	out := make([]int, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
