package pattern

import (
	"fmt"
	"sort"

	"go-bingo/internal/card"
)

// Kind names a winning shape. Names are shared with the game authority.
type Kind string

const (
	DiagonalMain Kind = "diagonal-main"
	DiagonalAnti Kind = "diagonal-anti"
	FourCorners  Kind = "four-corners"
	FullHouse    Kind = "full-house"
)

// Horizontal returns the kind for row (0-based); rows are reported 1-based.
func Horizontal(row int) Kind {
	return Kind(fmt.Sprintf("horizontal-line-%d", row+1))
}

// Vertical returns the kind for column col, named by its letter.
func Vertical(col int) Kind {
	return Kind("vertical-line-" + card.Letters[col])
}

// WinningPattern is an advisory match; it is not a win until the remote confirms it.
type WinningPattern struct {
	Kind    Kind
	Numbers []int
}

type cell struct{ row, col int }

type shape struct {
	kind  Kind
	cells []cell
}

// shapes lists every winning shape in precedence order.
var shapes = buildShapes()

func buildShapes() []shape {
	var out []shape

	for r := 0; r < card.Size; r++ {
		s := shape{kind: Horizontal(r)}
		for c := 0; c < card.Size; c++ {
			s.cells = append(s.cells, cell{r, c})
		}
		out = append(out, s)
	}

	for c := 0; c < card.Size; c++ {
		s := shape{kind: Vertical(c)}
		for r := 0; r < card.Size; r++ {
			s.cells = append(s.cells, cell{r, c})
		}
		out = append(out, s)
	}

	diag := shape{kind: DiagonalMain}
	anti := shape{kind: DiagonalAnti}
	for i := 0; i < card.Size; i++ {
		diag.cells = append(diag.cells, cell{i, i})
		anti.cells = append(anti.cells, cell{i, card.Size - 1 - i})
	}
	out = append(out, diag, anti)

	last := card.Size - 1
	out = append(out, shape{
		kind:  FourCorners,
		cells: []cell{{0, 0}, {0, last}, {last, 0}, {last, last}},
	})

	full := shape{kind: FullHouse}
	for r := 0; r < card.Size; r++ {
		for c := 0; c < card.Size; c++ {
			full.cells = append(full.cells, cell{r, c})
		}
	}
	return append(out, full)
}

// Kinds returns every pattern kind in precedence order.
func Kinds() []Kind {
	out := make([]Kind, len(shapes))
	for i, s := range shapes {
		out[i] = s.kind
	}
	return out
}

// Evaluate returns the first shape, in precedence order, whose non-free cells are all
// marked. A complete card satisfies every shape at once and is reported as a full
// house. It returns nil when nothing matches.
func Evaluate(grid card.Grid, marked MarkedSet) *WinningPattern {
	full := shapes[len(shapes)-1]
	if numbers, ok := full.match(grid, marked); ok {
		return &WinningPattern{Kind: full.kind, Numbers: numbers}
	}
	for _, s := range shapes[:len(shapes)-1] {
		if numbers, ok := s.match(grid, marked); ok {
			return &WinningPattern{Kind: s.kind, Numbers: numbers}
		}
	}
	return nil
}

// EvaluateAll repeatedly evaluates, removing each match's members from consideration
// before the next pass, and returns the matches in the order they were found.
func EvaluateAll(grid card.Grid, marked MarkedSet) []WinningPattern {
	remaining := marked.Clone()
	var found []WinningPattern
	for {
		wp := Evaluate(grid, remaining)
		if wp == nil {
			return found
		}
		found = append(found, *wp)
		for _, n := range wp.Numbers {
			remaining.Remove(n)
		}
	}
}

func (s shape) match(grid card.Grid, marked MarkedSet) ([]int, bool) {
	numbers := make([]int, 0, len(s.cells))
	for _, c := range s.cells {
		if card.IsFree(c.row, c.col) {
			continue
		}
		n := grid[c.row][c.col]
		if !marked.Has(n) {
			return nil, false
		}
		numbers = append(numbers, n)
	}
	return numbers, true
}

// SameNumbers reports whether two number lists hold the same set.
func SameNumbers(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	x := append([]int(nil), a...)
	y := append([]int(nil), b...)
	sort.Ints(x)
	sort.Ints(y)
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}
