package pattern

import (
	"testing"

	"go-bingo/internal/card"
)

func testGrid(t *testing.T, n int) card.Grid {
	t.Helper()
	grid, err := card.Generate(n)
	if err != nil {
		t.Fatalf("card.Generate(%d) returned error: %v", n, err)
	}
	return grid
}

func markCells(grid card.Grid, cells ...[2]int) MarkedSet {
	m := NewMarkedSet()
	for _, c := range cells {
		if card.IsFree(c[0], c[1]) {
			continue
		}
		m.Add(grid[c[0]][c[1]])
	}
	return m
}

func TestEvaluate_NothingMarked(t *testing.T) {
	grid := testGrid(t, 5)
	if wp := Evaluate(grid, NewMarkedSet()); wp != nil {
		t.Errorf("expected no match, got %v", wp.Kind)
	}
}

func TestEvaluate_FullHouse(t *testing.T) {
	grid := testGrid(t, 42)
	marked := NewMarkedSet(grid.Numbers()...)

	wp := Evaluate(grid, marked)
	if wp == nil || wp.Kind != FullHouse {
		t.Fatalf("expected %s, got %v", FullHouse, wp)
	}
	if len(wp.Numbers) != 24 {
		t.Errorf("expected 24 full house numbers, got %d", len(wp.Numbers))
	}

	// One cell short falls back to the ordinary precedence.
	marked.Remove(grid[4][4])
	wp = Evaluate(grid, marked)
	if wp == nil || wp.Kind != Horizontal(0) {
		t.Errorf("expected %s with one cell unmarked, got %v", Horizontal(0), wp)
	}
}

func TestEvaluateAll_FullCard(t *testing.T) {
	grid := testGrid(t, 42)
	all := EvaluateAll(grid, NewMarkedSet(grid.Numbers()...))
	if len(all) != 1 || all[0].Kind != FullHouse {
		t.Errorf("expected a single full house, got %v", all)
	}
}

func TestEvaluate_RowZeroBeforeColumnsAndDiagonals(t *testing.T) {
	grid := testGrid(t, 9)
	marked := markCells(grid, [2]int{0, 0}, [2]int{0, 1}, [2]int{0, 2}, [2]int{0, 3}, [2]int{0, 4})

	wp := Evaluate(grid, marked)
	if wp == nil {
		t.Fatal("expected a match")
	}
	if wp.Kind != "horizontal-line-1" {
		t.Errorf("expected horizontal-line-1, got %s", wp.Kind)
	}
	if !SameNumbers(wp.Numbers, marked.Sorted()) {
		t.Errorf("expected numbers %v, got %v", marked.Sorted(), wp.Numbers)
	}
}

func TestEvaluate_RowPrecedesColumn(t *testing.T) {
	grid := testGrid(t, 13)
	var cells [][2]int
	for i := 0; i < card.Size; i++ {
		cells = append(cells, [2]int{3, i}, [2]int{i, 0})
	}
	wp := Evaluate(grid, markCells(grid, cells...))
	if wp == nil || wp.Kind != "horizontal-line-4" {
		t.Fatalf("expected horizontal-line-4, got %v", wp)
	}
}

func TestEvaluate_MiddleRowUsesFreeCell(t *testing.T) {
	grid := testGrid(t, 100)
	marked := markCells(grid, [2]int{2, 0}, [2]int{2, 1}, [2]int{2, 3}, [2]int{2, 4})

	wp := Evaluate(grid, marked)
	if wp == nil || wp.Kind != "horizontal-line-3" {
		t.Fatalf("expected horizontal-line-3, got %v", wp)
	}
	if len(wp.Numbers) != 4 {
		t.Errorf("expected 4 numbers without the free cell, got %d", len(wp.Numbers))
	}
}

func TestEvaluate_Vertical(t *testing.T) {
	grid := testGrid(t, 77)
	marked := NewMarkedSet(grid.Column(0)...)

	wp := Evaluate(grid, marked)
	if wp == nil || wp.Kind != "vertical-line-B" {
		t.Fatalf("expected vertical-line-B, got %v", wp)
	}
	if !SameNumbers(wp.Numbers, grid.Column(0)) {
		t.Errorf("expected %v, got %v", grid.Column(0), wp.Numbers)
	}
}

func TestEvaluate_Diagonals(t *testing.T) {
	grid := testGrid(t, 250)

	diag := markCells(grid, [2]int{0, 0}, [2]int{1, 1}, [2]int{3, 3}, [2]int{4, 4})
	if wp := Evaluate(grid, diag); wp == nil || wp.Kind != DiagonalMain {
		t.Errorf("expected %s, got %v", DiagonalMain, wp)
	}

	anti := markCells(grid, [2]int{0, 4}, [2]int{1, 3}, [2]int{3, 1}, [2]int{4, 0})
	if wp := Evaluate(grid, anti); wp == nil || wp.Kind != DiagonalAnti {
		t.Errorf("expected %s, got %v", DiagonalAnti, wp)
	}
}

func TestEvaluate_FourCorners(t *testing.T) {
	grid := testGrid(t, 321)
	marked := markCells(grid, [2]int{0, 0}, [2]int{0, 4}, [2]int{4, 0}, [2]int{4, 4})

	wp := Evaluate(grid, marked)
	if wp == nil || wp.Kind != FourCorners {
		t.Fatalf("expected %s, got %v", FourCorners, wp)
	}
	if len(wp.Numbers) != 4 {
		t.Errorf("expected 4 corner numbers, got %d", len(wp.Numbers))
	}
}

func TestEvaluate_IgnoresForeignMarks(t *testing.T) {
	grid := testGrid(t, 8)
	marked := NewMarkedSet()
	for n := 1; n <= card.MaxBall; n++ {
		if !grid.Contains(n) {
			marked.Add(n)
		}
	}
	if wp := Evaluate(grid, marked); wp != nil {
		t.Errorf("expected no match from numbers not on the card, got %s", wp.Kind)
	}
}

func TestEvaluateAll_RowAndColumn(t *testing.T) {
	grid := testGrid(t, 61)
	var cells [][2]int
	for i := 0; i < card.Size; i++ {
		cells = append(cells, [2]int{1, i}, [2]int{i, 4})
	}
	all := EvaluateAll(grid, markCells(grid, cells...))
	if len(all) != 1 || all[0].Kind != "horizontal-line-2" {
		t.Fatalf("expected only horizontal-line-2 once the shared cell is consumed, got %v", all)
	}
}

func TestKinds_Order(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 14 {
		t.Fatalf("expected 14 shapes, got %d", len(kinds))
	}
	if kinds[0] != "horizontal-line-1" || kinds[5] != "vertical-line-B" || kinds[13] != FullHouse {
		t.Errorf("unexpected order: %v", kinds)
	}
}

func TestMarkedSet_Toggle(t *testing.T) {
	m := NewMarkedSet()
	if !m.Toggle(5) || !m.Has(5) {
		t.Error("expected 5 to be marked")
	}
	if m.Toggle(5) || m.Has(5) {
		t.Error("expected 5 to be unmarked")
	}
	m.Add(1)
	m.Add(2)
	m.Clear()
	if m.Len() != 0 {
		t.Errorf("expected empty set, got %d", m.Len())
	}
}
