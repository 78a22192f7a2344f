package card

import (
	"errors"
	"fmt"
	"sort"
)

const (
	Size    = 5
	FreeRow = 2
	FreeCol = 2
	// Free is the sentinel stored in the centre cell.
	Free = 0

	DefaultMinNumber = 1
	DefaultMaxNumber = 400

	// Numbers per letter column: B 1-15, I 16-30, N 31-45, G 46-60, O 61-75.
	columnSpan = 15
	MaxBall    = Size * columnSpan
)

// LCG constants. Only an authority using the same seed layout (see columnNumbers)
// reproduces these grids.
const (
	lcgMultiplier = 9301
	lcgIncrement  = 49297
	lcgModulus    = 233280
)

var ErrInvalidCardNumber = errors.New("invalid card number")

var Letters = [Size]string{"B", "I", "N", "G", "O"}

// Grid is indexed [row][col]. Column c holds numbers of letter Letters[c].
type Grid [Size][Size]int

// Card is a generated grid together with the number it was derived from.
type Card struct {
	Number int
	Grid   Grid
}

// Generator maps card numbers inside an administratively valid range to grids.
type Generator struct {
	min int
	max int
}

// NewGenerator returns a generator accepting card numbers in [min, max].
func NewGenerator(min, max int) (*Generator, error) {
	if min < 1 || max < min {
		return nil, fmt.Errorf("invalid card number range [%d, %d]", min, max)
	}
	return &Generator{min: min, max: max}, nil
}

// Default accepts the card numbers offered by the lobby (1-400).
var Default = &Generator{min: DefaultMinNumber, max: DefaultMaxNumber}

// Generate returns the grid for n using the Default generator.
func Generate(n int) (Grid, error) {
	return Default.Generate(n)
}

func (g *Generator) Min() int { return g.min }
func (g *Generator) Max() int { return g.max }

// Valid reports whether n is an accepted card number.
func (g *Generator) Valid(n int) bool {
	return n >= g.min && n <= g.max
}

// Generate derives the grid for card number n. The same n always yields the same grid.
func (g *Generator) Generate(n int) (Grid, error) {
	var grid Grid
	if !g.Valid(n) {
		return grid, fmt.Errorf("%w: %d outside [%d, %d]", ErrInvalidCardNumber, n, g.min, g.max)
	}

	for col := 0; col < Size; col++ {
		column := columnNumbers(n, col)
		for row := 0; row < Size; row++ {
			grid[row][col] = column[row]
		}
	}
	grid[FreeRow][FreeCol] = Free
	return grid, nil
}

// New generates a Card for n.
func (g *Generator) New(n int) (*Card, error) {
	grid, err := g.Generate(n)
	if err != nil {
		return nil, err
	}
	return &Card{Number: n, Grid: grid}, nil
}

// columnNumbers draws five distinct in-range values for a column and sorts them.
// Consecutive seeds move the draw by less than one value, so every value in the
// column range is reached within a single sweep and the loop always terminates.
func columnNumbers(cardNumber, col int) []int {
	lo, hi := ColumnRange(col)
	seen := make(map[int]bool, Size)
	numbers := make([]int, 0, Size)

	for attempt := 0; len(numbers) < Size; attempt++ {
		seed := cardNumber*100 + col*20 + attempt
		v := draw(seed, lo, hi)
		if seen[v] {
			continue
		}
		seen[v] = true
		numbers = append(numbers, v)
	}

	sort.Ints(numbers)
	return numbers
}

func draw(seed, lo, hi int) int {
	r := (seed*lcgMultiplier + lcgIncrement) % lcgModulus
	return r*(hi-lo+1)/lcgModulus + lo
}

// ColumnRange returns the inclusive number range of column col.
func ColumnRange(col int) (int, int) {
	lo := col*columnSpan + 1
	return lo, lo + columnSpan - 1
}

// LetterFor returns the column letter for a called number.
func LetterFor(number int) (string, bool) {
	if number < 1 || number > MaxBall {
		return "", false
	}
	return Letters[(number-1)/columnSpan], true
}

// IsFree reports whether (row, col) is the centre cell.
func IsFree(row, col int) bool {
	return row == FreeRow && col == FreeCol
}

// Position finds number on the grid. The free sentinel is never found.
func (g Grid) Position(number int) (row, col int, ok bool) {
	if number == Free {
		return 0, 0, false
	}
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g[r][c] == number && !IsFree(r, c) {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

func (g Grid) Contains(number int) bool {
	_, _, ok := g.Position(number)
	return ok
}

// Column returns the five cells of column col top to bottom, free sentinel included.
func (g Grid) Column(col int) []int {
	out := make([]int, Size)
	for r := 0; r < Size; r++ {
		out[r] = g[r][col]
	}
	return out
}

// Numbers returns the 24 non-free numbers in row-major order.
func (g Grid) Numbers() []int {
	out := make([]int, 0, Size*Size-1)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if IsFree(r, c) {
				continue
			}
			out = append(out, g[r][c])
		}
	}
	return out
}
