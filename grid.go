package gridastar

import (
	"fmt"
	"strings"
)

// Default grid dimensions used by the visualizer.
const (
	DefaultRows = 30
	DefaultCols = 30
)

// Grid is a rows x cols board of cell states. It holds at most one Start and
// one End cell, and neither is ever a Wall.
//
// A Grid is not safe for concurrent use; during a run it belongs to the
// Stepper driving the search.
type Grid struct {
	rows, cols int
	cells      []CellState

	start, end       Cell
	hasStart, hasEnd bool
}

// NewGrid returns an empty grid.
func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: grid dimensions %dx%d", ErrInvalidInput, rows, cols)
	}
	return &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]CellState, rows*cols),
	}, nil
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.rows && c.Col >= 0 && c.Col < g.cols
}

// State returns the tag of c. Cells off the grid read as Wall.
func (g *Grid) State(c Cell) CellState {
	if !g.InBounds(c) {
		return Wall
	}
	return g.cells[g.index(c)]
}

// Passable reports whether a search may step onto c.
func (g *Grid) Passable(c Cell) bool {
	return g.InBounds(c) && g.cells[g.index(c)] != Wall
}

// Start returns the start cell, if one is placed.
func (g *Grid) Start() (Cell, bool) { return g.start, g.hasStart }

// End returns the end cell, if one is placed.
func (g *Grid) End() (Cell, bool) { return g.end, g.hasEnd }

// SetStart places the start cell, moving it if one already exists.
func (g *Grid) SetStart(c Cell) error {
	if err := g.checkEndpoint(c, "start"); err != nil {
		return err
	}
	if g.hasEnd && g.end == c {
		return fmt.Errorf("%w: start %s is the end cell", ErrInvalidInput, c)
	}
	if g.hasStart {
		g.cells[g.index(g.start)] = Empty
	}
	g.start, g.hasStart = c, true
	g.cells[g.index(c)] = Start
	return nil
}

// SetEnd places the end cell, moving it if one already exists.
func (g *Grid) SetEnd(c Cell) error {
	if err := g.checkEndpoint(c, "end"); err != nil {
		return err
	}
	if g.hasStart && g.start == c {
		return fmt.Errorf("%w: end %s is the start cell", ErrInvalidInput, c)
	}
	if g.hasEnd {
		g.cells[g.index(g.end)] = Empty
	}
	g.end, g.hasEnd = c, true
	g.cells[g.index(c)] = End
	return nil
}

func (g *Grid) checkEndpoint(c Cell, name string) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%w: %s %s out of bounds", ErrInvalidInput, name, c)
	}
	if g.cells[g.index(c)] == Wall {
		return fmt.Errorf("%w: %s %s is a wall", ErrInvalidInput, name, c)
	}
	return nil
}

// SetWall marks c as an obstacle. Start and End cannot be walled over.
func (g *Grid) SetWall(c Cell) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%w: wall %s out of bounds", ErrInvalidInput, c)
	}
	switch g.cells[g.index(c)] {
	case Start, End:
		return fmt.Errorf("%w: wall %s covers an endpoint", ErrInvalidInput, c)
	}
	g.cells[g.index(c)] = Wall
	return nil
}

// EraseWall turns a Wall back into Empty. Other cells are left alone.
func (g *Grid) EraseWall(c Cell) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%w: erase %s out of bounds", ErrInvalidInput, c)
	}
	g.open(c)
	return nil
}

// ClearEndpoints removes the Start and End tags.
func (g *Grid) ClearEndpoints() {
	if g.hasStart {
		g.cells[g.index(g.start)] = Empty
	}
	if g.hasEnd {
		g.cells[g.index(g.end)] = Empty
	}
	g.start, g.end = Cell{}, Cell{}
	g.hasStart, g.hasEnd = false, false
}

// open clears a wall at c.
func (g *Grid) open(c Cell) {
	if i := g.index(c); g.cells[i] == Wall {
		g.cells[i] = Empty
	}
}

// Walls lists the obstacle cells in row-major order.
func (g *Grid) Walls() []Cell {
	walls := make([]Cell, 0)
	for i, state := range g.cells {
		if state == Wall {
			walls = append(walls, g.cellAt(i))
		}
	}
	return walls
}

// ClearSearch drops Visited and Path tags left by a previous run.
func (g *Grid) ClearSearch() {
	for i, state := range g.cells {
		if state == Visited || state == Path {
			g.cells[i] = Empty
		}
	}
}

// Reset empties every cell and forgets start and end.
func (g *Grid) Reset() {
	clear(g.cells)
	g.start, g.end = Cell{}, Cell{}
	g.hasStart, g.hasEnd = false, false
}

// Clone returns an independent copy of g.
func (g *Grid) Clone() *Grid {
	c := *g
	c.cells = append([]CellState(nil), g.cells...)
	return &c
}

// String renders the grid one row per line using the layout glyphs.
func (g *Grid) String() string {
	var b strings.Builder
	b.Grow(g.rows * (g.cols + 1))
	for r := 0; r < g.rows; r++ {
		for c := 0; c < g.cols; c++ {
			b.WriteByte(g.cells[r*g.cols+c].Glyph())
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (g *Grid) index(c Cell) int { return c.Row*g.cols + c.Col }

func (g *Grid) cellAt(i int) Cell { return Cell{Row: i / g.cols, Col: i % g.cols} }

// tag sets a search tag on cell i and reports whether the state changed.
// Start and End keep their tags.
func (g *Grid) tag(i int, state CellState) bool {
	switch g.cells[i] {
	case Start, End, Wall, state:
		return false
	}
	g.cells[i] = state
	return true
}
