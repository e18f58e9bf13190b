package gridastar

import "fmt"

// Cell is a grid coordinate.
type Cell struct {
	Row int
	Col int
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Manhattan returns |r1-r2| + |c1-c2|, the heuristic used by the engine.
func Manhattan(a, b Cell) int {
	dr := a.Row - b.Row
	if dr < 0 {
		dr = -dr
	}
	dc := a.Col - b.Col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}

// directions in expansion order: right, left, down, up.
var directions = [4]Cell{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}

// CellState is the single tag a cell carries at any time.
type CellState uint8

const (
	Empty CellState = iota
	Wall
	Start
	End
	Visited
	Path
)

var cellStateNames = [...]string{
	Empty:   "empty",
	Wall:    "wall",
	Start:   "start",
	End:     "end",
	Visited: "visited",
	Path:    "path",
}

var cellStateGlyphs = [...]byte{
	Empty:   '.',
	Wall:    '#',
	Start:   'S',
	End:     'E',
	Visited: 'o',
	Path:    '*',
}

func (s CellState) String() string {
	if int(s) < len(cellStateNames) {
		return cellStateNames[s]
	}
	return fmt.Sprintf("CellState(%d)", s)
}

// Glyph is the character used for s in text layouts.
func (s CellState) Glyph() byte {
	if int(s) < len(cellStateGlyphs) {
		return cellStateGlyphs[s]
	}
	return '?'
}

// MarshalText encodes the state by name so it can be used in JSON payloads.
func (s CellState) MarshalText() ([]byte, error) {
	if int(s) >= len(cellStateNames) {
		return nil, fmt.Errorf("unknown cell state %d", s)
	}
	return []byte(cellStateNames[s]), nil
}

func (s *CellState) UnmarshalText(text []byte) error {
	for state, name := range cellStateNames {
		if name == string(text) {
			*s = CellState(state)
			return nil
		}
	}
	return fmt.Errorf("unknown cell state %q", text)
}

func stateFromGlyph(b byte) (CellState, bool) {
	for state, glyph := range cellStateGlyphs {
		if glyph == b {
			return CellState(state), true
		}
	}
	return Empty, false
}
