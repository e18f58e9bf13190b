package gridastar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseLayout reads a grid drawn one row per line with the cell glyphs:
// '.' empty, '#' wall, 'S' start, 'E' end, 'o' visited, '*' path.
// Blank lines are ignored and every row must have the same width.
func ParseLayout(reader io.Reader) (*Grid, error) {
	return ParseLayoutLimited(reader, 0)
}

// ParseLayoutLimited is ParseLayout for untrusted input: it stops reading as
// soon as the layout holds more than maxCells cells. A maxCells of zero or
// less means no limit.
func ParseLayoutLimited(reader io.Reader, maxCells int) (*Grid, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(bufio.ScanLines)
	lines := make([]string, 0)
	cells := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if len(lines) > 0 && len(line) != len(lines[0]) {
			return nil, fmt.Errorf("%w: layout row %d has width %d, want %d",
				ErrInvalidInput, len(lines), len(line), len(lines[0]))
		}
		cells += len(line)
		if maxCells > 0 && cells > maxCells {
			return nil, fmt.Errorf("%w: layout exceeds %d cells", ErrInvalidInput, maxCells)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); errors.Is(err, bufio.ErrTooLong) {
		return nil, fmt.Errorf("%w: layout row too long", ErrInvalidInput)
	} else if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: empty layout", ErrInvalidInput)
	}

	grid, err := NewGrid(len(lines), len(lines[0]))
	if err != nil {
		return nil, err
	}
	for row, line := range lines {
		for col := 0; col < len(line); col++ {
			cell := Cell{Row: row, Col: col}
			state, ok := stateFromGlyph(line[col])
			if !ok {
				return nil, fmt.Errorf("%w: layout %s has unknown glyph %q", ErrInvalidInput, cell, line[col])
			}
			switch state {
			case Start:
				if grid.hasStart {
					return nil, fmt.Errorf("%w: layout has a second start at %s", ErrInvalidInput, cell)
				}
				err = grid.SetStart(cell)
			case End:
				if grid.hasEnd {
					return nil, fmt.Errorf("%w: layout has a second end at %s", ErrInvalidInput, cell)
				}
				err = grid.SetEnd(cell)
			default:
				grid.cells[grid.index(cell)] = state
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return grid, nil
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (*Grid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ParseLayout(file)
}
