package gridastar

import "math/rand"

// GenerateWalls adds clustered random walls via random walks. Each of the
// clusters walks steps cells from a random origin and walls the cell it
// stands on with probability density. Start and End are never covered.
// It returns the number of cells that became walls.
func GenerateWalls(grid *Grid, rng *rand.Rand, clusters, steps int, density float64) int {
	added := 0
	for c := 0; c < clusters; c++ {
		p := Cell{Row: rng.Intn(grid.rows), Col: rng.Intn(grid.cols)}
		for s := 0; s < steps; s++ {
			if rng.Float64() < density {
				switch grid.State(p) {
				case Empty, Visited, Path:
					grid.cells[grid.index(p)] = Wall
					added++
				}
			}
			d := directions[rng.Intn(len(directions))]
			np := Cell{Row: p.Row + d.Row, Col: p.Col + d.Col}
			if grid.InBounds(np) {
				p = np
			}
		}
	}
	return added
}

// GenerateMaze replaces the board with a perfect maze carved by Wilson's
// loop-erased random walks. Cells with an even row and column are rooms, a
// cell between two rooms is the passage joining them, and every other cell
// is walled. Start and End stay where they are and are joined to an adjacent
// room. It returns the number of wall cells.
func GenerateMaze(grid *Grid, rng *rand.Rand) int {
	for i, state := range grid.cells {
		switch state {
		case Empty, Visited, Path:
			grid.cells[i] = Wall
		}
	}

	roomRows, roomCols := (grid.rows+1)/2, (grid.cols+1)/2
	rooms := roomRows * roomCols
	roomCell := func(room int) Cell {
		return Cell{Row: 2 * (room / roomCols), Col: 2 * (room % roomCols)}
	}
	neighbors := make([]int, 0, len(directions))
	randomNeighbor := func(room int) int {
		neighbors = neighbors[:0]
		r, c := room/roomCols, room%roomCols
		for _, d := range directions {
			nr, nc := r+d.Row, c+d.Col
			if nr >= 0 && nr < roomRows && nc >= 0 && nc < roomCols {
				neighbors = append(neighbors, nr*roomCols+nc)
			}
		}
		return neighbors[rng.Intn(len(neighbors))]
	}

	inMaze := make([]bool, rooms)
	exit := make([]int, rooms)
	first := rng.Intn(rooms)
	inMaze[first] = true
	grid.open(roomCell(first))
	for remaining := rooms - 1; remaining > 0; {
		start := rng.Intn(rooms)
		for inMaze[start] {
			start = rng.Intn(rooms)
		}
		// walk until the maze is hit; overwriting exits erases loops
		for room := start; !inMaze[room]; room = exit[room] {
			exit[room] = randomNeighbor(room)
		}
		for room := start; !inMaze[room]; room = exit[room] {
			inMaze[room] = true
			remaining--
			from, to := roomCell(room), roomCell(exit[room])
			grid.open(from)
			grid.open(Cell{Row: (from.Row + to.Row) / 2, Col: (from.Col + to.Col) / 2})
		}
	}

	for _, endpoint := range []struct {
		cell Cell
		ok   bool
	}{{grid.start, grid.hasStart}, {grid.end, grid.hasEnd}} {
		// an endpoint between four walls opens the passage above it
		if endpoint.ok && endpoint.cell.Row%2 == 1 && endpoint.cell.Col%2 == 1 {
			grid.open(Cell{Row: endpoint.cell.Row - 1, Col: endpoint.cell.Col})
		}
	}
	return len(grid.Walls())
}
