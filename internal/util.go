package internal

// ReconstructPath follows predecessor links from end back to start and returns
// the chain in start-to-end order, excluding start and including end. A
// negative predecessor marks a cell that was never reached.
func ReconstructPath(predecessor []int, end int, start int) []int {
	path := make([]int, 0)
	current := end
	for steps := 0; current != start && steps < len(predecessor); steps++ {
		path = append(path, current)
		previousNode := predecessor[current]
		if previousNode < 0 {
			break
		}
		current = previousNode
	}
	// reverse path
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	return path
}
