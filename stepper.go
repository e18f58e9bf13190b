package gridastar

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/pdrpinto/gridastar/internal"
)

const unreached = math.MaxInt

// Phase is where a Stepper is in a run.
type Phase uint8

const (
	// Searching expands one frontier node per step.
	Searching Phase = iota
	// Tracing tags one path cell per step.
	Tracing
	// Finished means SearchCompleted has been emitted.
	Finished
)

func (p Phase) String() string {
	switch p {
	case Searching:
		return "searching"
	case Tracing:
		return "tracing"
	case Finished:
		return "finished"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Phase) UnmarshalText(text []byte) error {
	for _, phase := range []Phase{Searching, Tracing, Finished} {
		if phase.String() == string(text) {
			*p = phase
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// StepSnapshot exposes the per-step state of the search
type StepSnapshot struct {
	Phase     Phase
	Current   Cell
	Events    []Event
	Frontier  int
	StepIndex int
	Done      bool
	Outcome   Outcome
	Path      []Cell
}

// Stepper runs the search one yield point at a time: one frontier expansion,
// or one path cell during reconstruction. The caller decides the pacing;
// abandoning a run is simply not calling Step again.
type Stepper struct {
	grid       *Grid
	start      Cell
	end        Cell
	startIndex int
	endIndex   int
	policy     FrontierPolicy
	observer   Observer

	openSet     PriorityQueue
	queued      []int
	bestCost    []int
	predecessor []int
	sequence    int

	phase      Phase
	current    Cell
	path       []Cell
	traced     int
	expansions int
	stepCount  int
	outcome    Outcome
	events     []Event
}

// NewStepper validates the input and queues the start cell. The grid is
// tagged in place as the run advances and must not be edited meanwhile.
func NewStepper(grid *Grid, start Cell, end Cell, options ...Option) (*Stepper, error) {
	if err := validate(grid, start, end); err != nil {
		return nil, err
	}

	// --- Apply options ---
	searchOptions := Options{Policy: LazyDuplicates}
	for _, option := range options {
		option(&searchOptions)
	}

	// --- Initialize state ---
	size := grid.rows * grid.cols
	s := &Stepper{
		grid:        grid,
		start:       start,
		end:         end,
		startIndex:  grid.index(start),
		endIndex:    grid.index(end),
		policy:      searchOptions.Policy,
		observer:    searchOptions.Observer,
		openSet:     make(PriorityQueue, 0, size),
		queued:      make([]int, size),
		bestCost:    make([]int, size),
		predecessor: make([]int, size),
		current:     start,
	}
	for i := range s.bestCost {
		s.bestCost[i] = unreached
		s.predecessor[i] = -1
	}
	heap.Init(&s.openSet)
	s.bestCost[s.startIndex] = 0
	s.push(s.startIndex, 0)

	return s, nil
}

// Step advances the run by one yield point and returns what happened. Once
// the run is finished it keeps returning the final snapshot with no events.
func (s *Stepper) Step() StepSnapshot {
	s.events = nil
	switch s.phase {
	case Searching:
		s.stepCount++
		s.expand()
	case Tracing:
		s.stepCount++
		s.trace()
	}
	return s.snapshot()
}

// Done reports whether SearchCompleted has been emitted.
func (s *Stepper) Done() bool { return s.phase == Finished }

// Phase returns the current phase.
func (s *Stepper) Phase() Phase { return s.phase }

// Grid returns a copy of the grid as tagged so far.
func (s *Stepper) Grid() *Grid { return s.grid.Clone() }

// Result summarizes the run. Outcome is Undecided until Done.
func (s *Stepper) Result() Result {
	result := Result{Outcome: s.outcome, Expansions: s.expansions}
	if s.outcome == PathFound {
		result.Path = append([]Cell(nil), s.path...)
		result.Cost = s.bestCost[s.endIndex]
	}
	return result
}

func (s *Stepper) expand() {
	var currentItem *PriorityQueueItem
	for {
		if s.openSet.Len() == 0 {
			s.finish(NoPathExists)
			return
		}
		currentItem = heap.Pop(&s.openSet).(*PriorityQueueItem)
		s.queued[currentItem.Index]--
		// Skip entries superseded by a cheaper one
		if s.policy == LazyDuplicates && currentItem.GScore > s.bestCost[currentItem.Index] {
			continue
		}
		break
	}

	currentIndex := currentItem.Index
	s.current = s.grid.cellAt(currentIndex)

	// Goal check
	if currentIndex == s.endIndex {
		for _, i := range internal.ReconstructPath(s.predecessor, s.endIndex, s.startIndex) {
			s.path = append(s.path, s.grid.cellAt(i))
		}
		s.phase = Tracing
		s.trace()
		return
	}

	s.expansions++
	if currentIndex != s.startIndex && s.grid.tag(currentIndex, Visited) {
		s.emit(Event{Kind: CellStateChanged, Cell: s.current, State: Visited})
	}

	tentativeG := s.bestCost[currentIndex] + 1
	for _, d := range directions {
		neighbor := Cell{Row: s.current.Row + d.Row, Col: s.current.Col + d.Col}
		if !s.grid.Passable(neighbor) {
			continue
		}
		neighborIndex := s.grid.index(neighbor)
		if tentativeG >= s.bestCost[neighborIndex] {
			continue
		}
		s.predecessor[neighborIndex] = currentIndex
		s.bestCost[neighborIndex] = tentativeG
		if s.policy == MembershipCheck && s.queued[neighborIndex] > 0 {
			continue
		}
		s.push(neighborIndex, tentativeG)
	}

	s.emit(Event{
		Kind:     NodeExpanded,
		Cell:     s.current,
		Step:     s.expansions,
		Frontier: s.openSet.Len(),
	})
}

// trace tags the next path cell. The end cell keeps its End tag, so the run
// finishes as soon as the cell before it is tagged.
func (s *Stepper) trace() {
	if s.traced < len(s.path)-1 {
		cell := s.path[s.traced]
		s.traced++
		s.current = cell
		if s.grid.tag(s.grid.index(cell), Path) {
			s.emit(Event{Kind: CellStateChanged, Cell: cell, State: Path})
		}
		if s.traced < len(s.path)-1 {
			return
		}
	}
	s.finish(PathFound)
}

func (s *Stepper) finish(outcome Outcome) {
	s.phase = Finished
	s.outcome = outcome
	s.emit(Event{Kind: SearchCompleted, Outcome: outcome})
}

func (s *Stepper) push(index int, gScore int) {
	h := Manhattan(s.grid.cellAt(index), s.end)
	heap.Push(&s.openSet, &PriorityQueueItem{
		Index:    index,
		GScore:   gScore,
		FCost:    gScore + h,
		HCost:    h,
		Sequence: s.sequence,
	})
	s.sequence++
	s.queued[index]++
}

func (s *Stepper) emit(e Event) {
	s.events = append(s.events, e)
	if s.observer != nil {
		s.observer(e)
	}
}

func (s *Stepper) snapshot() StepSnapshot {
	snapshot := StepSnapshot{
		Phase:     s.phase,
		Current:   s.current,
		Events:    s.events,
		Frontier:  s.openSet.Len(),
		StepIndex: s.stepCount,
		Done:      s.phase == Finished,
		Outcome:   s.outcome,
	}
	if s.outcome == PathFound {
		snapshot.Path = append([]Cell(nil), s.path...)
	}
	return snapshot
}
